package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mdmportal/internal/model"
	"mdmportal/internal/repository"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxRank = 100

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// GroupMatch is one ranked material group.
type GroupMatch struct {
	MgrpCode      string `json:"mgrp_code"`
	MgrpShortname string `json:"mgrp_shortname"`
	Notes         string `json:"notes"`
	Rank          int    `json:"rank"`
}

type SearchService interface {
	SearchGroups(ctx context.Context, query string) ([]GroupMatch, error)
}

type searchService struct {
	groups repository.MasterDataRepository[model.MaterialGroup]
}

func NewSearchService(groups repository.MasterDataRepository[model.MaterialGroup]) SearchService {
	return &searchService{groups: groups}
}

// SearchGroups ranks groups by fuzzy distance between the query and their
// names, notes and search text. Higher rank is better.
func (s *searchService) SearchGroups(ctx context.Context, query string) ([]GroupMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidf("query is required")
	}

	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}

	return RankGroups(query, groups), nil
}

// RankGroups scores groups against query. A group matches when the whole
// query matches one field, or when every query term matches some field.
func RankGroups(query string, groups []model.MaterialGroup) []GroupMatch {
	terms := strings.Fields(query)
	matches := make([]GroupMatch, 0)

	for _, g := range groups {
		fields := []string{g.MgrpCode, g.MgrpShortname, g.MgrpLongname, g.Notes, g.SearchText}

		dist, ok := bestDistance(query, fields)
		if !ok && len(terms) > 1 {
			dist, ok = 0, true
			for _, t := range terms {
				d, found := bestDistance(t, fields)
				if !found {
					ok = false
					break
				}
				dist += d
			}
		}
		if !ok {
			continue
		}

		rank := maxRank - dist
		if rank < 1 {
			rank = 1
		}
		matches = append(matches, GroupMatch{
			MgrpCode:      g.MgrpCode,
			MgrpShortname: g.MgrpShortname,
			Notes:         g.Notes,
			Rank:          rank,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Rank != matches[j].Rank {
			return matches[i].Rank > matches[j].Rank
		}
		return matches[i].MgrpCode < matches[j].MgrpCode
	})
	return matches
}

func bestDistance(term string, fields []string) (int, bool) {
	ranks := fuzzy.RankFindNormalizedFold(term, fields)
	if len(ranks) == 0 {
		return 0, false
	}
	best := ranks[0].Distance
	for _, r := range ranks[1:] {
		if r.Distance < best {
			best = r.Distance
		}
	}
	return best, true
}
