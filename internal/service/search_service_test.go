package service

import (
	"context"
	"testing"

	"mdmportal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchGroups_RanksCloserMatchesHigher(t *testing.T) {
	groups := newFakeMasterRepo(MaterialGroupEntity.Code,
		model.MaterialGroup{MgrpCode: "G1", MgrpShortname: "Bolts", Notes: "hex and carriage"},
		model.MaterialGroup{MgrpCode: "G2", MgrpShortname: "Fasteners", MgrpLongname: "Bolts, nuts and washers for steel frames"},
		model.MaterialGroup{MgrpCode: "G3", MgrpShortname: "Paint"},
	)
	svc := NewSearchService(groups)

	got, err := svc.SearchGroups(context.Background(), "bolts")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "G1", got[0].MgrpCode)
	assert.Equal(t, "G2", got[1].MgrpCode)
	assert.Greater(t, got[0].Rank, got[1].Rank)
	for _, m := range got {
		assert.GreaterOrEqual(t, m.Rank, 1)
		assert.LessOrEqual(t, m.Rank, 100)
	}
}

func TestSearchGroups_MultiTermAcrossFields(t *testing.T) {
	got := RankGroups("bolt steel", []model.MaterialGroup{
		{MgrpCode: "G1", MgrpShortname: "Bolts", Notes: "stainless steel"},
		{MgrpCode: "G2", MgrpShortname: "Bolts"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "G1", got[0].MgrpCode)
}

func TestSearchGroups_EmptyQuery(t *testing.T) {
	svc := NewSearchService(newFakeMasterRepo(MaterialGroupEntity.Code))
	_, err := svc.SearchGroups(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalid)
}
