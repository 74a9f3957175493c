package portal

import (
	"context"
	"net/http"
	"strings"
)

// SearchGroups asks the server to rank material groups against query. This
// is the one search that does not run client-side.
func (a *API) SearchGroups(ctx context.Context, query string) ([]GroupMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Msg: "query is required"}
	}
	var matches []GroupMatch
	body := map[string]string{"query": query}
	if err := a.Client.DoPublic(ctx, http.MethodPost, "/api/matgroups/search/", body, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
