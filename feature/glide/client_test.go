package glide

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tablesync/core/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) Config {
	return Config{
		BaseURL:        url,
		Token:          "secret",
		AppID:          "app-1",
		TimeoutSeconds: 5,
		MutationChunk:  200,
	}
}

func TestClient_QueryPageFollowsTokens(t *testing.T) {
	pages := map[string]queryBlock{
		"": {
			Rows: []map[string]any{{"$rowID": "r1", "Name": "alpha"}},
			Next: "p2",
		},
		"p2": {
			Rows: []map[string]any{{"$rowID": "r2", "Name": "beta"}},
			Next: "",
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/function/queryTables", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Queries, 1)
		assert.Equal(t, "app-1", req.AppID)
		assert.Equal(t, "Suppliers", req.Queries[0].TableName)

		block, ok := pages[req.Queries[0].StartAt]
		require.True(t, ok, "unexpected startAt %q", req.Queries[0].StartAt)
		require.NoError(t, json.NewEncoder(w).Encode([]queryBlock{block}))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	rows, next, err := client.QueryPage(context.Background(), "Suppliers", "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", next)

	rows, next, err = client.QueryPage(context.Background(), "Suppliers", next)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "beta", rows[0]["Name"])
	assert.Empty(t, next)
}

func TestClient_MutateChunksOversizedBatches(t *testing.T) {
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/function/mutateTables", r.URL.Path)

		var req mutateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		sizes = append(sizes, len(req.Mutations))

		results := make([]MutateResult, len(req.Mutations))
		for i := range results {
			results[i] = MutateResult{RowID: fmt.Sprintf("row-%d", i)}
		}
		require.NoError(t, json.NewEncoder(w).Encode(results))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	muts := make([]Mutation, 450)
	for i := range muts {
		muts[i] = Mutation{Kind: "add-row-to-table", TableName: "Suppliers"}
	}

	results, err := client.Mutate(context.Background(), muts)
	require.NoError(t, err)
	assert.Equal(t, []int{200, 200, 50}, sizes)
	assert.Len(t, results, 450)
}

func TestClient_ErrorClassification(t *testing.T) {
	status := http.StatusServiceUnavailable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	_, _, err := client.QueryPage(context.Background(), "Suppliers", "")
	require.Error(t, err)
	assert.True(t, engine.IsTransient(err), "5xx should be retryable")

	status = http.StatusBadRequest
	_, _, err = client.QueryPage(context.Background(), "Suppliers", "")
	require.Error(t, err)
	assert.False(t, engine.IsTransient(err), "4xx should not be retryable")
}
