package glide

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"tablesync/core/engine"

	"golang.org/x/sync/semaphore"
)

// Mutation is a single mutateTables entry. Kind is either "add-row-to-table"
// or "set-columns-in-row".
type Mutation struct {
	Kind         string            `json:"kind"`
	TableName    string            `json:"tableName"`
	RowID        string            `json:"rowID,omitempty"`
	ColumnValues map[string]string `json:"columnValues"`
}

// MutateResult is the per-mutation response entry. RowID is set for add-row
// mutations.
type MutateResult struct {
	RowID string `json:"rowID"`
}

// Client is a thin wrapper over the Glide function API. All calls share the
// inflight semaphore so several sync units cannot stampede the API together.
type Client struct {
	baseURL   string
	token     string
	appID     string
	chunkSize int
	http      *http.Client
	inflight  *semaphore.Weighted
}

// NewClient builds a client from config. The semaphore may be shared between
// clients; pass nil to run unthrottled.
func NewClient(cfg Config, inflight *semaphore.Weighted) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 180
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	chunk := cfg.MutationChunk
	if chunk <= 0 {
		chunk = 200
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		appID:     cfg.AppID,
		chunkSize: chunk,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		inflight: inflight,
	}
}

type queryRequest struct {
	AppID   string  `json:"appID"`
	Queries []query `json:"queries"`
}

type query struct {
	TableName string `json:"tableName"`
	UTC       bool   `json:"utc"`
	StartAt   string `json:"startAt,omitempty"`
}

type queryBlock struct {
	Rows []map[string]any `json:"rows"`
	Next string           `json:"next"`
}

// QueryPage fetches one page of rows from a table. An empty startAt fetches
// the first page; the returned next token is empty on the last page.
func (c *Client) QueryPage(ctx context.Context, tableName, startAt string) ([]map[string]any, string, error) {
	body := queryRequest{
		AppID:   c.appID,
		Queries: []query{{TableName: tableName, UTC: true, StartAt: startAt}},
	}

	var blocks []queryBlock
	if err := c.post(ctx, "/api/function/queryTables", body, &blocks); err != nil {
		return nil, "", err
	}
	if len(blocks) == 0 {
		return nil, "", nil
	}
	return blocks[0].Rows, blocks[0].Next, nil
}

type mutateRequest struct {
	AppID     string     `json:"appID"`
	Mutations []Mutation `json:"mutations"`
}

// Mutate applies mutations in order, splitting oversized batches into chunks.
// Results line up index for index with the input.
func (c *Client) Mutate(ctx context.Context, muts []Mutation) ([]MutateResult, error) {
	results := make([]MutateResult, 0, len(muts))
	for start := 0; start < len(muts); start += c.chunkSize {
		end := start + c.chunkSize
		if end > len(muts) {
			end = len(muts)
		}

		var chunk []MutateResult
		body := mutateRequest{AppID: c.appID, Mutations: muts[start:end]}
		if err := c.post(ctx, "/api/function/mutateTables", body, &chunk); err != nil {
			return results, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.inflight != nil {
		if err := c.inflight.Acquire(ctx, 1); err != nil {
			return engine.Transient(err)
		}
		defer c.inflight.Release(1)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return engine.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return engine.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return engine.Transient(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return engine.Transient(err)
	}
	if resp.StatusCode >= 400 {
		err := fmt.Errorf("glide %s: status %d: %s", path, resp.StatusCode, truncate(data, 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return engine.Transient(err)
		}
		return engine.Permanent(err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return engine.Permanent(fmt.Errorf("glide %s: decode response: %w", path, err))
	}
	return nil
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
