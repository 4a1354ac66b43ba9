package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tablesync/core/engine"
)

// ValueRange mirrors the Sheets API value range shape.
type ValueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// Client wraps the spreadsheets.values endpoints used by the sync stores.
type Client struct {
	baseURL       string
	spreadsheetID string
	token         string
	http          *http.Client
}

// NewClient builds a client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 120
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

	return &Client{
		baseURL:       cfg.BaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		token:         cfg.AccessToken,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
	}
}

// GetValues reads a range, e.g. "'CCP'!A2:F".
func (c *Client) GetValues(ctx context.Context, rng string) ([][]string, error) {
	var out struct {
		Values [][]any `json:"values"`
	}
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s", c.spreadsheetID, url.PathEscape(rng))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	rows := make([][]string, len(out.Values))
	for i, raw := range out.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprintf("%v", cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// UpdateValues overwrites a range with raw values.
func (c *Client) UpdateValues(ctx context.Context, rng string, values [][]string) error {
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s?valueInputOption=RAW", c.spreadsheetID, url.PathEscape(rng))
	return c.do(ctx, http.MethodPut, path, ValueRange{Values: values}, nil)
}

// BatchUpdateValues writes several disjoint ranges in one call.
func (c *Client) BatchUpdateValues(ctx context.Context, data []ValueRange) error {
	body := struct {
		ValueInputOption string       `json:"valueInputOption"`
		Data             []ValueRange `json:"data"`
	}{ValueInputOption: "RAW", Data: data}

	path := fmt.Sprintf("/v4/spreadsheets/%s/values:batchUpdate", c.spreadsheetID)
	return c.do(ctx, http.MethodPost, path, body, nil)
}

// AppendValues appends rows after the last row of the range's table and
// returns the updated range reported by the API.
func (c *Client) AppendValues(ctx context.Context, rng string, values [][]string) (string, error) {
	var out struct {
		Updates struct {
			UpdatedRange string `json:"updatedRange"`
		} `json:"updates"`
	}
	path := fmt.Sprintf("/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.spreadsheetID, url.PathEscape(rng))
	if err := c.do(ctx, http.MethodPost, path, ValueRange{Values: values}, &out); err != nil {
		return "", err
	}
	return out.Updates.UpdatedRange, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return engine.Permanent(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return engine.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
		err := fmt.Errorf("sheets %s %s: status %d: %s", method, path, resp.StatusCode, clipBody(data))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return engine.Transient(err)
		}
		return engine.Permanent(err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return engine.Permanent(fmt.Errorf("sheets: decode response: %w", err))
	}
	return nil
}

func clipBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// colLetter converts a 1-based column index to its A1 letter form.
func colLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

// padRow right-pads row with empty cells to width w.
func padRow(row []string, w int) []string {
	if len(row) >= w {
		return row[:w]
	}
	out := make([]string, w)
	copy(out, row)
	return out
}
