package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"tablesync/core/engine"
	"tablesync/core/utils"
)

// Tab exposes one spreadsheet tab as an engine.RecordStore. Row one is the
// header; record ids are 1-based sheet row numbers.
type Tab struct {
	client *Client
	tab    string

	mu     sync.Mutex
	header []string
	cols   map[string]int
}

// NewTab binds a client to a tab name.
func NewTab(client *Client, tab string) *Tab {
	return &Tab{client: client, tab: tab}
}

func (t *Tab) Name() string {
	return "sheet:" + t.tab
}

// ensureHeader reads and caches the header row. The cache lives for the Tab's
// lifetime; a run constructs fresh stores, so headers cannot go stale within
// one run.
func (t *Tab) ensureHeader(ctx context.Context) ([]string, map[string]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.header != nil {
		return t.header, t.cols, nil
	}

	rows, err := t.client.GetValues(ctx, fmt.Sprintf("'%s'!1:1", t.tab))
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil, engine.Permanent(fmt.Errorf("sheet tab %q has no header row", t.tab))
	}

	header := make([]string, 0, len(rows[0]))
	cols := make(map[string]int, len(rows[0]))
	for _, h := range rows[0] {
		h = strings.TrimSpace(h)
		header = append(header, h)
		if h == "" {
			continue
		}
		if _, dup := cols[h]; !dup {
			cols[h] = len(header) - 1
		}
	}
	t.header, t.cols = header, cols
	return header, cols, nil
}

// ReadAll reads every data row under the header. The filter is ignored: the
// values API has no server-side filtering.
func (t *Tab) ReadAll(ctx context.Context, _ string) ([]engine.Record, error) {
	header, _, err := t.ensureHeader(ctx)
	if err != nil {
		return nil, err
	}

	rng := fmt.Sprintf("'%s'!A2:%s", t.tab, colLetter(len(header)))
	rows, err := t.client.GetValues(ctx, rng)
	if err != nil {
		return nil, err
	}

	recs := make([]engine.Record, 0, len(rows))
	for i, row := range rows {
		row = padRow(row, len(header))
		rec := engine.Record{
			ID:     strconv.Itoa(i + 2),
			Fields: make(map[string]any, len(header)),
		}
		for j, h := range header {
			if h == "" {
				continue
			}
			rec.Fields[h] = row[j]
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadPage returns the whole tab as a single page: the values API reads a
// bounded grid, so there is nothing to paginate.
func (t *Tab) ReadPage(ctx context.Context, token string) ([]engine.Record, string, error) {
	if token != "" {
		return nil, "", engine.Permanent(fmt.Errorf("sheet tab %q: unknown page token %q", t.tab, token))
	}
	recs, err := t.ReadAll(ctx, "")
	return recs, "", err
}

// Create appends one row and returns its sheet row number.
func (t *Tab) Create(ctx context.Context, rec engine.Record) (string, error) {
	header, cols, err := t.ensureHeader(ctx)
	if err != nil {
		return "", err
	}
	for field := range rec.Fields {
		if _, ok := cols[field]; !ok {
			return "", engine.Permanent(fmt.Errorf("sheet tab %q has no column %q", t.tab, field))
		}
	}

	row := make([]string, len(header))
	for field, val := range rec.Fields {
		row[cols[field]] = utils.ToString(val)
	}

	updated, err := t.client.AppendValues(ctx, fmt.Sprintf("'%s'!A1", t.tab), [][]string{row})
	if err != nil {
		return "", err
	}
	return rowFromRange(updated), nil
}

// Update writes only the given fields of an existing row, one cell range per
// field.
func (t *Tab) Update(ctx context.Context, id string, rec engine.Record) error {
	rowNum, err := strconv.Atoi(id)
	if err != nil || rowNum < 2 {
		return engine.Permanent(fmt.Errorf("sheet tab %q: invalid row id %q", t.tab, id))
	}
	_, cols, err := t.ensureHeader(ctx)
	if err != nil {
		return err
	}

	fields := make([]string, 0, len(rec.Fields))
	for field := range rec.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	data := make([]ValueRange, 0, len(fields))
	for _, field := range fields {
		col, ok := cols[field]
		if !ok {
			return engine.Permanent(fmt.Errorf("sheet tab %q has no column %q", t.tab, field))
		}
		data = append(data, ValueRange{
			Range:  fmt.Sprintf("'%s'!%s%d", t.tab, colLetter(col+1), rowNum),
			Values: [][]string{{utils.ToString(rec.Fields[field])}},
		})
	}
	if len(data) == 0 {
		return nil
	}
	return t.client.BatchUpdateValues(ctx, data)
}

// rowFromRange extracts the starting row number from an A1 range like
// "'CCP'!A12:F12".
func rowFromRange(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	digits := strings.TrimLeft(rng, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	return digits
}
