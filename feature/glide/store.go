package glide

import (
	"context"
	"fmt"

	"tablesync/core/engine"
	"tablesync/core/utils"
)

// Table exposes one Glide big table as an engine.RecordStore. Row ids are
// Glide's $rowID values.
type Table struct {
	client *Client
	table  string
}

// NewTable binds a client to a table name.
func NewTable(client *Client, tableName string) *Table {
	return &Table{client: client, table: tableName}
}

func (t *Table) Name() string {
	return "glide:" + t.table
}

// ReadAll walks every page of the table. The filter is ignored: queryTables
// has no server-side filtering, so delta windows are applied by the caller.
func (t *Table) ReadAll(ctx context.Context, _ string) ([]engine.Record, error) {
	var all []engine.Record
	token := ""
	for {
		recs, next, err := t.ReadPage(ctx, token)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

func (t *Table) ReadPage(ctx context.Context, token string) ([]engine.Record, string, error) {
	rows, next, err := t.client.QueryPage(ctx, t.table, token)
	if err != nil {
		return nil, "", err
	}

	recs := make([]engine.Record, 0, len(rows))
	for _, row := range rows {
		rec := engine.Record{Fields: make(map[string]any, len(row))}
		for col, val := range row {
			switch col {
			case "$rowID", "rowID":
				rec.ID = utils.ToString(val)
			default:
				rec.Fields[col] = val
			}
		}
		recs = append(recs, rec)
	}
	return recs, next, nil
}

func (t *Table) Create(ctx context.Context, rec engine.Record) (string, error) {
	results, err := t.client.Mutate(ctx, []Mutation{{
		Kind:         "add-row-to-table",
		TableName:    t.table,
		ColumnValues: columnValues(rec),
	}})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].RowID, nil
}

func (t *Table) Update(ctx context.Context, id string, rec engine.Record) error {
	if id == "" {
		return engine.Permanent(fmt.Errorf("glide: update on table %s without row id", t.table))
	}
	_, err := t.client.Mutate(ctx, []Mutation{{
		Kind:         "set-columns-in-row",
		TableName:    t.table,
		RowID:        id,
		ColumnValues: columnValues(rec),
	}})
	return err
}

func columnValues(rec engine.Record) map[string]string {
	vals := make(map[string]string, len(rec.Fields))
	for col, val := range rec.Fields {
		vals[col] = utils.ToString(val)
	}
	return vals
}
