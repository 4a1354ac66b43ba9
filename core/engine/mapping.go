package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Direction selects which way a record is translated through a Mapping.
type Direction int

const (
	// LocalToRemote renames local headers to remote column ids.
	LocalToRemote Direction = iota
	// RemoteToLocal renames remote column ids to local headers.
	RemoteToLocal
)

// Side identifies one of the two stores in a sync unit.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Mapping is the declarative field translation between the two stores of a
// sync unit: local header name -> remote column id, plus the role fields the
// engine needs. Role fields are named by their LOCAL header and must appear
// in the translation table.
type Mapping struct {
	// Fields translates local header names to remote column ids.
	Fields map[string]string `json:"fields"`

	// SyncKeyField is the local header holding the business key used to
	// match records across stores.
	SyncKeyField string `json:"syncKeyField"`

	// RemoteIDField is the local header mirroring the remote row id.
	// Optional; when set it must be mapped like any other field.
	RemoteIDField string `json:"remoteIdField,omitempty"`

	// UpdatedAtField and UpdatedByField are the last-write metadata fields
	// driving two-way conflict resolution. Required for two-way mode only.
	UpdatedAtField string `json:"updatedAtField,omitempty"`
	UpdatedByField string `json:"updatedByField,omitempty"`
}

// ParseMapping decodes a mapping from its JSON configuration form and
// validates it for the given mode. Validation failures surface here, at
// configuration load, instead of as per-record MappingErrors mid-run.
func ParseMapping(raw string, mode Mode) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Mapping{}, fmt.Errorf("invalid mapping JSON: %w", err)
	}
	if err := m.Validate(mode); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// Validate checks that every declared role references a mapped field.
func (m Mapping) Validate(mode Mode) error {
	if len(m.Fields) == 0 {
		return &MappingError{Field: "fields", Reason: "translation table is empty"}
	}
	if m.SyncKeyField == "" {
		return &MappingError{Field: "syncKeyField", Reason: "required"}
	}

	roles := map[string]string{
		"syncKeyField": m.SyncKeyField,
	}
	if m.RemoteIDField != "" {
		roles["remoteIdField"] = m.RemoteIDField
	}
	if mode == ModeTwoWay {
		if m.UpdatedAtField == "" {
			return &MappingError{Field: "updatedAtField", Reason: "required for two-way mode"}
		}
		if m.UpdatedByField == "" {
			return &MappingError{Field: "updatedByField", Reason: "required for two-way mode"}
		}
	}
	if m.UpdatedAtField != "" {
		roles["updatedAtField"] = m.UpdatedAtField
	}
	if m.UpdatedByField != "" {
		roles["updatedByField"] = m.UpdatedByField
	}

	for role, field := range roles {
		if _, ok := m.Fields[field]; !ok {
			return &MappingError{Field: field, Reason: fmt.Sprintf("%s is not in the translation table", role)}
		}
	}
	return nil
}

// FieldName returns the field name for the given local header on the given
// side: the header itself locally, the mapped column id remotely.
func (m Mapping) FieldName(local string, side Side) string {
	if side == SideLocal {
		return local
	}
	return m.Fields[local]
}

// KeyOf extracts and normalizes the sync key from a record of the given
// side. Returns "" when the key is absent or blank.
func (m Mapping) KeyOf(rec Record, side Side) string {
	return NormalizeKey(rec.Field(m.FieldName(m.SyncKeyField, side)))
}

// UpdatedAt returns the raw updated-at value of a record on the given side.
func (m Mapping) UpdatedAt(rec Record, side Side) string {
	if m.UpdatedAtField == "" {
		return ""
	}
	return rec.Field(m.FieldName(m.UpdatedAtField, side))
}

// UpdatedBy returns the raw updated-by value of a record on the given side.
func (m Mapping) UpdatedBy(rec Record, side Side) string {
	if m.UpdatedByField == "" {
		return ""
	}
	return rec.Field(m.FieldName(m.UpdatedByField, side))
}

// IsMeta reports whether the local header is a metadata role field. Metadata
// is never propagated across stores: copying it would make the next run see
// the write-back as a fresh edit.
func (m Mapping) IsMeta(local string) bool {
	return local != "" && (local == m.UpdatedAtField || local == m.UpdatedByField)
}

// Translate renames a record's declared fields into the other store's
// vocabulary. Only mapped fields are carried; undeclared fields are dropped.
// A record missing the sync key field entirely is a MappingError.
func (m Mapping) Translate(rec Record, dir Direction) (Record, error) {
	out := Record{ID: rec.ID, Fields: make(map[string]any, len(m.Fields))}

	keySrc := m.SyncKeyField
	if dir == RemoteToLocal {
		keySrc = m.Fields[m.SyncKeyField]
	}
	if !rec.Has(keySrc) {
		return Record{}, &MappingError{Field: keySrc, Reason: "sync key field absent from record"}
	}

	for local, remote := range m.Fields {
		src, dst := local, remote
		if dir == RemoteToLocal {
			src, dst = remote, local
		}
		v, ok := rec.Fields[src]
		if !ok {
			v = ""
		}
		out.Fields[dst] = v
	}
	return out, nil
}

// LocalFields returns the mapped local headers in deterministic order.
func (m Mapping) LocalFields() []string {
	out := make([]string, 0, len(m.Fields))
	for local := range m.Fields {
		out = append(out, local)
	}
	sort.Strings(out)
	return out
}
