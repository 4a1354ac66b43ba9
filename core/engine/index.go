package engine

// DedupeIndex is a set of normalized sync keys rebuilt each run from the
// remote side's existing rows. Append mode consults it before emitting a
// create, and creates within the same batch are added so in-batch duplicates
// cannot slip through. It also counts repeated keys: duplicates on one side
// are a data-integrity problem to report, never to merge.
type DedupeIndex struct {
	counts map[string]int
	order  []string
}

// NewDedupeIndex builds an index over the given records' sync keys.
// Records with blank keys are ignored.
func NewDedupeIndex(m Mapping, side Side, records []Record) *DedupeIndex {
	idx := &DedupeIndex{counts: make(map[string]int, len(records))}
	for _, rec := range records {
		if key := m.KeyOf(rec, side); key != "" {
			idx.Add(key)
		}
	}
	return idx
}

// Has reports whether the normalized key is already present.
func (d *DedupeIndex) Has(key string) bool {
	return d.counts[key] > 0
}

// Add marks a normalized key as seen.
func (d *DedupeIndex) Add(key string) {
	if d.counts[key] == 0 {
		d.order = append(d.order, key)
	}
	d.counts[key]++
}

// Len returns the number of distinct keys.
func (d *DedupeIndex) Len() int { return len(d.counts) }

// Duplicates reports the keys seen more than once, in first-seen order.
func (d *DedupeIndex) Duplicates(side Side) []DuplicateKey {
	var dups []DuplicateKey
	for _, key := range d.order {
		if n := d.counts[key]; n > 1 {
			dups = append(dups, DuplicateKey{Side: side, Key: key, Count: n})
		}
	}
	return dups
}

// keyedIndex matches records by normalized sync key, first occurrence wins.
// Later occurrences of the same key are reported as duplicates.
func keyedIndex(m Mapping, side Side, records []Record) (map[string]Record, []DuplicateKey) {
	index := make(map[string]Record, len(records))
	idx := &DedupeIndex{counts: make(map[string]int, len(records))}

	for _, rec := range records {
		key := m.KeyOf(rec, side)
		if key == "" {
			continue
		}
		idx.Add(key)
		if idx.counts[key] == 1 {
			index[key] = rec
		}
	}
	return index, idx.Duplicates(side)
}
