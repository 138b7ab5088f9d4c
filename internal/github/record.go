package github

// Record is a loosely-keyed JSON record as returned by the API. Entities are
// persisted verbatim, so no typed struct stands between the wire format and
// the file on disk.
type Record map[string]any

// Number returns the platform-assigned per-repository number of an issue,
// pull request or milestone. The second return is false when the record
// carries no usable number.
func (r Record) Number() (int64, bool) {
	switch v := r["number"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// MergeByNumber folds records into a number-keyed map. Records seen later
// overwrite earlier entries with the same number; records without a number
// are dropped.
func MergeByNumber(dst map[int64]Record, records []Record) {
	for _, rec := range records {
		n, ok := rec.Number()
		if !ok {
			continue
		}
		dst[n] = rec
	}
}

// WithNested returns a copy of the record with a nested collection attached
// under the given key. The original record is not mutated.
func (r Record) WithNested(key string, items []Record) Record {
	merged := make(Record, len(r)+1)
	for k, v := range r {
		merged[k] = v
	}
	merged[key] = items
	return merged
}
