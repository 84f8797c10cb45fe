package rowid

import (
	"strconv"
	"strings"
)

// KeyValue is one column's contribution to a composite row key. Exactly
// one of the fields is meaningful, selected by which constructor built
// the KeyValue.
type KeyValue struct {
	isString bool
	str      string
	num      int64
}

// StringKey wraps a string-typed column value.
func StringKey(s string) KeyValue { return KeyValue{isString: true, str: s} }

// IntKey wraps an integer-typed column value.
func IntKey(n int64) KeyValue { return KeyValue{num: n} }

func (k KeyValue) encode(caseInsensitive bool) string {
	if k.isString {
		s := k.str
		if caseInsensitive {
			s = strings.ToLower(s)
		}
		// length-prefix so "ab","c" and "a","bc" never collide once joined.
		return strconv.Itoa(len(s)) + ":" + s
	}
	return "#" + strconv.FormatInt(k.num, 10)
}

// DataHashed indexes the rows of one dataset slot by an ordered tuple of
// key-column values, so a container can resolve "the row where these
// columns equal these values" in O(1) instead of scanning every row.
// Configured per column whether string comparison ignores case.
type DataHashed struct {
	caseInsensitive []bool
	byKey           map[string]rowIDSet
	keyOf           map[RowID]string
}

// rowIDSet is a small unordered set of RowIDs sharing one composite key.
// Most keys map to exactly one row; a set only grows past one row during
// a transient duplicate-key state the caller (container / highlight's
// key-uniqueness check) is responsible for flagging.
type rowIDSet map[RowID]struct{}

// NewDataHashed builds an index over len(caseInsensitive) key columns.
// caseInsensitive[i] selects whether column i compares case-insensitively
// (meaningful only for string-typed columns; ignored for int columns).
func NewDataHashed(caseInsensitive []bool) *DataHashed {
	return &DataHashed{
		caseInsensitive: caseInsensitive,
		byKey:           make(map[string]rowIDSet),
		keyOf:           make(map[RowID]string),
	}
}

func (h *DataHashed) encode(values []KeyValue) string {
	var b strings.Builder
	for i, v := range values {
		ci := i < len(h.caseInsensitive) && h.caseInsensitive[i]
		b.WriteString(v.encode(ci))
		b.WriteByte('\x00')
	}
	return b.String()
}

// Put indexes id under the composite key values, replacing any previous
// key id was indexed under. len(values) must equal the column count the
// index was constructed with.
func (h *DataHashed) Put(id RowID, values []KeyValue) {
	h.Remove(id)
	key := h.encode(values)
	set, ok := h.byKey[key]
	if !ok {
		set = make(rowIDSet, 1)
		h.byKey[key] = set
	}
	set[id] = struct{}{}
	h.keyOf[id] = key
}

// Remove drops id from the index. A no-op if id was never indexed.
func (h *DataHashed) Remove(id RowID) {
	key, ok := h.keyOf[id]
	if !ok {
		return
	}
	delete(h.keyOf, id)
	set := h.byKey[key]
	delete(set, id)
	if len(set) == 0 {
		delete(h.byKey, key)
	}
}

// Lookup returns every RowID currently indexed under values. Ordinarily
// at most one; more than one means a key-uniqueness violation a caller
// should surface (see highlight's automatic key check).
func (h *DataHashed) Lookup(values []KeyValue) []RowID {
	set := h.byKey[h.encode(values)]
	if len(set) == 0 {
		return nil
	}
	out := make([]RowID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// LookupOne returns the single RowID indexed under values, and whether
// exactly one was found. Returns false both when no row matches and when
// more than one does.
func (h *DataHashed) LookupOne(values []KeyValue) (RowID, bool) {
	ids := h.Lookup(values)
	if len(ids) != 1 {
		return InvalidRowID, false
	}
	return ids[0], true
}

// Len reports how many RowIDs are currently indexed.
func (h *DataHashed) Len() int { return len(h.keyOf) }
