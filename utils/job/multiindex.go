package job

import (
	"strconv"
	"strings"
)

// DefaultIndexSep is the separator used between MultiIndex parts when no
// explicit separator is given.
const DefaultIndexSep = "."

// IndexPart is one element of a MultiIndex: either a plain integer or a
// (lo, hi) range. Ranges are a supplement over the original engine, which
// only ever stored plain ints in practice; rendering them as "lo-hi" is
// documented in SPEC_FULL.md.
type IndexPart struct {
	isRange bool
	value   int
	lo, hi  int
}

// Int builds a plain integer index part.
func Int(v int) IndexPart {
	return IndexPart{value: v}
}

// Range builds a (lo, hi) range index part, rendered as "lo-hi".
func Range(lo, hi int) IndexPart {
	return IndexPart{isRange: true, lo: lo, hi: hi}
}

func (p IndexPart) String() string {
	if p.isRange {
		return strconv.Itoa(p.lo) + "-" + strconv.Itoa(p.hi)
	}
	return strconv.Itoa(p.value)
}

// MultiIndex is a tuple of ints and ranges with custom-separator string
// rendering, used as a Job's index when a job is one member of an indexed
// batch keyed by more than a single integer.
type MultiIndex struct {
	parts []IndexPart
	sep   string
}

// NewMultiIndex builds a MultiIndex from parts, using DefaultIndexSep.
func NewMultiIndex(parts ...IndexPart) MultiIndex {
	return MultiIndex{parts: parts, sep: DefaultIndexSep}
}

// WithSep returns a copy of m using sep as its separator.
func (m MultiIndex) WithSep(sep string) MultiIndex {
	m.sep = sep
	return m
}

// Parts returns the index's parts, in order.
func (m MultiIndex) Parts() []IndexPart {
	return m.parts
}

func (m MultiIndex) String() string {
	sep := m.sep
	if sep == "" {
		sep = DefaultIndexSep
	}
	parts := make([]string, len(m.parts))
	for i, p := range m.parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}

// indexString renders a Job's index (nil, int, or MultiIndex) the way
// Job.fullname does: "" for nil, else the index's string form.
func indexString(index any) string {
	switch v := index.(type) {
	case nil:
		return ""
	case int:
		return strconv.Itoa(v)
	case MultiIndex:
		return v.String()
	default:
		return ""
	}
}
