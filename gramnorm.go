package gramnorm

import "fmt"

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a run of input bytes. Every node of a
// concrete syntax tree tracks which input positions it covers. A span denotes
// a start position and the position just behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

func (s Span) IsNull() bool {
	return s == Span{}
}

func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

// --- Points -----------------------------------------------------------

// Point is a (row, column) position within a source text. Rows and columns
// are zero-based, columns count bytes, as parser engines in the tree-sitter
// family do.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Before is true if p is located strictly before q.
func (p Point) Before(q Point) bool {
	return p.Row < q.Row || (p.Row == q.Row && p.Column < q.Column)
}

// LineIndex converts byte offsets of a source text into Points.
type LineIndex []int // byte offsets of line starts

// NewLineIndex scans a source text for line breaks.
func NewLineIndex(src string) LineIndex {
	idx := LineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// Point returns the position of byte offset pos.
func (idx LineIndex) Point(pos int) Point {
	lo, hi := 0, len(idx)-1
	for lo < hi { // find last line start <= pos
		mid := (lo + hi + 1) / 2
		if idx[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Point{Row: lo, Column: pos - idx[lo]}
}
