// Package timeline provides time points and interval-set arithmetic for
// describing regions of media time.
package timeline

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Seconds is a point in media or wall time.
type Seconds = float64

// Interval is a half-open range [Start, End). It is empty, and a no-op for
// set operations, when Start >= End.
type Interval[T cmp.Ordered] struct {
	Start T
	End   T
}

// Empty reports whether the interval holds no points.
func (iv Interval[T]) Empty() bool {
	return iv.Start >= iv.End
}

// Contains reports whether p falls inside the interval.
func (iv Interval[T]) Contains(p T) bool {
	return iv.Start <= p && p < iv.End
}

// String formats the interval as [start, end).
func (iv Interval[T]) String() string {
	return fmt.Sprintf("[%v, %v)", iv.Start, iv.End)
}

// IntervalSet is an ordered set of disjoint half-open intervals.
//
// The representation is normalized: intervals are sorted ascending by start,
// never overlap, and touching neighbors are merged into one. The zero value
// is an empty set ready for use.
type IntervalSet[T cmp.Ordered] struct {
	spans []Interval[T]
}

// NewSet builds a set from the given intervals.
func NewSet[T cmp.Ordered](ivs ...Interval[T]) IntervalSet[T] {
	var s IntervalSet[T]
	for _, iv := range ivs {
		s.Add(iv)
	}
	return s
}

// Add inserts an interval, merging it with any overlapping or touching
// neighbors in one pass. Adding an empty interval is a no-op.
func (s *IntervalSet[T]) Add(iv Interval[T]) {
	if iv.Empty() {
		return
	}
	// First span that overlaps or touches iv on the left.
	lo := sort.Search(len(s.spans), func(i int) bool {
		return s.spans[i].End >= iv.Start
	})
	hi := lo
	for hi < len(s.spans) && s.spans[hi].Start <= iv.End {
		hi++
	}
	if lo < hi {
		iv.Start = min(iv.Start, s.spans[lo].Start)
		iv.End = max(iv.End, s.spans[hi-1].End)
	}
	s.spans = slices.Replace(s.spans, lo, hi, iv)
}

// AddSet inserts every interval of another set.
func (s *IntervalSet[T]) AddSet(o IntervalSet[T]) {
	for _, iv := range o.spans {
		s.Add(iv)
	}
}

// Subtract removes an interval, splitting spans that straddle its edges.
// Subtracting an empty interval is a no-op.
func (s *IntervalSet[T]) Subtract(iv Interval[T]) {
	if iv.Empty() || len(s.spans) == 0 {
		return
	}
	lo := sort.Search(len(s.spans), func(i int) bool {
		return s.spans[i].End > iv.Start
	})
	hi := lo
	var keep []Interval[T]
	for hi < len(s.spans) && s.spans[hi].Start < iv.End {
		sp := s.spans[hi]
		if sp.Start < iv.Start {
			keep = append(keep, Interval[T]{Start: sp.Start, End: iv.Start})
		}
		if iv.End < sp.End {
			keep = append(keep, Interval[T]{Start: iv.End, End: sp.End})
		}
		hi++
	}
	s.spans = slices.Replace(s.spans, lo, hi, keep...)
}

// SubtractSet removes every interval of another set.
func (s *IntervalSet[T]) SubtractSet(o IntervalSet[T]) {
	for _, iv := range o.spans {
		s.Subtract(iv)
	}
}

// Contains reports whether the point falls inside the set.
func (s IntervalSet[T]) Contains(p T) bool {
	i := sort.Search(len(s.spans), func(i int) bool {
		return s.spans[i].End > p
	})
	return i < len(s.spans) && s.spans[i].Start <= p
}

// Covers reports whether one stored span wholly contains iv. Any set covers
// an empty interval.
func (s IntervalSet[T]) Covers(iv Interval[T]) bool {
	if iv.Empty() {
		return true
	}
	i := sort.Search(len(s.spans), func(i int) bool {
		return s.spans[i].End > iv.Start
	})
	return i < len(s.spans) && s.spans[i].Start <= iv.Start && iv.End <= s.spans[i].End
}

// Intersects reports whether any part of iv lies inside the set.
func (s IntervalSet[T]) Intersects(iv Interval[T]) bool {
	if iv.Empty() {
		return false
	}
	i := sort.Search(len(s.spans), func(i int) bool {
		return s.spans[i].End > iv.Start
	})
	return i < len(s.spans) && s.spans[i].Start < iv.End
}

// Equal reports whether both sets hold exactly the same points.
func (s IntervalSet[T]) Equal(o IntervalSet[T]) bool {
	return slices.Equal(s.spans, o.spans)
}

// Intersection returns the set of points present in both sets.
func (s IntervalSet[T]) Intersection(o IntervalSet[T]) IntervalSet[T] {
	var out IntervalSet[T]
	i, j := 0, 0
	for i < len(s.spans) && j < len(o.spans) {
		a, b := s.spans[i], o.spans[j]
		iv := Interval[T]{Start: max(a.Start, b.Start), End: min(a.End, b.End)}
		if !iv.Empty() {
			out.spans = append(out.spans, iv)
		}
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return out
}

// All returns the stored intervals in ascending order. The slice is a copy.
func (s IntervalSet[T]) All() []Interval[T] {
	return slices.Clone(s.spans)
}

// Empty reports whether the set holds no points.
func (s IntervalSet[T]) Empty() bool {
	return len(s.spans) == 0
}

// Len returns the number of disjoint intervals stored.
func (s IntervalSet[T]) Len() int {
	return len(s.spans)
}

// Bounds returns the interval from the lowest to the highest stored point.
func (s IntervalSet[T]) Bounds() Interval[T] {
	if len(s.spans) == 0 {
		var zero Interval[T]
		return zero
	}
	return Interval[T]{Start: s.spans[0].Start, End: s.spans[len(s.spans)-1].End}
}

// Clone returns an independent copy of the set.
func (s IntervalSet[T]) Clone() IntervalSet[T] {
	return IntervalSet[T]{spans: slices.Clone(s.spans)}
}

// Clear empties the set.
func (s *IntervalSet[T]) Clear() {
	s.spans = nil
}

// String formats the set as {[a, b), [c, d)}.
func (s IntervalSet[T]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, iv := range s.spans {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(iv.String())
	}
	b.WriteByte('}')
	return b.String()
}
