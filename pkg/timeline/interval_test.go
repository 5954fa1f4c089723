package timeline

import (
	"testing"
)

func ivs(pairs ...Seconds) []Interval[Seconds] {
	out := make([]Interval[Seconds], 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Interval[Seconds]{Start: pairs[i], End: pairs[i+1]})
	}
	return out
}

func checkSpans(t *testing.T, s IntervalSet[Seconds], want []Interval[Seconds]) {
	t.Helper()
	got := s.All()
	if len(got) != len(want) {
		t.Fatalf("expected %d intervals, got %v", len(want), s)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interval %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestIntervalEmpty(t *testing.T) {
	tests := []struct {
		name  string
		iv    Interval[Seconds]
		empty bool
	}{
		{"normal", Interval[Seconds]{Start: 1, End: 2}, false},
		{"zero length", Interval[Seconds]{Start: 1, End: 1}, true},
		{"inverted", Interval[Seconds]{Start: 2, End: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.iv.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestAddMergesOverlapping(t *testing.T) {
	var s IntervalSet[Seconds]
	s.Add(Interval[Seconds]{Start: 0, End: 2})
	s.Add(Interval[Seconds]{Start: 5, End: 7})
	s.Add(Interval[Seconds]{Start: 1, End: 6})
	checkSpans(t, s, ivs(0, 7))
}

func TestAddMergesTouching(t *testing.T) {
	var s IntervalSet[Seconds]
	s.Add(Interval[Seconds]{Start: 0, End: 1})
	s.Add(Interval[Seconds]{Start: 1, End: 2})
	s.Add(Interval[Seconds]{Start: 2, End: 3})
	// Touching boundaries merge into one stored interval, so repeated
	// adjacent insertions never fragment the set.
	checkSpans(t, s, ivs(0, 3))
}

func TestAddKeepsDisjoint(t *testing.T) {
	var s IntervalSet[Seconds]
	s.Add(Interval[Seconds]{Start: 4, End: 5})
	s.Add(Interval[Seconds]{Start: 0, End: 1})
	s.Add(Interval[Seconds]{Start: 2, End: 3})
	checkSpans(t, s, ivs(0, 1, 2, 3, 4, 5))
}

func TestAddEmptyIsNoop(t *testing.T) {
	var s IntervalSet[Seconds]
	s.Add(Interval[Seconds]{Start: 3, End: 3})
	s.Add(Interval[Seconds]{Start: 5, End: 2})
	if !s.Empty() {
		t.Errorf("expected empty set, got %v", s)
	}
}

func TestSubtractSplits(t *testing.T) {
	var s IntervalSet[Seconds]
	s.Add(Interval[Seconds]{Start: 0, End: 10})
	s.Subtract(Interval[Seconds]{Start: 3, End: 6})
	checkSpans(t, s, ivs(0, 3, 6, 10))
}

func TestSubtractEdges(t *testing.T) {
	tests := []struct {
		name string
		sub  Interval[Seconds]
		want []Interval[Seconds]
	}{
		{"left edge", Interval[Seconds]{Start: 0, End: 2}, ivs(2, 10)},
		{"right edge", Interval[Seconds]{Start: 8, End: 10}, ivs(0, 8)},
		{"whole", Interval[Seconds]{Start: 0, End: 10}, nil},
		{"superset", Interval[Seconds]{Start: -5, End: 15}, nil},
		{"outside", Interval[Seconds]{Start: 20, End: 30}, ivs(0, 10)},
		{"empty", Interval[Seconds]{Start: 5, End: 5}, ivs(0, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(Interval[Seconds]{Start: 0, End: 10})
			s.Subtract(tt.sub)
			checkSpans(t, s, tt.want)
		})
	}
}

func TestSubtractAcrossSpans(t *testing.T) {
	s := NewSet(ivs(0, 2, 4, 6, 8, 10)...)
	s.Subtract(Interval[Seconds]{Start: 1, End: 9})
	checkSpans(t, s, ivs(0, 1, 9, 10))
}

func TestAddThenSubtractRoundTrip(t *testing.T) {
	s := NewSet(ivs(0, 2, 6, 8)...)
	original := s.Clone()
	s.Add(Interval[Seconds]{Start: 3, End: 5})
	s.Subtract(Interval[Seconds]{Start: 3, End: 5})
	if !s.Equal(original) {
		t.Errorf("round trip changed the set: %v != %v", s, original)
	}
}

func TestContains(t *testing.T) {
	s := NewSet(ivs(0, 2, 5, 7)...)
	tests := []struct {
		p    Seconds
		want bool
	}{
		{-1, false},
		{0, true},
		{1.5, true},
		{2, false}, // half-open
		{3, false},
		{5, true},
		{6.999, true},
		{7, false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCovers(t *testing.T) {
	s := NewSet(ivs(0, 5, 10, 20)...)
	tests := []struct {
		iv   Interval[Seconds]
		want bool
	}{
		{Interval[Seconds]{Start: 0, End: 5}, true},
		{Interval[Seconds]{Start: 1, End: 4}, true},
		{Interval[Seconds]{Start: 0, End: 6}, false},
		{Interval[Seconds]{Start: 4, End: 11}, false},
		{Interval[Seconds]{Start: 10, End: 20}, true},
		{Interval[Seconds]{Start: 25, End: 30}, false},
		// Any set covers an empty interval.
		{Interval[Seconds]{Start: 7, End: 7}, true},
	}
	for _, tt := range tests {
		if got := s.Covers(tt.iv); got != tt.want {
			t.Errorf("Covers(%v) = %v, want %v", tt.iv, got, tt.want)
		}
	}
}

func TestEmptySetContainsAndCoversNothing(t *testing.T) {
	var s IntervalSet[Seconds]
	if s.Contains(0) {
		t.Error("empty set should contain nothing")
	}
	if s.Covers(Interval[Seconds]{Start: 0, End: 1}) {
		t.Error("empty set should cover nothing")
	}
	if !s.Covers(Interval[Seconds]{Start: 1, End: 1}) {
		t.Error("empty set should cover the empty interval")
	}
}

func TestIntersects(t *testing.T) {
	s := NewSet(ivs(2, 4, 6, 8)...)
	tests := []struct {
		iv   Interval[Seconds]
		want bool
	}{
		{Interval[Seconds]{Start: 0, End: 2}, false}, // touching only
		{Interval[Seconds]{Start: 0, End: 3}, true},
		{Interval[Seconds]{Start: 4, End: 6}, false}, // in the gap
		{Interval[Seconds]{Start: 3, End: 7}, true},
		{Interval[Seconds]{Start: 8, End: 9}, false},
		{Interval[Seconds]{Start: 3, End: 3}, false}, // empty
	}
	for _, tt := range tests {
		if got := s.Intersects(tt.iv); got != tt.want {
			t.Errorf("Intersects(%v) = %v, want %v", tt.iv, got, tt.want)
		}
	}
}

func TestIntersection(t *testing.T) {
	a := NewSet(ivs(0, 5, 10, 15)...)
	b := NewSet(ivs(3, 12)...)
	got := a.Intersection(b)
	checkSpans(t, got, ivs(3, 5, 10, 12))
}

func TestSetAlgebraAgainstModel(t *testing.T) {
	// Drive the set with a fixed operation sequence and compare membership
	// against a brute-force model over a discrete grid.
	type op struct {
		add bool
		iv  Interval[Seconds]
	}
	ops := []op{
		{true, Interval[Seconds]{Start: 0, End: 4}},
		{true, Interval[Seconds]{Start: 10, End: 14}},
		{false, Interval[Seconds]{Start: 2, End: 12}},
		{true, Interval[Seconds]{Start: 6, End: 8}},
		{true, Interval[Seconds]{Start: 8, End: 10}},
		{false, Interval[Seconds]{Start: 7, End: 7}},
		{true, Interval[Seconds]{Start: 3, End: 6}},
		{false, Interval[Seconds]{Start: 0, End: 1}},
	}

	var s IntervalSet[Seconds]
	model := make(map[int]bool)
	for _, o := range ops {
		if o.add {
			s.Add(o.iv)
		} else {
			s.Subtract(o.iv)
		}
		for g := 0; g < 160; g++ {
			p := Seconds(g) / 10
			if o.add && o.iv.Contains(p) {
				model[g] = true
			}
			if !o.add && o.iv.Contains(p) {
				model[g] = false
			}
		}
	}

	for g := 0; g < 160; g++ {
		p := Seconds(g) / 10
		if got := s.Contains(p); got != model[g] {
			t.Errorf("Contains(%v) = %v, model says %v (set %v)", p, got, model[g], s)
		}
	}

	// The representation must stay normalized throughout.
	spans := s.All()
	for i := range spans {
		if spans[i].Empty() {
			t.Errorf("stored empty interval %v", spans[i])
		}
		if i > 0 && spans[i-1].End >= spans[i].Start {
			t.Errorf("unmerged or overlapping neighbors: %v, %v", spans[i-1], spans[i])
		}
	}
}

func TestBounds(t *testing.T) {
	s := NewSet(ivs(3, 5, 9, 11)...)
	if got := s.Bounds(); got != (Interval[Seconds]{Start: 3, End: 11}) {
		t.Errorf("Bounds() = %v", got)
	}
	var empty IntervalSet[Seconds]
	if got := empty.Bounds(); !got.Empty() {
		t.Errorf("empty Bounds() = %v", got)
	}
}
