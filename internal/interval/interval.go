package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). An interval with
// Start >= End is empty and ignored by every operation.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Empty() bool {
	return !iv.Start.Before(iv.End)
}

// Overlaps reports open overlap: the two ranges share at least one instant.
// Touching intervals (end == start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Contains reports whether other lies fully inside iv.
func (iv Interval) Contains(other Interval) bool {
	return !iv.Start.After(other.Start) && !iv.End.Before(other.End)
}

// Merge drops empty intervals and unions the rest into a sorted, pairwise
// disjoint, minimal set. Touching intervals collapse: 09:00-10:00 and
// 10:00-11:00 merge into 09:00-11:00.
func Merge(intervals []Interval) []Interval {
	arr := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			arr = append(arr, iv)
		}
	}
	sort.Slice(arr, func(i, j int) bool { return arr[i].Start.Before(arr[j].Start) })

	out := make([]Interval, 0, len(arr))
	for _, iv := range arr {
		if len(out) == 0 {
			out = append(out, iv)
			continue
		}
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) { // overlap or touch
			if iv.End.After(last.End) {
				last.End = iv.End
			}
		} else {
			out = append(out, iv)
		}
	}
	return out
}

// Subtract removes every cutter from every base interval, splitting bases as
// needed (a cutter strictly inside a base leaves two survivors). Cutters are
// applied as given, without being merged first; the result is identical
// either way. The returned set is merged.
func Subtract(base, cutters []Interval) []Interval {
	var result []Interval
	for _, b := range base {
		if b.Empty() {
			continue
		}
		segments := []Interval{b}
		for _, c := range cutters {
			if c.Empty() {
				continue
			}
			var next []Interval
			for _, s := range segments {
				if !s.Overlaps(c) {
					next = append(next, s)
					continue
				}
				if s.Start.Before(c.Start) {
					next = append(next, Interval{Start: s.Start, End: c.Start})
				}
				if c.End.Before(s.End) {
					next = append(next, Interval{Start: c.End, End: s.End})
				}
			}
			segments = next
		}
		result = append(result, segments...)
	}
	return Merge(result)
}
