// Package ticks plans the labelled points of a numeric scale slider.
//
// A scale may be authored with anything from two to a thousand integer
// points. PlanTicks reduces the domain to a short, evenly stepped label set
// that always keeps both extremes.
package ticks

import (
	"math"
	"sort"
)

const (
	DefaultDesiredCount = 7

	maxRenice    = 5
	reniceFactor = 1.1
	// hardCapFactor bounds the output at hardCapFactor*desired ticks.
	hardCapFactor = 2
)

// PlanTicks returns a sorted, deduplicated tick set for the scale [min, max].
// Small explicit value sets (at most desired distinct values) are returned
// verbatim. desired is a target; the result never exceeds 2*desired ticks.
func PlanTicks(min, max int, sourceValues []int, desired int) []int {
	if max <= min {
		return []int{min}
	}
	if desired < 2 {
		desired = 2
	}

	if src := uniqueSorted(sourceValues); len(src) > 0 && len(src) <= desired {
		return src
	}

	// The span is taken in float64: max-min overflows int for wide bounds.
	raw := (float64(max) - float64(min)) / float64(desired-1)
	if !finitePositive(raw) {
		return []int{min, max}
	}
	limit := hardCapFactor * desired
	step := niceStep(raw)
	if !finitePositive(step) {
		return []int{min, max}
	}
	out := build(min, max, step, limit)
	for i := 0; i < maxRenice && len(out) > desired; i++ {
		raw *= reniceFactor
		if step = niceStep(raw); !finitePositive(step) {
			break
		}
		out = build(min, max, step, limit)
	}

	if len(out) > limit {
		out = thin(out, limit)
	}
	return out
}

// niceStep snaps a raw step to 1, 2, 5 or 10 times a power of ten.
func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	f := raw / base

	var snapped float64
	switch {
	case f < 1.5:
		snapped = 1
	case f < 3:
		snapped = 2
	case f < 7:
		snapped = 5
	default:
		snapped = 10
	}
	return snapped * base
}

func finitePositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// build steps from min towards max, emitting at most limit interior points.
func build(min, max int, step float64, limit int) []int {
	// Integer ticks cannot be closer than one unit apart.
	if step < 1 {
		step = 1
	}
	out := []int{min}
	lo, hi := float64(min), float64(max)
	for i := 1; i <= limit; i++ {
		v := lo + float64(i)*step
		if !(v < hi) {
			break
		}
		out = append(out, int(math.Round(v)))
	}
	out = append(out, max)
	return uniqueSorted(out)
}

// thin keeps limit ticks spread across sorted, always including both ends.
func thin(sorted []int, limit int) []int {
	n := len(sorted)
	out := make([]int, 0, limit)
	for i := 0; i < limit; i++ {
		idx := int(math.Round(float64(i) * float64(n-1) / float64(limit-1)))
		out = append(out, sorted[idx])
	}
	return uniqueSorted(out)
}

func uniqueSorted(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// SnapToNearest returns the candidate closest to n. On a tie the first
// candidate in iteration order wins, which is the smaller one for ascending
// input. With no candidates n is rounded to the nearest integer.
func SnapToNearest(n float64, candidates []int) int {
	if len(candidates) == 0 {
		return int(math.Round(n))
	}
	best := candidates[0]
	bestDist := math.Abs(n - float64(best))
	for _, c := range candidates[1:] {
		if d := math.Abs(n - float64(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
