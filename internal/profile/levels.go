package profile

import (
	"slices"

	"github.com/arcade-profiles/internal/domain"
)

// NormalizeLevels coerces loosely typed level numbers into a sorted set of
// levels >= 1.
func NormalizeLevels(values []any) []int {
	levels := make([]int, 0, len(values))
	for _, v := range values {
		level := domain.CoerceInt(v)
		if level < 1 {
			continue
		}
		levels = insertLevel(levels, int(level))
	}
	return levels
}

// insertLevel adds level to a sorted set, keeping it sorted.
func insertLevel(levels []int, level int) []int {
	i, found := slices.BinarySearch(levels, level)
	if found {
		return levels
	}
	return slices.Insert(slices.Clip(levels), i, level)
}

// favoriteLevel picks the most completed level, preferring the lower one on ties.
func favoriteLevel(completions map[int]int64) int {
	best, count := 1, int64(0)
	for level, n := range completions {
		if n > count || (n == count && level < best) {
			best, count = level, n
		}
	}
	return best
}

// sortedLevels returns levels as a sorted set, dropping values below 1.
func sortedLevels(levels []int) []int {
	out := make([]int, 0, len(levels))
	for _, level := range levels {
		if level >= 1 {
			out = insertLevel(out, level)
		}
	}
	return out
}
