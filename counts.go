package main

import (
	"fmt"
	"slices"
	"strings"
)

// Counts maps an observed classical register value to its number of
// occurrences. Keys list bit 0 first.
type Counts map[string]int

// Total returns the number of shots recorded.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// MostFrequent returns the outcome with the highest count. Ties go to the
// lexicographically smallest key. It returns "" for empty counts.
func (c Counts) MostFrequent() string {
	best, bestN := "", -1
	for _, k := range c.Keys() {
		if c[k] > bestN {
			best, bestN = k, c[k]
		}
	}
	return best
}

// Keys returns the observed outcomes in sorted order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Outcomes returns every nbits-wide register value in order, observed or not.
func Outcomes(nbits int) []string {
	out := make([]string, 0, 1<<nbits)
	for v := range 1 << nbits {
		var sb strings.Builder
		for b := range nbits {
			if v&(1<<(nbits-1-b)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		out = append(out, sb.String())
	}
	return out
}

// Probability returns the observed frequency of an outcome.
func (c Counts) Probability(outcome string) float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c[outcome]) / float64(total)
}

func (c Counts) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c.Keys() {
		parts = append(parts, fmt.Sprintf("%s:%d", k, c[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
