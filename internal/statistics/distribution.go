package statistics

import "sort"

// Share is one slice of a distribution.
type Share struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// distribution orders counts by count descending, then key ascending, and
// assigns percentages at one decimal place with the largest remainder
// method so they add up to exactly 100.0.
func distribution(counts map[string]int) []Share {
	shares := make([]Share, 0, len(counts))
	total := 0
	for k, n := range counts {
		shares = append(shares, Share{Key: k, Count: n})
		total += n
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Key < shares[j].Key
	})
	if total == 0 {
		return shares
	}

	const units = 1000 // tenths of a percent
	tenths := make([]int, len(shares))
	remainders := make([]int, len(shares))
	assigned := 0
	for i, s := range shares {
		tenths[i] = s.Count * units / total
		remainders[i] = s.Count * units % total
		assigned += tenths[i]
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; assigned < units; k++ {
		tenths[order[k%len(order)]]++
		assigned++
	}

	for i := range shares {
		shares[i].Percentage = float64(tenths[i]) / 10
	}
	return shares
}
