package ranking

import (
	"sort"
)

// Company is a ranked constituent as served to clients.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Candidate is a constituent with its market cap, nil when the fetch failed.
type Candidate struct {
	Company
	MarketCap *int64 `json:"market_cap"`
}

// Dedupe collapses repeated tickers. The first occurrence keeps its
// position; the last occurrence's name wins.
func Dedupe(in []Company) []Company {
	pos := make(map[string]int, len(in))
	out := make([]Company, 0, len(in))
	for _, c := range in {
		if i, ok := pos[c.Ticker]; ok {
			out[i].Name = c.Name
			continue
		}
		pos[c.Ticker] = len(out)
		out = append(out, c)
	}
	return out
}

// Top drops candidates without a market cap, orders the rest by market cap
// descending and keeps the first n. Equal caps keep their input order.
// n <= 0 keeps everything.
func Top(cands []Candidate, n int) []Company {
	known := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.MarketCap != nil {
			known = append(known, c)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		return *known[i].MarketCap > *known[j].MarketCap
	})
	if n > 0 && len(known) > n {
		known = known[:n]
	}

	out := make([]Company, 0, len(known))
	for _, c := range known {
		out = append(out, c.Company)
	}
	return out
}
