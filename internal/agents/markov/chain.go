package markov

import (
	"sort"
	"strings"
)

const stateSeparator = ","

// chain is an order-N transition table over comparable symbols. Counts only grow.
type chain[S comparable] struct {
	order  int
	counts map[string]map[S]int
	format func(S) string
	parse  func(string) (S, error)
	less   func(a, b S) bool
}

func newChain[S comparable](order int, format func(S) string, parse func(string) (S, error), less func(a, b S) bool) *chain[S] {
	return &chain[S]{
		order:  order,
		counts: make(map[string]map[S]int),
		format: format,
		parse:  parse,
		less:   less,
	}
}

// stateKey joins the last `order` symbols; ok is false for short states
func (c *chain[S]) stateKey(state []S) (string, bool) {
	if len(state) < c.order {
		return "", false
	}
	state = state[len(state)-c.order:]
	parts := make([]string, len(state))
	for i, s := range state {
		parts[i] = c.format(s)
	}
	return strings.Join(parts, stateSeparator), true
}

func (c *chain[S]) train(seq []S) {
	for i := 0; i+c.order < len(seq); i++ {
		key, _ := c.stateKey(seq[i : i+c.order])
		row, ok := c.counts[key]
		if !ok {
			row = make(map[S]int)
			c.counts[key] = row
		}
		row[seq[i+c.order]]++
	}
}

func (c *chain[S]) row(state []S) map[S]int {
	key, ok := c.stateKey(state)
	if !ok {
		return nil
	}
	return c.counts[key]
}

// candidates returns the recorded successors of state in a fixed order so that
// seeded sampling is reproducible regardless of map iteration
func (c *chain[S]) candidates(state []S) ([]S, []int) {
	row := c.row(state)
	if len(row) == 0 {
		return nil, nil
	}
	symbols := make([]S, 0, len(row))
	for s := range row {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return c.less(symbols[i], symbols[j]) })
	counts := make([]int, len(symbols))
	for i, s := range symbols {
		counts[i] = row[s]
	}
	return symbols, counts
}

func (c *chain[S]) copyRow(state []S) map[S]int {
	row := c.row(state)
	out := make(map[S]int, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func (c *chain[S]) transitionCount() int {
	total := 0
	for _, row := range c.counts {
		total += len(row)
	}
	return total
}

func (c *chain[S]) snapshot() map[string]map[string]int {
	out := make(map[string]map[string]int, len(c.counts))
	for state, row := range c.counts {
		flat := make(map[string]int, len(row))
		for sym, n := range row {
			flat[c.format(sym)] = n
		}
		out[state] = flat
	}
	return out
}

// restore merges a flat snapshot, skipping malformed entries. It returns the
// number of entries that could not be parsed.
func (c *chain[S]) restore(flat map[string]map[string]int) int {
	skipped := 0
	for state, row := range flat {
		parts := strings.Split(state, stateSeparator)
		if len(parts) != c.order {
			skipped += len(row)
			continue
		}
		stateSyms := make([]S, 0, len(parts))
		valid := true
		for _, p := range parts {
			sym, err := c.parse(strings.TrimSpace(p))
			if err != nil {
				valid = false
				break
			}
			stateSyms = append(stateSyms, sym)
		}
		if !valid {
			skipped += len(row)
			continue
		}
		key, _ := c.stateKey(stateSyms)
		for symText, n := range row {
			sym, err := c.parse(symText)
			if err != nil || n <= 0 {
				skipped++
				continue
			}
			if c.counts[key] == nil {
				c.counts[key] = make(map[S]int)
			}
			c.counts[key][sym] += n
		}
	}
	return skipped
}
