package tokens

import "sort"

// Move relocates a surviving row.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Changes turns one row list into the next. Deletes index the old list,
// Inserts and Updates index the new one.
type Changes struct {
	Deletes []int  `json:"deletes"`
	Inserts []int  `json:"inserts"`
	Moves   []Move `json:"moves"`
	Updates []int  `json:"updates"`
}

// IsEmpty reports whether nothing changed.
func (c Changes) IsEmpty() bool {
	return len(c.Deletes) == 0 && len(c.Inserts) == 0 && len(c.Moves) == 0 && len(c.Updates) == 0
}

// Diff compares two row lists by row key. Surviving rows that keep their
// relative order (the longest increasing run of old positions) are not
// reported as moves; every other survivor is.
func Diff(old, next []Row) Changes {
	oldIdx := make(map[string]int, len(old))
	for i, r := range old {
		oldIdx[r.Key()] = i
	}
	newKeys := make(map[string]struct{}, len(next))
	for _, r := range next {
		newKeys[r.Key()] = struct{}{}
	}

	c := Changes{
		Deletes: []int{},
		Inserts: []int{},
		Moves:   []Move{},
		Updates: []int{},
	}
	for i, r := range old {
		if _, ok := newKeys[r.Key()]; !ok {
			c.Deletes = append(c.Deletes, i)
		}
	}

	// Old positions of survivors, in new order.
	var survivors []Move
	for j, r := range next {
		i, ok := oldIdx[r.Key()]
		if !ok {
			c.Inserts = append(c.Inserts, j)
			continue
		}
		survivors = append(survivors, Move{From: i, To: j})
		if !old[i].sameContent(r) {
			c.Updates = append(c.Updates, j)
		}
	}

	stable := longestIncreasing(survivors)
	for k, m := range survivors {
		if !stable[k] {
			c.Moves = append(c.Moves, m)
		}
	}
	return c
}

// longestIncreasing marks the members of one longest subsequence of
// survivors whose From values strictly increase (patience sorting).
func longestIncreasing(s []Move) []bool {
	tails := make([]int, 0, len(s)) // indices into s
	prev := make([]int, len(s))
	for k := range s {
		pos := sort.Search(len(tails), func(i int) bool {
			return s[tails[i]].From >= s[k].From
		})
		if pos > 0 {
			prev[k] = tails[pos-1]
		} else {
			prev[k] = -1
		}
		if pos == len(tails) {
			tails = append(tails, k)
		} else {
			tails[pos] = k
		}
	}

	marked := make([]bool, len(s))
	if len(tails) == 0 {
		return marked
	}
	for k := tails[len(tails)-1]; k >= 0; k = prev[k] {
		marked[k] = true
	}
	return marked
}

// DeletionIndexPaths returns the rows to delete when the token at index is
// removed: the token row, preceded by its server header when the token is
// the only row in its block. Returns nil if index is not a token row.
func DeletionIndexPaths(rows []Row, index int) []int {
	if index < 0 || index >= len(rows) || rows[index].IsHeader() {
		return nil
	}
	prevIsHeader := index > 0 && rows[index-1].IsHeader()
	nextIsHeader := index+1 == len(rows) || rows[index+1].IsHeader()
	if prevIsHeader && nextIsHeader {
		return []int{index - 1, index}
	}
	return []int{index}
}
