package card

import (
	"sort"
	"strings"
)

type CardList []Card

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// Clone returns an independent copy; nil stays nil.
func (ds CardList) Clone() CardList {
	if ds == nil {
		return nil
	}
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}

func (ds CardList) Contains(c Card) bool {
	for _, cc := range ds {
		if cc == c {
			return true
		}
	}
	return false
}

// SortByRankDesc sorts in place, highest rank first. Equal ranks keep suit
// order so the result is deterministic.
func (ds CardList) SortByRankDesc() {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Rank() != ds[j].Rank() {
			return ds[i].Rank() > ds[j].Rank()
		}
		return ds[i].Suit() < ds[j].Suit()
	})
}

// Codes renders the list with ASCII card codes joined by spaces.
func (ds CardList) Codes() string {
	parts := make([]string, len(ds))
	for i, c := range ds {
		parts[i] = c.Code()
	}
	return strings.Join(parts, " ")
}

func (ds CardList) String() string {
	parts := make([]string, len(ds))
	for i, c := range ds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
