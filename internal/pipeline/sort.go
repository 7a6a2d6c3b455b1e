package pipeline

import (
	"cmp"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Sort returns rows ordered by criteria. The input slice is never modified.
// With no criteria the result is a copy in source order.
//
// Rows that tie on every criterion keep their original relative order: each
// row is decorated with its source index and the index is the last
// tie-break, independent of any criterion's direction.
func Sort(rows []*Row, criteria []SortCriterion) []*Row {
	out := make([]*Row, len(rows))
	copy(out, rows)
	if len(criteria) == 0 || len(rows) < 2 {
		return out
	}

	type decorated struct {
		row   *Row
		index int
	}
	items := make([]decorated, len(rows))
	for i, r := range rows {
		items[i] = decorated{row: r, index: i}
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		for _, c := range criteria {
			if cmp := compareKey(a.row, b.row, c); cmp != 0 {
				return cmp < 0
			}
		}
		return a.index < b.index
	})

	for i, it := range items {
		out[i] = it.row
	}
	return out
}

// compareKey compares two rows on one criterion. Missing, nil and NaN
// values sort after everything else in both directions; only the value
// comparison is reversed for desc.
func compareKey(a, b *Row, c SortCriterion) int {
	av, aok := a.Get(c.Key)
	bv, bok := b.Get(c.Key)
	aNil, bNil := isNil(av, aok) || isNaN(av), isNil(bv, bok) || isNaN(bv)

	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}

	res := CompareValues(av, bv)
	if c.Order == Desc {
		res = -res
	}
	return res
}

// CompareValues orders two non-nil values: numbers numerically and before
// non-numbers, everything else by case-insensitive string comparison.
func CompareValues(a, b any) int {
	an, aIsNum := toNumber(a)
	bn, bIsNum := toNumber(b)

	switch {
	case aIsNum && bIsNum:
		return an.compare(bn)
	case aIsNum:
		return -1
	case bIsNum:
		return 1
	}

	return strings.Compare(lowerString(a), lowerString(b))
}

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

// number keeps integers exact; only floats go through float64.
type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func (n number) float() float64 {
	switch n.kind {
	case numInt:
		return float64(n.i)
	case numUint:
		return float64(n.u)
	}
	return n.f
}

// compare is a total order. NaN sorts before every other number.
func (n number) compare(o number) int {
	switch {
	case n.kind == numInt && o.kind == numInt:
		return cmp.Compare(n.i, o.i)
	case n.kind == numUint && o.kind == numUint:
		return cmp.Compare(n.u, o.u)
	case n.kind == numInt && o.kind == numUint:
		if n.i < 0 {
			return -1
		}
		return cmp.Compare(uint64(n.i), o.u)
	case n.kind == numUint && o.kind == numInt:
		return -o.compare(n)
	}
	return cmp.Compare(n.float(), o.float())
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{kind: numInt, i: int64(n)}, true
	case int8:
		return number{kind: numInt, i: int64(n)}, true
	case int16:
		return number{kind: numInt, i: int64(n)}, true
	case int32:
		return number{kind: numInt, i: int64(n)}, true
	case int64:
		return number{kind: numInt, i: n}, true
	case uint:
		return number{kind: numUint, u: uint64(n)}, true
	case uint8:
		return number{kind: numUint, u: uint64(n)}, true
	case uint16:
		return number{kind: numUint, u: uint64(n)}, true
	case uint32:
		return number{kind: numUint, u: uint64(n)}, true
	case uint64:
		return number{kind: numUint, u: n}, true
	case float32:
		return number{kind: numFloat, f: float64(n)}, true
	case float64:
		return number{kind: numFloat, f: n}, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return number{kind: numInt, i: i}, true
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return number{kind: numUint, u: u}, true
		}
		f, err := n.Float64()
		return number{kind: numFloat, f: f}, err == nil
	}
	return number{}, false
}

func isNaN(v any) bool {
	n, ok := toNumber(v)
	return ok && n.kind == numFloat && math.IsNaN(n.f)
}

// ToggleSort applies a header click on key to criteria and returns the new
// list; criteria itself is not modified.
//
// A plain click makes key the only criterion (asc), flips a sole asc
// criterion to desc, and clears a sole desc criterion. A modifier click
// cycles key within the list (absent -> asc -> desc -> removed) and leaves
// the other criteria alone.
func ToggleSort(criteria []SortCriterion, key string, modifier bool) []SortCriterion {
	if !modifier {
		if len(criteria) == 1 && criteria[0].Key == key {
			if criteria[0].Order == Asc {
				return []SortCriterion{{Key: key, Order: Desc}}
			}
			return nil
		}
		return []SortCriterion{{Key: key, Order: Asc}}
	}

	out := make([]SortCriterion, 0, len(criteria)+1)
	found := false
	for _, c := range criteria {
		if c.Key != key {
			out = append(out, c)
			continue
		}
		found = true
		if c.Order == Asc {
			out = append(out, SortCriterion{Key: key, Order: Desc})
		}
	}
	if !found {
		out = append(out, SortCriterion{Key: key, Order: Asc})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
