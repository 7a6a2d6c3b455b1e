package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Order is the direction of one sort criterion.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc"/"desc" in any case, plus the long forms.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrder, s)
}

// Valid reports whether o is asc or desc.
func (o Order) Valid() bool {
	return o == Asc || o == Desc
}

// SortCriterion is one (key, direction) pair of a multi-column sort.
type SortCriterion struct {
	Key   string `json:"key"`
	Order Order  `json:"order"`
}

func (c SortCriterion) String() string {
	return c.Key + ":" + string(c.Order)
}

// ParseSortCriteria parses "name:asc,age:desc". A key without an order sorts
// ascending.
func ParseSortCriteria(s string) ([]SortCriterion, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var criteria []SortCriterion
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, dir, hasDir := strings.Cut(part, ":")
		c := SortCriterion{Key: strings.TrimSpace(key), Order: Asc}
		if hasDir {
			o, err := ParseOrder(dir)
			if err != nil {
				return nil, err
			}
			c.Order = o
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}

// FilterState is the text query and the optional columns it is limited to.
type FilterState struct {
	Text           string   `json:"text"`
	RestrictedKeys []string `json:"restrictedKeys,omitempty"`
}

// Active reports whether the filter narrows anything.
func (f FilterState) Active() bool {
	return strings.TrimSpace(f.Text) != ""
}

// PageSize is a positive number of rows per page, or PageSizeAll.
type PageSize int

// PageSizeAll shows every row on a single page.
const PageSizeAll PageSize = 0

// ParsePageSize accepts a positive integer or "All" (any case).
func ParsePageSize(s string) (PageSize, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return PageSizeAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageSize, s)
	}
	return PageSize(n), nil
}

func (p PageSize) String() string {
	if p == PageSizeAll {
		return "All"
	}
	return strconv.Itoa(int(p))
}

// Valid reports whether p is positive or the All sentinel.
func (p PageSize) Valid() bool {
	return p >= 0
}

// MarshalJSON encodes PageSizeAll as "All" and other sizes as numbers.
func (p PageSize) MarshalJSON() ([]byte, error) {
	if p == PageSizeAll {
		return []byte(`"All"`), nil
	}
	return []byte(strconv.Itoa(int(p))), nil
}

// UnmarshalJSON accepts a positive number, 0, or any string ParsePageSize
// accepts. 0 and "All" both decode to PageSizeAll.
func (p *PageSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		size, err := ParsePageSize(s)
		if err != nil {
			return err
		}
		*p = size
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPageSize, data)
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	*p = PageSize(n)
	return nil
}

// PaginationState is the pagination window. TotalRows is always derived
// from the filtered collection.
type PaginationState struct {
	CurrentPage int      `json:"currentPage"`
	PageSize    PageSize `json:"pageSize"`
	TotalRows   int      `json:"totalRows"`
}

// SelectMode governs how row clicks change the selection.
type SelectMode string

const (
	SelectNone   SelectMode = "none"
	SelectSingle SelectMode = "single"
	SelectMulti  SelectMode = "multi"
	SelectRange  SelectMode = "range"
)

// ParseSelectMode parses a selection mode name; "" means none.
func ParseSelectMode(s string) (SelectMode, error) {
	switch m := SelectMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SelectNone, nil
	case SelectNone, SelectSingle, SelectMulti, SelectRange:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSelectMode, s)
}

// Modifiers are the modifier keys held during a row click.
type Modifiers struct {
	Shift      bool
	CtrlOrMeta bool
}
