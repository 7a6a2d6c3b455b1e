package pipeline

// Message is an inbound control message consumed by Pipeline.Handle.
type Message interface {
	Name() string
	inbound()
}

// Event is an outbound notification delivered to Pipeline subscribers.
type Event interface {
	Name() string
	outbound()
}

// ═══════════════════════════════════════════════════════════════════════════
// Inbound
// ═══════════════════════════════════════════════════════════════════════════

// SortNone is the SortFieldChanged value that clears the sort.
const SortNone = "none"

// SortFieldChanged sets a single-column sort on Value, or clears the sort
// when Value is "none".
type SortFieldChanged struct {
	Value string `json:"value"`
}

// SortOrderChanged sets the order of the active primary sort field.
type SortOrderChanged struct {
	Value Order `json:"value"`
}

// FilterChanged sets the filter text.
type FilterChanged struct {
	Value string `json:"value"`
}

// FieldToggle is one entry of a column filter selector.
type FieldToggle struct {
	Key     string `json:"key"`
	Checked bool   `json:"checked"`
}

// FilterFieldsChanged replaces the restricted filter keys with the checked
// items. It is addressed to one table and ignored by every other.
type FilterFieldsChanged struct {
	TableID string        `json:"tableId"`
	Items   []FieldToggle `json:"items"`
}

// PageChanged sets the current page.
type PageChanged struct {
	Page int `json:"page"`
}

// PageSizeChanged sets the page size and resets to page 1.
type PageSizeChanged struct {
	PageSize PageSize `json:"pageSize"`
}

func (SortFieldChanged) Name() string    { return "sort-field-changed" }
func (SortOrderChanged) Name() string    { return "sort-order-changed" }
func (FilterChanged) Name() string       { return "filter-changed" }
func (FilterFieldsChanged) Name() string { return "filter-fields-changed" }
func (PageChanged) Name() string         { return "page-changed" }
func (PageSizeChanged) Name() string     { return "page-size-changed" }

func (SortFieldChanged) inbound()    {}
func (SortOrderChanged) inbound()    {}
func (FilterChanged) inbound()       {}
func (FilterFieldsChanged) inbound() {}
func (PageChanged) inbound()         {}
func (PageSizeChanged) inbound()     {}

// CheckedKeys returns the keys of the checked items in order.
func (m FilterFieldsChanged) CheckedKeys() []string {
	var keys []string
	for _, it := range m.Items {
		if it.Checked {
			keys = append(keys, it.Key)
		}
	}
	return keys
}

// ═══════════════════════════════════════════════════════════════════════════
// Outbound
// ═══════════════════════════════════════════════════════════════════════════

// SortFieldUpdated mirrors the primary sort key ("none" when unsorted).
type SortFieldUpdated struct {
	Value string `json:"value"`
}

// SortOrderUpdated mirrors the primary sort order.
type SortOrderUpdated struct {
	Value Order `json:"value"`
}

// SortChanged carries the resolved primary sort.
type SortChanged struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// RowSelected carries the full selection after every change, including when
// it becomes empty.
type RowSelected struct {
	Rows []*Row `json:"rows"`
}

func (SortFieldUpdated) Name() string { return "sort-field-updated" }
func (SortOrderUpdated) Name() string { return "sort-order-updated" }
func (SortChanged) Name() string      { return "sort-changed" }
func (RowSelected) Name() string      { return "row-selected" }

func (SortFieldUpdated) outbound() {}
func (SortOrderUpdated) outbound() {}
func (SortChanged) outbound()      {}
func (RowSelected) outbound()      {}
