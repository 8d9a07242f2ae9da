package index

import (
	"fmt"
	"strings"
)

// SortOrder is the sort direction of an index key column.
// The zero value means the direction has not been set.
type SortOrder int

const (
	SortUnset SortOrder = iota
	SortAsc
	SortDesc
)

// String returns "ASC", "DESC" or "UNSET".
func (s SortOrder) String() string {
	switch s {
	case SortAsc:
		return "ASC"
	case SortDesc:
		return "DESC"
	case SortUnset:
		return "UNSET"
	default:
		return fmt.Sprintf("SortOrder(%d)", int(s))
	}
}

// NullsOrder is the placement of NULL keys relative to non-null keys.
type NullsOrder int

const (
	NullsUnspecified NullsOrder = iota
	NullsFirst
	NullsLast
)

// String returns "NULLS FIRST", "NULLS LAST" or "UNSPECIFIED".
func (n NullsOrder) String() string {
	switch n {
	case NullsFirst:
		return "NULLS FIRST"
	case NullsLast:
		return "NULLS LAST"
	default:
		return "UNSPECIFIED"
	}
}

// ParseNullsOrder parses "first", "last" or "" (case-insensitive).
func ParseNullsOrder(s string) (NullsOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return NullsUnspecified, nil
	case "first":
		return NullsFirst, nil
	case "last":
		return NullsLast, nil
	default:
		return NullsUnspecified, fmt.Errorf("invalid nulls order %q (must be first or last)", s)
	}
}

// Order is the collation of an index key column.
type Order struct {
	Sort  SortOrder
	Nulls NullsOrder
}

// NewOrder creates an Order.
func NewOrder(sort SortOrder, nulls NullsOrder) Order {
	return Order{Sort: sort, Nulls: nulls}
}

// IsSet reports whether a sort direction has been assigned.
func (o Order) IsSet() bool {
	return o.Sort != SortUnset
}

// String returns the SQL form, e.g. "DESC NULLS LAST".
func (o Order) String() string {
	if o.Nulls == NullsUnspecified {
		return o.Sort.String()
	}
	return o.Sort.String() + " " + o.Nulls.String()
}
