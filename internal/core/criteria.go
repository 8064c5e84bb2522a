package core

import "strings"

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"

	// CategoryAll disables the category filter.
	CategoryAll = "All"

	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"

	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type (
	TypeFilter    string
	SortField     string
	SortDirection string

	// SortBy is a field and direction pair, written "date-desc" on the wire.
	SortBy struct {
		Field     SortField
		Direction SortDirection
	}

	// Criteria is the caller-supplied filter and sort applied to a
	// transaction list.
	Criteria struct {
		Search   string
		Type     TypeFilter
		Category string
		SortBy   SortBy
	}
)

// DefaultSortBy is newest first.
func DefaultSortBy() SortBy {
	return SortBy{Field: SortByDate, Direction: SortDesc}
}

// DefaultCriteria matches every transaction, newest first.
func DefaultCriteria() Criteria {
	return Criteria{Type: TypeAll, Category: CategoryAll, SortBy: DefaultSortBy()}
}

// ParseSortBy splits "field-direction". Unknown fields or directions fall
// back to the default.
func ParseSortBy(s string) SortBy {
	field, dir, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	if !ok {
		return DefaultSortBy()
	}
	sb := SortBy{Field: SortField(field), Direction: SortDirection(dir)}
	if !sb.Valid() {
		return DefaultSortBy()
	}
	return sb
}

func (s SortBy) Valid() bool {
	return (s.Field == SortByDate || s.Field == SortByAmount) &&
		(s.Direction == SortAsc || s.Direction == SortDesc)
}

func (s SortBy) String() string {
	return string(s.Field) + "-" + string(s.Direction)
}

// ParseTypeFilter maps "income", "expense" or anything else to all.
func ParseTypeFilter(s string) TypeFilter {
	switch TypeFilter(strings.ToLower(strings.TrimSpace(s))) {
	case TypeIncome:
		return TypeIncome
	case TypeExpense:
		return TypeExpense
	default:
		return TypeAll
	}
}

// NewCriteria builds criteria from raw values, applying defaults to
// anything empty or unrecognised. The search term is kept as given, so
// surrounding spaces take part in the match.
func NewCriteria(search, typ, category, sortBy string) Criteria {
	c := DefaultCriteria()
	c.Search = search
	c.Type = ParseTypeFilter(typ)
	if v := strings.TrimSpace(category); v != "" {
		c.Category = v
	}
	if strings.TrimSpace(sortBy) != "" {
		c.SortBy = ParseSortBy(sortBy)
	}
	return c
}

// Normalize fills zero fields with defaults.
func (c Criteria) Normalize() Criteria {
	if c.Type == "" {
		c.Type = TypeAll
	}
	if c.Category == "" {
		c.Category = CategoryAll
	}
	if !c.SortBy.Valid() {
		c.SortBy = DefaultSortBy()
	}
	return c
}

// IsDefault reports whether the criteria filter nothing and use the
// default order.
func (c Criteria) IsDefault() bool {
	c = c.Normalize()
	return c.Search == "" && c.Type == TypeAll && c.Category == CategoryAll && c.SortBy == DefaultSortBy()
}

// Key is a stable string form usable as a cache key.
func (c Criteria) Key() string {
	c = c.Normalize()
	return strings.Join([]string{strings.ToLower(c.Search), string(c.Type), c.Category, c.SortBy.String()}, "|")
}
