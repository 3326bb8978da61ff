package utils

import (
	"cmp"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Column exposes one field of T to search and sort. Value may return a
// string, a number, a bool, a time.Time (or pointer to one), or any
// fmt.Stringer; nil values sort first.
type Column[T any] struct {
	Key        string
	Value      func(T) any
	Searchable bool
}

// TableQuery is the search/sort/paginate request shared by every list endpoint.
type TableQuery struct {
	Search   string
	SortKey  string
	Desc     bool
	Page     int
	PageSize int
}

type PageResult[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ParseTableQuery reads search, sort, order, page and page_size from a
// query string. Out-of-range paging values fall back to the defaults.
func ParseTableQuery(v url.Values) TableQuery {
	q := TableQuery{
		Search:  strings.TrimSpace(v.Get("search")),
		SortKey: strings.TrimSpace(v.Get("sort")),
		Desc:    strings.EqualFold(v.Get("order"), "desc"),
		Page:    1,
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if ps, err := strconv.Atoi(v.Get("page_size")); err == nil && ps > 0 {
		q.PageSize = ps
	}
	return q
}

func (q TableQuery) normalized() TableQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// ApplyTableQuery filters rows by q.Search over the searchable columns,
// sorts them by the column named q.SortKey and returns the requested page.
// The input slice is not modified.
func ApplyTableQuery[T any](rows []T, cols []Column[T], q TableQuery) (*PageResult[T], error) {
	q = q.normalized()

	var sortCol *Column[T]
	if q.SortKey != "" {
		for i := range cols {
			if cols[i].Key == q.SortKey {
				sortCol = &cols[i]
				break
			}
		}
		if sortCol == nil {
			return nil, NewValidationError("unknown sort key %q", q.SortKey)
		}
	}

	filtered := make([]T, 0, len(rows))
	needle := strings.ToLower(q.Search)
	for _, row := range rows {
		if needle == "" || rowMatches(row, cols, needle) {
			filtered = append(filtered, row)
		}
	}

	if sortCol != nil {
		slices.SortStableFunc(filtered, func(a, b T) int {
			c := compareValues(sortCol.Value(a), sortCol.Value(b))
			if q.Desc {
				return -c
			}
			return c
		})
	}

	total := len(filtered)
	start := total
	if q.Page-1 <= (total-1)/q.PageSize {
		start = (q.Page - 1) * q.PageSize
	}
	end := min(start+q.PageSize, total)

	return &PageResult[T]{
		Data:     filtered[start:end],
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

func rowMatches[T any](row T, cols []Column[T], needle string) bool {
	for _, c := range cols {
		if !c.Searchable {
			continue
		}
		v := c.Value(row)
		if v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(deref(v))), needle) {
			return true
		}
	}
	return false
}

func deref(v any) any {
	switch t := v.(type) {
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}

func compareValues(a, b any) int {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(strings.ToLower(av), strings.ToLower(bv))
		}
	case int:
		if bv, ok := b.(int); ok {
			return cmp.Compare(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case fmt.Stringer:
		if bv, ok := b.(fmt.Stringer); ok {
			return cmp.Compare(av.String(), bv.String())
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
