package utils

import (
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type row struct {
	name  string
	price float64
	moved *time.Time
}

var rowColumns = []Column[row]{
	{Key: "name", Value: func(r row) any { return r.name }, Searchable: true},
	{Key: "price", Value: func(r row) any { return r.price }},
	{Key: "moved", Value: func(r row) any { return r.moved }},
}

func TestParseTableQuery(t *testing.T) {
	q := ParseTableQuery(url.Values{
		"search": {" unit "}, "sort": {"price"}, "order": {"DESC"},
		"page": {"2"}, "page_size": {"5"},
	})
	require.Equal(t, TableQuery{Search: "unit", SortKey: "price", Desc: true, Page: 2, PageSize: 5}, q)

	q = ParseTableQuery(url.Values{"page": {"-1"}, "page_size": {"x"}})
	require.Equal(t, 1, q.Page)
	require.Zero(t, q.PageSize)
}

func TestApplyTableQuery(t *testing.T) {
	now := time.Now()
	rows := []row{
		{name: "B-2", price: 90},
		{name: "a-1", price: 40, moved: &now},
		{name: "C-3", price: 65},
	}

	t.Run("keeps input order without a sort key", func(t *testing.T) {
		page, err := ApplyTableQuery(rows, rowColumns, TableQuery{})
		require.NoError(t, err)
		require.Equal(t, rows, page.Data)
		require.Equal(t, DefaultPageSize, page.PageSize)
	})

	t.Run("string sort ignores case", func(t *testing.T) {
		page, err := ApplyTableQuery(rows, rowColumns, TableQuery{SortKey: "name"})
		require.NoError(t, err)
		require.Equal(t, []string{"a-1", "B-2", "C-3"}, names(page.Data))
	})

	t.Run("descending numeric sort", func(t *testing.T) {
		page, err := ApplyTableQuery(rows, rowColumns, TableQuery{SortKey: "price", Desc: true})
		require.NoError(t, err)
		require.Equal(t, []string{"B-2", "C-3", "a-1"}, names(page.Data))
	})

	t.Run("nil times sort first", func(t *testing.T) {
		page, err := ApplyTableQuery(rows, rowColumns, TableQuery{SortKey: "moved"})
		require.NoError(t, err)
		require.Equal(t, "a-1", page.Data[2].name)
	})

	t.Run("search only looks at searchable columns", func(t *testing.T) {
		page, err := ApplyTableQuery(rows, rowColumns, TableQuery{Search: "b-"})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)

		page, err = ApplyTableQuery(rows, rowColumns, TableQuery{Search: "90"})
		require.NoError(t, err)
		require.Zero(t, page.Total)
	})

	t.Run("pages past the end are empty", func(t *testing.T) {
		page, err := ApplyTableQuery(rows, rowColumns, TableQuery{Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Equal(t, 3, page.Total)
		require.Len(t, page.Data, 1)

		page, err = ApplyTableQuery(rows, rowColumns, TableQuery{Page: 9, PageSize: 2})
		require.NoError(t, err)
		require.Empty(t, page.Data)
	})

	t.Run("huge page number is an empty page", func(t *testing.T) {
		q := ParseTableQuery(url.Values{"page": {"92233720368547759"}, "page_size": {"200"}})
		page, err := ApplyTableQuery(rows, rowColumns, q)
		require.NoError(t, err)
		require.Equal(t, 3, page.Total)
		require.Empty(t, page.Data)

		page, err = ApplyTableQuery(rows, rowColumns, TableQuery{Page: math.MaxInt, PageSize: MaxPageSize})
		require.NoError(t, err)
		require.Empty(t, page.Data)
	})

	t.Run("empty input", func(t *testing.T) {
		page, err := ApplyTableQuery[row](nil, rowColumns, TableQuery{})
		require.NoError(t, err)
		require.Zero(t, page.Total)
		require.Empty(t, page.Data)
	})

	t.Run("unknown sort key", func(t *testing.T) {
		_, err := ApplyTableQuery(rows, rowColumns, TableQuery{SortKey: "bogus"})
		var appErr *AppError
		require.ErrorAs(t, err, &appErr)
		require.Equal(t, ErrCodeValidation, appErr.Code)
	})
}

func names(rs []row) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.name
	}
	return out
}
