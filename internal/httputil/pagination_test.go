package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/allisson/credstore/internal/httputil"
)

func newQueryContext(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/documents?"+rawQuery, nil)
	return c
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Accepted", func(t *testing.T) {
		cases := map[string]httputil.Pagination{
			"":                   {Offset: 0, Limit: 50},
			"offset=10&limit=20": {Offset: 10, Limit: 20},
			"limit=100":          {Offset: 0, Limit: 100},
			"offset=7":           {Offset: 7, Limit: 50},
		}
		for query, want := range cases {
			p, err := httputil.ParsePagination(newQueryContext(query))
			assert.NoError(t, err, query)
			assert.Equal(t, want, p, query)
		}
	})

	t.Run("BadOffset", func(t *testing.T) {
		for _, query := range []string{"offset=-1", "offset=abc", "offset=1.5"} {
			p, err := httputil.ParsePagination(newQueryContext(query))
			assert.ErrorContains(t, err, "non-negative integer", query)
			assert.Zero(t, p)
		}
	})

	t.Run("BadLimit", func(t *testing.T) {
		for _, query := range []string{"limit=0", "limit=101", "limit=xyz", "limit=-5"} {
			p, err := httputil.ParsePagination(newQueryContext(query))
			assert.ErrorContains(t, err, "between 1 and 100", query)
			assert.Zero(t, p)
		}
	})
}

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name  string
		page  httputil.Pagination
		items []string
	}{
		{name: "FirstPage", page: httputil.Pagination{Offset: 0, Limit: 2}, items: []string{"a", "b"}},
		{name: "LastPartialPage", page: httputil.Pagination{Offset: 3, Limit: 50}, items: []string{"d", "e"}},
		{name: "PastTheEnd", page: httputil.Pagination{Offset: 5, Limit: 10}, items: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := httputil.Paginate(items, tt.page)
			assert.Equal(t, tt.items, got)
			assert.Equal(t, httputil.PageInfo{Offset: tt.page.Offset, Limit: tt.page.Limit, Total: 5}, info)
		})
	}

	t.Run("Empty", func(t *testing.T) {
		got, info := httputil.Paginate([]string{}, httputil.Pagination{Limit: 10})
		assert.Empty(t, got)
		assert.Zero(t, info.Total)
	})
}
