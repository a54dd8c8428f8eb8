package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParams_Normalize(t *testing.T) {
	p := ListParams{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, "DESC", p.SortOrder)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PageSize: 500, SortOrder: "asc"}
	p.Normalize()
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, "ASC", p.SortOrder)
	assert.Equal(t, 200, p.Offset())
}
