package response

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/servicehub-backend/internal/pkg/request"
)

func TestNewPage(t *testing.T) {
	params := request.ListParams{Page: 2, PageSize: 20}

	page := NewPage([]int{1, 2}, strconv.Itoa, params, 41)
	assert.Equal(t, []string{"1", "2"}, page.Items)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	empty := NewPage[int](nil, strconv.Itoa, params, 0)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
