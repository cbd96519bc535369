package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("0"))
	assert.Equal(t, 1, ParsePage("-3"))
	assert.Equal(t, 4, ParsePage("4"))
}

func TestNewPagination(t *testing.T) {
	t.Run("empty result has one page", func(t *testing.T) {
		p := NewPagination(3, 0)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 1, p.TotalPages)
		assert.Equal(t, 0, p.Offset())
	})

	t.Run("page past the end is clamped to the last page", func(t *testing.T) {
		p := NewPagination(9, 41)
		assert.Equal(t, 3, p.TotalPages)
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 40, p.Offset())
		assert.Equal(t, PageSize, p.Limit)
	})

	t.Run("exact multiple of the page size", func(t *testing.T) {
		p := NewPagination(2, 40)
		assert.Equal(t, 2, p.TotalPages)
		assert.Equal(t, 20, p.Offset())
	})
}
