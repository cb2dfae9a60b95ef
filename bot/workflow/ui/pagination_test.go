package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(7, 3))
	assert.Equal(t, 2, TotalPages(6, 3))
	assert.Equal(t, 1, TotalPages(0, 3))
	assert.Equal(t, 1, TotalPages(5, 0))
}

func TestCheckPage(t *testing.T) {
	assert.True(t, CheckPage(0, 3, 0))
	assert.True(t, CheckPage(2, 3, 7))
	assert.False(t, CheckPage(3, 3, 7))
	assert.False(t, CheckPage(-1, 3, 7))
}

func TestGetPageSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, []int{1, 2, 3}, GetPageSlice(items, 0, 3))
	assert.Equal(t, []int{7}, GetPageSlice(items, 2, 3))
	assert.Nil(t, GetPageSlice(items, 3, 3))
}

func TestNavRow(t *testing.T) {
	assert.Nil(t, NavRow("p", "n", 0, 1))

	row := NavRow("p", "n", 1, 3)
	require.Len(t, row, 3)
	assert.Equal(t, "2/3", row[1].Text)
	assert.Equal(t, "n", row[2].Data)
}

func TestPagerMove(t *testing.T) {
	p := NewPager(3)

	page, ok := p.Move(1, 1, 7)
	assert.True(t, ok)
	assert.Equal(t, 1, page)

	_, ok = p.Move(1, 1, 7)
	assert.True(t, ok)
	page, ok = p.Move(1, 1, 7)
	assert.False(t, ok)
	assert.Equal(t, 2, page)

	p.Reset(1)
	_, ok = p.Move(1, -1, 7)
	assert.False(t, ok)
	assert.Zero(t, p.Current(1))
}
