package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		page, size  int
		offset, lim int
	}{
		{page: 1, size: 10, offset: 0, lim: 10},
		{page: 3, size: 10, offset: 20, lim: 10},
		{page: 0, size: 0, offset: 0, lim: DefaultPageSize},
		{page: -2, size: 5, offset: 0, lim: 5},
		{page: 2, size: 1000, offset: MaxPageSize, lim: MaxPageSize},
	}
	for _, tt := range tests {
		offset, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.offset, offset)
		assert.Equal(t, tt.lim, limit)
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}
