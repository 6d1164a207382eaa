package util

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		page, size          int
		wantFrom, wantLimit int
	}{
		{page: 1, size: 10, wantFrom: 0, wantLimit: 10},
		{page: 3, size: 20, wantFrom: 40, wantLimit: 20},
		{page: 0, size: 0, wantFrom: 0, wantLimit: 10},
		{page: -2, size: 500, wantFrom: 0, wantLimit: 10},
		{page: 2, size: 100, wantFrom: 100, wantLimit: 100},
	}
	for _, tt := range tests {
		from, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantFrom, from)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func TestFromQuery(t *testing.T) {
	from, limit := FromQuery("2", "5")
	assert.Equal(t, 5, from)
	assert.Equal(t, 5, limit)

	from, limit = FromQuery("abc", "")
	assert.Equal(t, 0, from)
	assert.Equal(t, 10, limit)
}

func TestFromQuery_HugePageDoesNotOverflow(t *testing.T) {
	from, limit := FromQuery(strconv.Itoa(math.MaxInt), "10")
	assert.Equal(t, 10, limit)
	assert.GreaterOrEqual(t, from, 0)
	assert.Equal(t, (math.MaxInt/10-1)*10, from)

	from, limit = FromQuery(strconv.Itoa(math.MaxInt), "")
	assert.Equal(t, DefaultPageSize, limit)
	assert.GreaterOrEqual(t, from, 0)
}
