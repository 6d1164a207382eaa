package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate turns a 1-based page and a page size into an offset and a limit.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if page > math.MaxInt/size {
		page = math.MaxInt / size
	}
	return (page - 1) * size, size
}

// FromQuery parses raw page and size query values; junk falls back to defaults.
func FromQuery(page, size string) (from, limit int) {
	p, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return Calculate(p, s)
}
