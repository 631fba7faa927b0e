package pagination

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxOffset bounds (page-1)*limit; pages beyond it are clamped and read as empty.
	MaxOffset = math.MaxInt32
)

type Params struct {
	Page  int
	Limit int
}

// Info is the pagination block of a list response.
type Info struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Parse reads page and limit. Absent, non-numeric or non-positive values fall back to defaults.
func Parse(q url.Values) Params {
	limit := positive(q.Get("limit"), DefaultLimit, MaxLimit)
	return Params{
		Page:  positive(q.Get("page"), DefaultPage, MaxOffset/limit+1),
		Limit: limit,
	}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Range returns the inclusive row range requested from the store.
func (p Params) Range() (from, to int) {
	from = p.Offset()
	return from, from + p.Limit - 1
}

func (p Params) Info(total int) Info {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Info{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

func positive(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		// out of int range but positive: clamp below like any other large value
		err = nil
	}
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
