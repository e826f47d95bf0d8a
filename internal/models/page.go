package models

import "math"

const (
	// PageSize is the number of sneakers shown per public listing page.
	PageSize = 12
	// MaxPageNumber keeps Offset from overflowing; such pages are empty anyway.
	MaxPageNumber = math.MaxInt32 / PageSize
)

// Page describes a window over an ordered result set.
type Page struct {
	Number int
	Size   int
	Total  int
}

// NewPage clamps number into [1, MaxPageNumber] and uses the default page size.
func NewPage(number int) Page {
	switch {
	case number < 1:
		number = 1
	case number > MaxPageNumber:
		number = MaxPageNumber
	}
	return Page{Number: number, Size: PageSize}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages is ceil(Total/Size).
func (p Page) TotalPages() int {
	if p.Size <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages() }

// Prev is the previous page number.
func (p Page) Prev() int { return p.Number - 1 }

// Next is the next page number.
func (p Page) Next() int { return p.Number + 1 }

// SneakerPage is one page of listing results.
type SneakerPage struct {
	Page     Page
	Sneakers []Sneaker
}
