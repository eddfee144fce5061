// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package pagination computes page counts and the compressed page-number
// window shown beneath paged listings.
package pagination

// PageSize is the number of items per page.
const PageSize = 20

// Ellipsis marks a gap in a window.
const Ellipsis = 0

// delta is how many pages around the current page are always shown.
const delta = 4

// TotalPages returns the number of pages needed for totalItems. An empty
// listing still has one page.
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Offset returns the offset of the first item on page.
func Offset(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// Window returns the page numbers to render for current out of total.
// The first and last page and every page within four of current are
// included. A gap of one page is filled in; longer gaps collapse to a
// single Ellipsis.
func Window(current, total int) []int {
	if total < 1 {
		return nil
	}

	left, right := current-delta, current+delta

	var window []int
	last := 0
	for i := 1; i <= total; i++ {
		if i != 1 && i != total && (i < left || i > right) {
			continue
		}
		if last != 0 {
			switch i - last {
			case 1:
			case 2:
				window = append(window, last+1)
			default:
				window = append(window, Ellipsis)
			}
		}
		window = append(window, i)
		last = i
	}
	return window
}

// Prev returns the previous page, or 0 on the first page.
func Prev(current int) int {
	if current > 1 {
		return current - 1
	}
	return 0
}

// Next returns the next page, or 0 on the last page.
func Next(current, total int) int {
	if current < total {
		return current + 1
	}
	return 0
}
