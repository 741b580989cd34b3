package convert

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageSelection returns the sorted 1-based pages named by a selection.
// "" and "all" select every page; otherwise a comma separated list of pages
// and ranges such as "1,3-5".
func ParsePageSelection(pages string, maxPage int) ([]int, error) {
	pages = strings.TrimSpace(pages)
	if pages == "" || strings.EqualFold(pages, "all") {
		result := make([]int, maxPage)
		for i := range maxPage {
			result[i] = i + 1
		}
		return result, nil
	}

	selected := make(map[int]bool)
	for part := range strings.SplitSeq(pages, ",") {
		part = strings.TrimSpace(part)
		first, last, isRange := strings.Cut(part, "-")

		start, err := parsePage(first, part)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parsePage(last, part); err != nil {
				return nil, err
			}
		}

		if start < 1 || end > maxPage || start > end {
			return nil, fmt.Errorf("page selection %q out of range (max page: %d)", part, maxPage)
		}
		for page := start; page <= end; page++ {
			selected[page] = true
		}
	}

	result := make([]int, 0, len(selected))
	for page := range selected {
		result = append(result, page)
	}
	sort.Ints(result)
	return result, nil
}

func parsePage(s, part string) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid page selection %q: expected a page number or range", part)
	}
	return page, nil
}
