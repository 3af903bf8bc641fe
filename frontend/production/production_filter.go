package production

import (
	"strings"

	"seedflow/models"
)

// Matches reports whether b passes the search term and the status filter.
// The search is a case-insensitive substring match OR-ed across descriptions,
// lot, production order and the raw product and material codes.
func Matches(b models.ProductionBatch, f FilterState) bool {
	return matchesSearch(b, f.SearchTerm) && matchesStatus(b, f.FilterStatus)
}

func matchesSearch(b models.ProductionBatch, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{
		b.DescProdutoAcabado,
		b.DescMateriaPrima,
		b.Lote,
		b.OrdemPrd,
		b.ProdutoAcab,
		b.MateriaPrima,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func matchesStatus(b models.ProductionBatch, status string) bool {
	if status == "" || status == StatusAll {
		return true
	}
	return b.DescStatus == status
}

// Filter returns the batches that pass f, in their original order.
func Filter(batches []models.ProductionBatch, f FilterState) []models.ProductionBatch {
	out := make([]models.ProductionBatch, 0, len(batches))
	for _, b := range batches {
		if Matches(b, f) {
			out = append(out, b)
		}
	}
	return out
}

// Apply filters the batches and cuts out the requested page. An out of range
// page is clamped; an unknown page size falls back to DefaultPageSize.
func Apply(batches []models.ProductionBatch, f FilterState, p PaginationState) PageResult {
	filtered := Filter(batches, f)
	size := normalizePageSize(p.ItemsPerPage)
	n := len(filtered)
	totalPages := (n + size - 1) / size

	page := p.CurrentPage
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	res := PageResult{
		FilteredCount: n,
		TotalCount:    len(batches),
		TotalPages:    totalPages,
		CurrentPage:   page,
		ItemsPerPage:  size,
		Rows:          make([]Row, 0, size),
	}
	start := (page - 1) * size
	if start >= n {
		return res
	}
	end := min(start+size, n)
	for i, b := range filtered[start:end] {
		res.Rows = append(res.Rows, Row{Key: b.RowKey(i), Index: i, Batch: b})
	}
	res.FirstItem = start + 1
	res.LastItem = end
	return res
}

// DuplicateKeys lists row keys that occur more than once on a page.
func DuplicateKeys(rows []Row) []string {
	seen := make(map[string]int, len(rows))
	var dups []string
	for _, r := range rows {
		seen[r.Key]++
		if seen[r.Key] == 2 {
			dups = append(dups, r.Key)
		}
	}
	return dups
}

// PageNumbers lays out the pager. Up to five pages are listed in full;
// beyond that the first and last page are always shown around a three page
// window, with ellipses over the gaps.
func PageNumbers(current, total int) []PageItem {
	if total <= 0 {
		return nil
	}
	items := make([]PageItem, 0, 7)
	add := func(p int) { items = append(items, PageItem{Page: p, Current: p == current}) }
	gap := func() { items = append(items, PageItem{Ellipsis: true}) }

	if total <= 5 {
		for p := 1; p <= total; p++ {
			add(p)
		}
		return items
	}

	add(1)
	switch {
	case current <= 3:
		for p := 2; p <= 4; p++ {
			add(p)
		}
		gap()
		add(total)
	case current >= total-2:
		gap()
		for p := total - 3; p <= total; p++ {
			add(p)
		}
	default:
		gap()
		for p := current - 1; p <= current+1; p++ {
			add(p)
		}
		gap()
		add(total)
	}
	return items
}

// WithPageSize switches the page size and returns to page 1. Sizes outside
// PageSizes are ignored.
func (p PaginationState) WithPageSize(size int) PaginationState {
	if !allowedPageSize(size) {
		return p
	}
	return PaginationState{CurrentPage: 1, ItemsPerPage: size}
}

// WithPage moves to page and reports whether the page changed, which asks the
// view to scroll back to the top.
func (p PaginationState) WithPage(page int) (PaginationState, bool) {
	if page < 1 || page == p.CurrentPage {
		return p, false
	}
	p.CurrentPage = page
	return p, true
}

// Reconcile returns to page 1 whenever the filtered result size changed.
func (p PaginationState) Reconcile(prevCount, newCount int) PaginationState {
	if prevCount != newCount {
		p.CurrentPage = 1
	}
	return p
}

func DefaultPagination() PaginationState {
	return PaginationState{CurrentPage: 1, ItemsPerPage: DefaultPageSize}
}

func allowedPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

func normalizePageSize(size int) int {
	if allowedPageSize(size) {
		return size
	}
	return DefaultPageSize
}
