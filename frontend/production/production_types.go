package production

import (
	"seedflow/frontend/shared/html"
	"seedflow/infrastructure/fetch"
	"seedflow/models"
)

// StatusAll is the status filter value that lets every batch through.
const StatusAll = "Todos"

const DefaultPageSize = 10

// PageSizes lists the page sizes offered to operators.
var PageSizes = []int{5, 10, 20, 50, 100}

// FilterState is the operator's search and filter input. The date bounds go
// to the bridge; search and status are applied locally.
type FilterState struct {
	SearchTerm   string
	FilterStatus string
	DataInicial  string
	DataFinal    string
}

type PaginationState struct {
	CurrentPage  int
	ItemsPerPage int
}

// Row is a batch placed on the visible page.
type Row struct {
	Key      string
	Index    int
	Batch    models.ProductionBatch
	Expanded bool
}

// PageItem is one pager entry: a page number or an ellipsis.
type PageItem struct {
	Page     int
	Ellipsis bool
	Current  bool
}

// PageResult is the output of Apply.
type PageResult struct {
	Rows          []Row
	FilteredCount int
	TotalCount    int
	TotalPages    int
	CurrentPage   int
	ItemsPerPage  int
	// 1-based inclusive range shown under the table, zero when empty.
	FirstItem int
	LastItem  int
}

// ViewState is what the list page remembers between requests.
type ViewState struct {
	Filter       FilterState
	Pagination   PaginationState
	LastFiltered int
	ScrollToTop  bool
}

// PageData feeds the production page view.
type PageData struct {
	Layout      html.LayoutData
	View        ViewState
	Result      PageResult
	Pages       []PageItem
	Batches     fetch.State[[]models.ProductionBatch]
	Device      fetch.State[[]models.DeviceStatus]
	Controller  ControllerState
	Statuses    []StatusInfo
	Reloading   bool
	Refetching  bool
	CanDownload bool
	Flash       string
	FlashError  string
}
