package pagination

// Plan describes the page range of a collection run.
type Plan struct {
	TotalRecords int
	PageSize     int
	TotalPages   int
}

// NewPlan derives the number of pages from the reported total and the page
// size observed on the first page. A page size of 0 means there is nothing to
// fetch and yields zero pages.
func NewPlan(totalRecords, observedPageSize int) Plan {
	plan := Plan{
		TotalRecords: totalRecords,
		PageSize:     observedPageSize,
	}
	if observedPageSize <= 0 || totalRecords <= 0 {
		return plan
	}
	plan.TotalPages = (totalRecords + observedPageSize - 1) / observedPageSize
	return plan
}

// RemainingPages returns the page numbers after the first one,
// i.e. 2..TotalPages. Empty when the plan has at most one page.
func (p Plan) RemainingPages() []int {
	if p.TotalPages <= 1 {
		return nil
	}
	pages := make([]int, 0, p.TotalPages-1)
	for page := 2; page <= p.TotalPages; page++ {
		pages = append(pages, page)
	}
	return pages
}
