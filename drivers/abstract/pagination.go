package abstract

// PageState is owned by the caller and threaded through every page fetch of a
// single stream invocation
type PageState struct {
	// Page starts at 1 and counts the requests made so far
	Page int
	// Cursor is the continuation token of the next page, empty on the first page
	// and once the data is exhausted
	Cursor string
}

func NewPageState() *PageState {
	return &PageState{Page: 1}
}

// Advance decides whether another round is needed after a page of size
// received, moving the state forward when it is
func (p *PageState) Advance(pagination Pagination, received int) bool {
	switch pagination.Style {
	case PageCounter:
		if pagination.PageSize <= 0 || received != pagination.PageSize {
			return false
		}
	case CursorPagination:
		if p.Cursor == "" {
			return false
		}
	default:
		return false
	}

	p.Page++
	return true
}
