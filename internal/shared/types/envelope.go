package types

// Pagination describes a page of a list response
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// Envelope is the standard JSON response shape
type Envelope struct {
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Page computes pagination over a total count, clamping page/pageSize
// to sane values, and returns the slice bounds for the page.
func Page(total, page, pageSize int) (Pagination, int, int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if page <= 0 {
		page = 1
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Pagination{Page: page, PageSize: pageSize, Total: total}, start, end
}
