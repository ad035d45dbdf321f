// Package pagination slices ordered collections into fixed-size pages.
package pagination

const DefaultPageSize = 8

// TotalPages is ceil(count/size), never less than 1 so an empty result still
// renders as "page 1 of 1".
func TotalPages(count, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (count + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Slice returns items[(page-1)*size : page*size] clamped to bounds. Pages
// outside the range yield an empty slice.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	// Bound page before multiplying so huge values cannot overflow start.
	if page < 1 || page > TotalPages(len(items), size) {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// Page is one slice of a collection together with its position.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Page[T]{
		Items:      Slice(items, page, size),
		Page:       page,
		PageSize:   size,
		TotalPages: TotalPages(len(items), size),
		TotalItems: len(items),
	}
}

// Pager tracks the current page of a filtered collection.
//
// The zero value is not ready; use NewPager.
type Pager struct {
	size    int
	current int
	count   int
	key     string
}

func NewPager(size int) *Pager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager{size: size, current: 1}
}

func (p *Pager) Current() int    { return p.current }
func (p *Pager) TotalPages() int { return TotalPages(p.count, p.size) }

// Sync records the collection being paged. A new key means a new filter
// result, and the pager returns to page 1.
func (p *Pager) Sync(key string, count int) {
	if key != p.key {
		p.key = key
		p.current = 1
	}
	p.count = count
	if p.current > p.TotalPages() {
		p.current = p.TotalPages()
	}
}

// GoTo moves to page if 1 <= page <= TotalPages and reports whether it did.
func (p *Pager) GoTo(page int) bool {
	if page < 1 || page > p.TotalPages() {
		return false
	}
	p.current = page
	return true
}

// Window returns the current page of items.
func Window[T any](p *Pager, items []T) []T {
	return Slice(items, p.current, p.size)
}
