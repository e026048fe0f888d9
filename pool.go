package fix

import "sync"

// scratch buffers for serialization
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 4096)
		return &buf
	},
}

func getBuffer() []byte {
	buf := bufferPool.Get().(*[]byte)
	return (*buf)[:0]
}

func putBuffer(buf []byte) {
	if cap(buf) <= 64*1024 { // Don't pool huge buffers
		b := buf[:0]
		bufferPool.Put(&b)
	}
}

// allocator hands out value pages and group slots to the messages of one
// Parser and enforces its Limits. Up to NumPages free pages and NumGroups
// group slots are kept for reuse.
type allocator struct {
	mu         sync.Mutex
	limits     Limits
	free       [][]byte
	usedPages  int
	usedGroups int
}

func newAllocator(limits Limits) *allocator {
	return &allocator{limits: limits}
}

// allocPage returns an empty page able to hold at least size bytes.
func (a *allocator) allocPage(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limits.MaxPages > 0 && a.usedPages >= a.limits.MaxPages {
		return nil, newError(CodeNoMorePages, "no more pages available, MaxPages = %d, UsedPages = %d", a.limits.MaxPages, a.usedPages)
	}
	psize := max(a.limits.PageSize, size)
	if a.limits.MaxPageSize > 0 && psize > a.limits.MaxPageSize {
		return nil, newError(CodeTooBigPage, "requested page size %d exceeds MaxPageSize = %d", psize, a.limits.MaxPageSize)
	}

	a.usedPages++
	if psize == a.limits.PageSize && len(a.free) > 0 {
		p := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		return p[:0], nil
	}
	return make([]byte, 0, psize), nil
}

func (a *allocator) freePages(pages [][]byte) {
	if len(pages) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range pages {
		a.usedPages--
		if cap(p) == a.limits.PageSize && len(a.free) < a.limits.NumPages {
			a.free = append(a.free, p[:0])
		}
	}
}

func (a *allocator) allocGroup() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.limits.MaxGroups > 0 && a.usedGroups >= a.limits.MaxGroups {
		return newError(CodeNoMoreGroups, "no more groups available, MaxGroups = %d, UsedGroups = %d", a.limits.MaxGroups, a.usedGroups)
	}
	a.usedGroups++
	return nil
}

func (a *allocator) freeGroups(n int) {
	if n == 0 {
		return
	}
	a.mu.Lock()
	a.usedGroups -= n
	a.mu.Unlock()
}

// release drops the cached free pages.
func (a *allocator) release() {
	a.mu.Lock()
	a.free = nil
	a.mu.Unlock()
}

func (a *allocator) stats() (pages, groups int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usedPages, a.usedGroups
}
