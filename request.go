package looper

// Callback handles readiness of a registered fd, on the goroutine polling the
// looper. Returning false unregisters the fd, as if by RemoveFd, after the
// callback returns.
type Callback func(fd int, events Events, data any) bool

// Registration describes one watched fd. There is at most one per fd.
type Registration struct {
	// Callback is nil for registrations reported by ident.
	Callback Callback
	// Data is passed back verbatim.
	Data   any
	FD     int
	Ident  int
	Events Events
}

// requestTable maps each watched fd to its registration. It is guarded by
// the looper's mutex.
type requestTable struct {
	m map[int]Registration
}

func newRequestTable() *requestTable {
	return &requestTable{m: make(map[int]Registration)}
}

func (t *requestTable) get(fd int) (Registration, bool) {
	r, ok := t.m[fd]
	return r, ok
}

// put inserts or replaces the registration for r.FD.
func (t *requestTable) put(r Registration) {
	t.m[r.FD] = r
}

// remove reports whether fd was present.
func (t *requestTable) remove(fd int) bool {
	if _, ok := t.m[fd]; !ok {
		return false
	}
	delete(t.m, fd)
	return true
}

func (t *requestTable) len() int {
	return len(t.m)
}
