package engine

// Router is the page router the engine reports focus changes to. The
// engine only ever navigates to record URIs.
type Router interface {
	Navigate(path string)
	CurrentPath() string
}

// NopRouter ignores navigation.
type NopRouter struct{}

func (NopRouter) Navigate(string)     {}
func (NopRouter) CurrentPath() string { return "" }

// MemoryRouter records navigation in memory. Shells without a real router
// use it to remember the last focused record.
type MemoryRouter struct {
	path    string
	History []string
}

// NewMemoryRouter starts at path.
func NewMemoryRouter(path string) *MemoryRouter {
	return &MemoryRouter{path: path}
}

func (r *MemoryRouter) Navigate(path string) {
	r.path = path
	r.History = append(r.History, path)
}

func (r *MemoryRouter) CurrentPath() string { return r.path }
