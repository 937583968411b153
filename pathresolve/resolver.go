// Package pathresolve hydrates the ancestor chain of a record that is not
// yet materialized, so a search hit can be revealed in the tree.
//
// Hydration is one ResolvePath call followed by root-first processing of the
// returned steps: for each ancestor, the children page that contains the
// next step is loaded (through the tree's reservations, so pages already in
// flight are awaited rather than re-requested) and the ancestor is expanded.
// Like the search orchestrator, the Resolver performs no I/O itself.
package pathresolve

import (
	"fmt"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/internal/metrics"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/tree"
	"github.com/joshuapare/arctree/view"
)

// Load is a children page the engine must request.
type Load struct {
	URI    string
	Offset int
}

// Progress reports what one resolver step did and what it needs next.
type Progress struct {
	Loads    []Load   // pages to request now
	Expanded []string // ancestors added to the expansion set
	Waiting  bool     // blocked on outstanding pages
	Done     bool     // target is materialized and its ancestors expanded
	Target   string
	Err      error // hydration abandoned
}

type job struct {
	token     uint64
	target    string
	steps     []catalog.Step
	resolved  bool
	idx       int
	attempted map[Load]bool
}

// Resolver runs at most one hydration at a time; a newer Begin supersedes
// the previous one.
type Resolver struct {
	token  uint64
	active *job
}

// New creates an idle resolver.
func New() *Resolver { return &Resolver{} }

// Begin starts hydrating target. It returns needResolve=false when the
// target is already materialized, in which case nothing is issued and the
// caller can focus it directly. Otherwise the caller must run ResolvePath
// for target and hand the result to ApplySteps with the returned token.
func (r *Resolver) Begin(target string, store *tree.Store) (token uint64, needResolve bool) {
	if _, ok := store.Get(target); ok {
		return 0, false
	}
	r.token++
	r.active = &job{token: r.token, target: target, attempted: make(map[Load]bool)}
	logger.Debug("path hydration started", "target", target, "token", r.token)
	return r.token, true
}

// Active returns the target being hydrated.
func (r *Resolver) Active() (string, bool) {
	if r.active == nil {
		return "", false
	}
	return r.active.target, true
}

// Cancel abandons the current hydration.
func (r *Resolver) Cancel() {
	r.token++
	r.active = nil
}

// ApplySteps installs the resolved path for token and advances as far as
// the materialized tree allows. ok is false for a superseded token.
func (r *Resolver) ApplySteps(token uint64, resp *catalog.PathResponse, store *tree.Store, exp *view.ExpansionSet) (p Progress, ok bool) {
	j := r.active
	if j == nil || j.token != token {
		metrics.StaleDropped("path")
		return Progress{}, false
	}
	if resp != nil {
		j.steps = resp.Paths[j.target]
	}
	j.resolved = true
	return r.advance(store, exp), true
}

// Fail abandons the hydration for token.
func (r *Resolver) Fail(token uint64, err error) (Progress, bool) {
	j := r.active
	if j == nil || j.token != token {
		metrics.StaleDropped("path")
		return Progress{}, false
	}
	r.active = nil
	return Progress{Target: j.target, Err: err}, true
}

// Resume continues a hydration after a children page was applied or failed.
// It is a no-op when idle or still waiting for ResolvePath.
func (r *Resolver) Resume(store *tree.Store, exp *view.ExpansionSet) Progress {
	if r.active == nil || !r.active.resolved {
		return Progress{}
	}
	return r.advance(store, exp)
}

func (r *Resolver) advance(store *tree.Store, exp *view.ExpansionSet) Progress {
	j := r.active
	p := Progress{Target: j.target}

	for j.idx < len(j.steps) {
		step := j.steps[j.idx]
		n, ok := store.Get(step.NodeURI)
		if !ok {
			r.active = nil
			p.Err = types.NewError(types.ErrKindNotFound, fmt.Sprintf("path step %s not found", step.NodeURI), nil)
			return p
		}
		if step.NodeURI == j.target {
			j.idx++
			continue
		}

		if step.WaypointOffset != nil {
			offset := *step.WaypointOffset
			pg := n.Pagination()
			if !pg.Applied(offset) && !pg.FullyLoaded() {
				// A page this hydration already waited on has failed.
				for o := 0; o <= offset; o++ {
					l := Load{URI: n.URI, Offset: o}
					if err := pg.Failed(o); err != nil && j.attempted[l] {
						r.active = nil
						p.Err = err
						return p
					}
				}
				for _, o := range store.ReserveThrough(n.URI, offset) {
					l := Load{URI: n.URI, Offset: o}
					j.attempted[l] = true
					p.Loads = append(p.Loads, l)
				}
				waiting := false
				for _, o := range n.Pagination().InFlightOffsets() {
					if o <= offset {
						j.attempted[Load{URI: n.URI, Offset: o}] = true
						waiting = true
					}
				}
				if !waiting {
					r.active = nil
					p.Err = types.NewError(types.ErrKindNotFound,
						fmt.Sprintf("page %d of %s cannot be loaded", offset, n.URI), nil)
					return p
				}
				p.Waiting = true
				return p
			}
		}

		if exp.Add(n.URI) {
			p.Expanded = append(p.Expanded, n.URI)
		}
		j.idx++
	}

	if _, ok := store.Get(j.target); !ok {
		r.active = nil
		p.Err = types.NewError(types.ErrKindNotFound, fmt.Sprintf("%s not found under its resolved path", j.target), nil)
		return p
	}
	r.active = nil
	p.Done = true
	logger.Debug("path hydration done", "target", j.target, "expanded", len(p.Expanded))
	return p
}
