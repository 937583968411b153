package pathresolve

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/tree"
	"github.com/joshuapare/arctree/view"
)

const waypoint = 2

func off(n int) *int { return &n }

func kids(parent string, offset, n int) []catalog.RawNode {
	out := make([]catalog.RawNode, n)
	for i := range out {
		out[i] = catalog.RawNode{URI: fmt.Sprintf("%s/%d-%d", parent, offset, i), HasChildren: true}
	}
	return out
}

// newStore materializes /r with children /r/0-0 and /r/0-1.
func newStore(t *testing.T) *tree.Store {
	t.Helper()
	s := tree.NewStore(1, waypoint)
	require.NoError(t, s.ApplyRoot(&catalog.RootResponse{
		Root:     catalog.RawNode{URI: "/r", HasChildren: true},
		Children: kids("/r", 0, waypoint),
	}))
	return s
}

func pathTo(target string, steps ...catalog.Step) *catalog.PathResponse {
	return &catalog.PathResponse{Paths: map[string][]catalog.Step{target: steps}}
}

func TestBeginNoOpWhenPresent(t *testing.T) {
	s := newStore(t)
	r := New()
	_, need := r.Begin("/r/0-1", s)
	require.False(t, need)
	_, active := r.Active()
	require.False(t, active)
}

// TestHydratesDeepPage reveals a record on page 2 of /r/0-0's children
// when only /r is materialized.
func TestHydratesDeepPage(t *testing.T) {
	s := newStore(t)
	exp := view.NewExpansionSet()
	r := New()
	target := "/r/0-0/2-1"

	tok, need := r.Begin(target, s)
	require.True(t, need)

	p, ok := r.ApplySteps(tok, pathTo(target,
		catalog.Step{NodeURI: "/r", WaypointOffset: off(0)},
		catalog.Step{NodeURI: "/r/0-0", WaypointOffset: off(2)},
		catalog.Step{NodeURI: target},
	), s, exp)
	require.True(t, ok)
	require.NoError(t, p.Err)
	require.True(t, p.Waiting)
	require.Equal(t, []string{"/r"}, p.Expanded)
	require.Equal(t, []Load{{"/r/0-0", 0}, {"/r/0-0", 1}, {"/r/0-0", 2}}, p.Loads)

	// Pages arrive out of order; the resolver keeps waiting until the target page is applied.
	_, err := s.ApplyChildren("/r/0-0", 2, kids("/r/0-0", 2, waypoint))
	require.NoError(t, err)
	p = r.Resume(s, exp)
	require.True(t, p.Waiting)
	require.Empty(t, p.Loads, "in-flight pages are not requested twice")

	_, err = s.ApplyChildren("/r/0-0", 0, kids("/r/0-0", 0, waypoint))
	require.NoError(t, err)
	_, err = s.ApplyChildren("/r/0-0", 1, kids("/r/0-0", 1, waypoint))
	require.NoError(t, err)

	p = r.Resume(s, exp)
	require.True(t, p.Done)
	require.Equal(t, target, p.Target)
	require.Equal(t, []string{"/r/0-0"}, p.Expanded)
	require.True(t, exp.Has("/r"))
	require.True(t, exp.Has("/r/0-0"))
	require.False(t, exp.Has(target))

	_, still := r.Active()
	require.False(t, still)
}

// TestLoadsEachAncestorPageOnce walks a two-level hydration and counts the
// page requests: one per ancestor whose waypoint is its first page, and the
// contiguous run up to the waypoint otherwise, never a page twice.
func TestLoadsEachAncestorPageOnce(t *testing.T) {
	s := newStore(t)
	exp := view.NewExpansionSet()
	r := New()
	target := "/r/0-1/0-0/1-0"

	requested := map[Load]int{}
	record := func(p Progress) {
		for _, l := range p.Loads {
			requested[l]++
		}
	}

	tok, _ := r.Begin(target, s)
	p, ok := r.ApplySteps(tok, pathTo(target,
		catalog.Step{NodeURI: "/r", WaypointOffset: off(0)},
		catalog.Step{NodeURI: "/r/0-1", WaypointOffset: off(0)},
		catalog.Step{NodeURI: "/r/0-1/0-0", WaypointOffset: off(1)},
		catalog.Step{NodeURI: target},
	), s, exp)
	require.True(t, ok)
	record(p)

	_, err := s.ApplyChildren("/r/0-1", 0, kids("/r/0-1", 0, waypoint))
	require.NoError(t, err)
	record(r.Resume(s, exp))
	record(r.Resume(s, exp))

	_, err = s.ApplyChildren("/r/0-1/0-0", 1, kids("/r/0-1/0-0", 1, waypoint))
	require.NoError(t, err)
	record(r.Resume(s, exp))
	_, err = s.ApplyChildren("/r/0-1/0-0", 0, kids("/r/0-1/0-0", 0, waypoint))
	require.NoError(t, err)
	p = r.Resume(s, exp)
	record(p)
	require.True(t, p.Done)

	require.Equal(t, map[Load]int{
		{"/r/0-1", 0}:     1,
		{"/r/0-1/0-0", 0}: 1,
		{"/r/0-1/0-0", 1}: 1,
	}, requested)
}

func TestWaitsOnPageAlreadyInFlight(t *testing.T) {
	s := newStore(t)
	exp := view.NewExpansionSet()
	r := New()
	target := "/r/0-1/0-0"

	// A user expand already requested the page.
	require.True(t, s.Reserve("/r/0-1", 0))

	tok, _ := r.Begin(target, s)
	p, _ := r.ApplySteps(tok, pathTo(target, catalog.Step{NodeURI: "/r/0-1", WaypointOffset: off(0)}), s, exp)
	require.True(t, p.Waiting)
	require.Empty(t, p.Loads)

	_, err := s.ApplyChildren("/r/0-1", 0, kids("/r/0-1", 0, 1))
	require.NoError(t, err)
	p = r.Resume(s, exp)
	require.True(t, p.Done)
	require.True(t, exp.Has("/r/0-1"))
}

func TestAwaitedPageFailureAbandons(t *testing.T) {
	s := newStore(t)
	exp := view.NewExpansionSet()
	r := New()
	target := "/r/0-1/0-0"

	tok, _ := r.Begin(target, s)
	p, _ := r.ApplySteps(tok, pathTo(target, catalog.Step{NodeURI: "/r/0-1", WaypointOffset: off(0)}), s, exp)
	require.Len(t, p.Loads, 1)

	s.FailChildren("/r/0-1", 0, types.ErrNetwork)
	p = r.Resume(s, exp)
	require.ErrorIs(t, p.Err, types.ErrNetwork)
	_, active := r.Active()
	require.False(t, active)
}

func TestMissingStepIsNotFound(t *testing.T) {
	s := newStore(t)
	r := New()
	tok, _ := r.Begin("/x/y", s)
	p, ok := r.ApplySteps(tok, pathTo("/x/y", catalog.Step{NodeURI: "/x", WaypointOffset: off(0)}), s, view.NewExpansionSet())
	require.True(t, ok)
	require.ErrorIs(t, p.Err, types.ErrNotFound)
}

func TestTargetAbsentAfterStepsIsNotFound(t *testing.T) {
	s := newStore(t)
	exp := view.NewExpansionSet()
	r := New()
	tok, _ := r.Begin("/r/0-0/9-9", s)
	p, _ := r.ApplySteps(tok, pathTo("/r/0-0/9-9", catalog.Step{NodeURI: "/r/0-0", WaypointOffset: off(0)}), s, exp)
	require.True(t, p.Waiting)

	_, err := s.ApplyChildren("/r/0-0", 0, kids("/r/0-0", 0, 1))
	require.NoError(t, err)
	p = r.Resume(s, exp)
	require.ErrorIs(t, p.Err, types.ErrNotFound)
}

func TestNewerBeginSupersedes(t *testing.T) {
	s := newStore(t)
	exp := view.NewExpansionSet()
	r := New()

	t1, _ := r.Begin("/r/0-0/0-0", s)
	t2, _ := r.Begin("/r/0-1/0-0", s)

	_, ok := r.ApplySteps(t1, pathTo("/r/0-0/0-0", catalog.Step{NodeURI: "/r/0-0", WaypointOffset: off(0)}), s, exp)
	require.False(t, ok)
	require.False(t, exp.Has("/r/0-0"))

	_, ok = r.Fail(t1, types.ErrNetwork)
	require.False(t, ok)

	target, active := r.Active()
	require.True(t, active)
	require.Equal(t, "/r/0-1/0-0", target)

	p, ok := r.Fail(t2, types.ErrNetwork)
	require.True(t, ok)
	require.ErrorIs(t, p.Err, types.ErrNetwork)
}

func TestResumeIdle(t *testing.T) {
	s := newStore(t)
	r := New()
	require.Equal(t, Progress{}, r.Resume(s, view.NewExpansionSet()))

	r.Begin("/r/x", s)
	require.Equal(t, Progress{}, r.Resume(s, view.NewExpansionSet()), "waiting for ResolvePath")
	r.Cancel()
	_, active := r.Active()
	require.False(t, active)
}
