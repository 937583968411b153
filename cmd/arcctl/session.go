package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/internal/config"
)

// fetchConcurrency bounds catalog requests in flight during one wave.
const fetchConcurrency = 4

// session drives an engine without a terminal: each wave of commands runs
// concurrently, then the resulting messages are applied to the engine one at
// a time, the way the bubbletea loop would.
type session struct {
	eng    *engine.Engine
	router *engine.MemoryRouter
	errs   []error
}

func newSession(cat catalog.Catalog, cfg config.Config) *session {
	opts := cfg.EngineOptions()
	opts.Catalog = cat
	router := engine.NewMemoryRouter("")
	opts.Router = router
	return &session{eng: engine.New(opts), router: router}
}

func (s *session) Close() { s.eng.Close() }

// run executes cmd and everything it leads to.
func (s *session) run(ctx context.Context, cmd tea.Cmd) error {
	wave := []tea.Cmd{cmd}
	for len(wave) > 0 {
		msgs := make([]tea.Msg, len(wave))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fetchConcurrency)
		for i, c := range wave {
			if c == nil {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				msgs[i] = c()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		wave = nil
		for _, msg := range msgs {
			switch msg := msg.(type) {
			case nil:
			case tea.BatchMsg:
				wave = append(wave, msg...)
			case engine.ErrMsg:
				s.errs = append(s.errs, msg.Err)
			case engine.FocusChangedMsg:
				printVerbose("Focus: %s\n", msg.URI)
			default:
				if next := s.eng.Update(msg); next != nil {
					wave = append(wave, next)
				}
			}
		}
	}
	return nil
}

// load binds the collection and waits for its root.
func (s *session) load(ctx context.Context, resourceID, repositoryID string) error {
	if err := s.run(ctx, s.eng.LoadCollection(resourceID, repositoryID)); err != nil {
		return err
	}
	return s.eng.Snapshot().Err
}

// expandTo expands every materialized branch down to depth levels below the
// root, loading first pages as it goes. With allPages, each expanded node is
// paged to the end before descending.
func (s *session) expandTo(ctx context.Context, depth int, allPages bool) error {
	root := s.eng.Snapshot().Root
	for level := 1; level < depth; level++ {
		if err := s.run(ctx, s.eng.ExpandBranch(root.URI)); err != nil {
			return err
		}
		if allPages {
			if err := s.drainPages(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// drainPages requests further pages of every expanded node until none has more.
func (s *session) drainPages(ctx context.Context) error {
	for {
		var visible []string
		for _, r := range s.eng.Snapshot().Rows {
			if r.Expanded && r.Node.HasMore() && !r.Failed {
				visible = append(visible, r.URI())
			}
		}
		cmd := s.eng.LoadMoreChildrenNear(visible...)
		if cmd == nil {
			return nil
		}
		if err := s.run(ctx, cmd); err != nil {
			return err
		}
	}
}
