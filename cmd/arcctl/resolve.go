package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arctree/catalog"
)

func init() {
	rootCmd.AddCommand(newResolveCmd())
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [resource] <uri>",
		Short: "Show where a record sits in its collection",
		Long: `The resolve command loads a collection, hydrates the path down to a
record and prints its breadcrumb from the collection root. The resource
may be omitted when the URI names it.

Example:
  arcctl resolve /repositories/2/archival_objects/981 --repository 2
  arcctl resolve 42 /repositories/2/archival_objects/981 --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args)
		},
	}
	return cmd
}

type crumbJSON struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
	Level string `json:"level,omitempty"`
}

func runResolve(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	resource, uri := "", args[len(args)-1]
	if len(args) == 2 {
		resource = args[0]
	} else if _, res, ok := catalog.ResourceFromURI(uri); ok {
		resource = res
	} else {
		return fmt.Errorf("cannot tell the resource of %s; pass it explicitly", uri)
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	s := newSession(client, cfg)
	defer s.Close()

	if err := s.load(ctx, resource, cfg.Repository); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := s.run(ctx, s.eng.RevealHit(uri)); err != nil {
		return err
	}
	if len(s.errs) > 0 {
		return fmt.Errorf("failed to resolve %s: %w", uri, s.errs[0])
	}

	snap := s.eng.Snapshot()
	if snap.Focus != uri {
		return fmt.Errorf("failed to resolve %s", uri)
	}
	if jsonOut {
		out := make([]crumbJSON, 0, len(snap.Breadcrumb))
		for _, n := range snap.Breadcrumb {
			out = append(out, crumbJSON{URI: n.URI, Title: n.Title, Level: n.Level})
		}
		return printJSON(out)
	}
	for i, n := range snap.Breadcrumb {
		printInfo("%s%s [%s] <%s>\n", strings.Repeat("  ", i), n.Title, n.Level, n.URI)
	}
	return nil
}
