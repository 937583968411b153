package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arctree/tree"
)

var childrenOffset int

func init() {
	cmd := newChildrenCmd()
	cmd.Flags().IntVar(&childrenOffset, "offset", 0, "Waypoint (page) offset")
	rootCmd.AddCommand(cmd)
}

func newChildrenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children <resource> <parent-uri>",
		Short: "List one page of a record's children",
		Long: `The children command fetches a single children page ("waypoint") of a
record, exactly as the catalog returns it.

Example:
  arcctl children 42 /repositories/2/archival_objects/17
  arcctl children 42 /repositories/2/archival_objects/17 --offset 3 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChildren(cmd.Context(), args)
		},
	}
	return cmd
}

type childJSON struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Level       string `json:"level,omitempty"`
	Status      string `json:"status,omitempty"`
	HasChildren bool   `json:"has_children"`
}

func runChildren(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	resp, err := client.Children(ctx, args[0], cfg.Repository, args[1], childrenOffset)
	if err != nil {
		return fmt.Errorf("failed to load children: %w", err)
	}
	nodes, skipped := tree.NormalizePage(resp.Children)
	if skipped > 0 {
		printVerbose("Skipped %d records without a URI\n", skipped)
	}

	if jsonOut {
		out := make([]childJSON, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, childJSON{
				URI:         n.URI,
				Title:       n.Title,
				Level:       n.Level,
				Status:      n.Status.Label,
				HasChildren: n.HasChildren,
			})
		}
		return printJSON(out)
	}

	for _, n := range nodes {
		marker := " "
		if n.HasChildren {
			marker = "+"
		}
		printInfo("%s %s [%s] <%s>\n", marker, n.Title, n.Level, n.URI)
	}
	printVerbose("%d records at offset %d\n", len(nodes), childrenOffset)
	return nil
}
