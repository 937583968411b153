package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arctree/internal/export"
)

var (
	treeDepth    int
	treeAllPages bool
	treeCompact  bool
	treeURIs     bool
)

func init() {
	cmd := newTreeCmd()
	cmd.Flags().IntVar(&treeDepth, "depth", 2, "Levels to load below the collection root")
	cmd.Flags().BoolVar(&treeAllPages, "all-pages", false, "Load every children page, not just the first")
	cmd.Flags().BoolVar(&treeCompact, "compact", false, "Compact output")
	cmd.Flags().BoolVar(&treeURIs, "uris", false, "Show record URIs")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <resource>",
		Short: "Display a collection's hierarchy",
		Long: `The tree command loads a collection root and expands it level by level,
then prints the loaded hierarchy. Only the first children page of each
record is loaded unless --all-pages is given.

Example:
  arcctl tree 42
  arcctl tree 42 --depth 3 --uris
  arcctl tree 42 --depth 1 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd.Context(), args)
		},
	}
	return cmd
}

func runTree(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	s := newSession(client, cfg)
	defer s.Close()

	printVerbose("Loading collection %s\n", args[0])
	if err := s.load(ctx, args[0], cfg.Repository); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := s.expandTo(ctx, treeDepth, treeAllPages); err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.MaxDepth = treeDepth
	opts.ShowURIs = treeURIs
	if jsonOut {
		opts.Format = export.FormatJSON
	}
	if treeCompact {
		opts.IndentSize = 1
	}
	if err := export.Write(os.Stdout, s.eng.Snapshot().Root, opts); err != nil {
		return fmt.Errorf("failed to display tree: %w", err)
	}

	for _, n := range s.eng.Store().Descendants(s.eng.Snapshot().Root.URI) {
		if offs := n.Pagination().FailedOffsets(); len(offs) > 0 {
			printError("%s: pages %v failed to load\n", n.URI, offs)
		}
	}
	return nil
}
