package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arctree/filter"
	"github.com/joshuapare/arctree/pkg/types"
	"github.com/joshuapare/arctree/search"
)

var (
	searchLevels   []string
	searchStatuses []string
	searchFilters  []string
	searchWithin   string
	searchField    string
	searchPage     int
	searchPageSize int
	searchGlobal   bool
	searchLocal    bool
	searchDepth    int
)

func init() {
	cmd := newSearchCmd()
	cmd.Flags().StringSliceVar(&searchLevels, "level", nil, "Restrict to levels (series, file, ...)")
	cmd.Flags().StringSliceVar(&searchStatuses, "status", nil, "Restrict to statuses (available, needs-attention, restricted)")
	cmd.Flags().StringArrayVar(&searchFilters, "filter", nil, "Raw backend filter term (repeatable)")
	cmd.Flags().StringVar(&searchWithin, "within", "", "Only records below this URI")
	cmd.Flags().StringVar(&searchField, "field", "", "Match one field: title, identifier, status, location")
	cmd.Flags().IntVar(&searchPage, "page", 1, "Results page")
	cmd.Flags().IntVar(&searchPageSize, "page-size", 0, "Results per page (default from config)")
	cmd.Flags().BoolVar(&searchGlobal, "global", false, "Search the whole catalog")
	cmd.Flags().BoolVar(&searchLocal, "local", false, "Load the tree and search it in memory")
	cmd.Flags().IntVar(&searchDepth, "depth", 3, "Levels to load for --local")
	rootCmd.AddCommand(cmd)
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <resource|-> [query]",
		Short: "Search records in a collection or across the catalog",
		Long: `The search command runs a paged catalog search. Pass "-" as the resource
(or --global) to search across collections. A blank query with filters
matches everything that passes the filters.

Example:
  arcctl search 42 "annual report"
  arcctl search 42 --status restricted --level file
  arcctl search - correspondence --global --page 2
  arcctl search 42 diary --local --depth 4`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args)
		},
	}
	return cmd
}

func searchFacets() (filter.Facets, error) {
	f := filter.Facets{
		Levels:   searchLevels,
		Anchor:   searchWithin,
		Advanced: searchFilters,
	}
	for _, s := range searchStatuses {
		c, err := types.ParseStatusClass(s)
		if err != nil {
			return f, err
		}
		f.Statuses = append(f.Statuses, c)
	}
	return f, nil
}

func runSearch(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	resource := args[0]
	if resource == "-" {
		resource = ""
	}
	var query string
	if len(args) > 1 {
		query = args[1]
	}
	field, ok := search.ParseField(strings.ToLower(searchField))
	if !ok {
		return fmt.Errorf("unknown field %q", searchField)
	}
	facets, err := searchFacets()
	if err != nil {
		return err
	}

	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	pageSize := cfg.PageSize
	if searchPageSize > 0 {
		pageSize = searchPageSize
	}

	if searchLocal {
		if resource == "" {
			return errors.New("--local needs a resource")
		}
		s := newSession(client, cfg)
		defer s.Close()
		if err := s.load(ctx, resource, cfg.Repository); err != nil {
			return fmt.Errorf("failed to load collection: %w", err)
		}
		if err := s.expandTo(ctx, searchDepth, true); err != nil {
			return err
		}
		q := strings.TrimSpace(query)
		if q == "" && !facets.IsEmpty() {
			q = types.WildcardQuery
		}
		if q == "" {
			return errors.New("nothing to search for: give a query or a filter")
		}
		results := search.Local(s.eng.Store(), q, field, facets)
		return printResults(search.State{
			Query:    q,
			Strategy: search.StrategyLocal,
			Results:  results,
			Total:    len(results),
			Page:     1,
			PageSize: len(results),
		})
	}

	if searchGlobal {
		resource = ""
	}
	o := search.New(search.Options{PageSize: pageSize})
	o.SetScope(search.Scope{
		ResourceID:   resource,
		RepositoryID: cfg.Repository,
		Global:       resource == "",
	})
	o.SetQuery(query)
	o.SetField(field)
	o.SetFacets(facets)

	req, ok := o.Begin()
	if !ok {
		return errors.New("nothing to search for: give a query or a filter")
	}
	if searchPage > 1 {
		req.Search.Page = searchPage
	}
	printVerbose("Searching %s for %q (page %d)\n", req.Search.Scope, req.Search.Query, req.Search.Page)

	resp, err := client.Search(ctx, req.Search)
	if err != nil {
		o.Fail(req.Token, err)
		return fmt.Errorf("search failed: %w", err)
	}
	o.Apply(req.Token, resp)
	return printResults(o.State())
}

type hitJSON struct {
	Ordinal   int      `json:"ordinal"`
	URI       string   `json:"uri"`
	Title     string   `json:"title"`
	Level     string   `json:"level,omitempty"`
	Status    string   `json:"status,omitempty"`
	Ancestors []string `json:"ancestors,omitempty"`
}

type resultsJSON struct {
	Query    string    `json:"query"`
	Strategy string    `json:"strategy"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Hits     []hitJSON `json:"hits"`
}

func printResults(st search.State) error {
	start := st.PageStart()
	if jsonOut {
		out := resultsJSON{
			Query:    st.Query,
			Strategy: st.Strategy.String(),
			Total:    st.Total,
			Page:     st.Page,
			Pages:    st.Pages(),
			Hits:     make([]hitJSON, 0, len(st.Results)),
		}
		for i, m := range st.Results {
			out.Hits = append(out.Hits, hitJSON{
				Ordinal:   start + i,
				URI:       m.URI,
				Title:     m.Title,
				Level:     m.Level,
				Status:    m.Status.Label,
				Ancestors: m.Ancestors,
			})
		}
		return printJSON(out)
	}

	printInfo("%d hits (page %d of %d, %s)\n", st.Total, st.Page, st.Pages(), st.Strategy)
	for i, m := range st.Results {
		printInfo("%4d. %s", start+i+1, m.Title)
		if m.Level != "" {
			printInfo(" [%s]", m.Level)
		}
		if m.Status.Label != "" {
			printInfo(" {%s}", m.Status.Label)
		}
		printInfo(" <%s>\n", m.URI)
		printVerbose("      in %s\n", strings.Join(m.Ancestors, " > "))
	}
	return nil
}
