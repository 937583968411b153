package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/goccy/go-json"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/pkg/types"
)

// NewServer serves f over the catalog HTTP protocol. The server is closed
// when the test finishes.
//
// Example:
//
//	srv := testutil.NewServer(t, fake)
//	client, _ := catalog.NewClient(catalog.ClientOptions{BaseURL: srv.URL})
func NewServer(t *testing.T, f *FakeCatalog) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for _, prefix := range []string{"", "/repositories/{repo}"} {
		mux.HandleFunc("GET "+prefix+"/resources/{id}/tree/root", func(w http.ResponseWriter, r *http.Request) {
			resp, err := f.Root(r.Context(), r.PathValue("id"), r.PathValue("repo"))
			reply(w, resp, err)
		})
		mux.HandleFunc("GET "+prefix+"/resources/{id}/tree/children", func(w http.ResponseWriter, r *http.Request) {
			offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
			if err != nil {
				http.Error(w, "bad offset", http.StatusBadRequest)
				return
			}
			resp, err := f.Children(r.Context(), r.PathValue("id"), r.PathValue("repo"), r.URL.Query().Get("parent_uri"), offset)
			reply(w, resp, err)
		})
		mux.HandleFunc("POST "+prefix+"/resources/{id}/tree/resolve", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				NodeURIs []string `json:"node_uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			resp, err := f.ResolvePath(r.Context(), r.PathValue("id"), r.PathValue("repo"), body.NodeURIs)
			reply(w, resp, err)
		})
		mux.HandleFunc("GET "+prefix+"/search", func(w http.ResponseWriter, r *http.Request) {
			resp, err := f.Search(r.Context(), searchRequest(r))
			reply(w, resp, err)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func searchRequest(r *http.Request) catalog.SearchRequest {
	q := r.URL.Query()
	req := catalog.SearchRequest{
		Scope:        catalog.ScopeGlobal,
		ResourceID:   q.Get("resource_id"),
		RepositoryID: r.PathValue("repo"),
		Query:        q.Get("q"),
		Field:        q.Get("field"),
		Options: catalog.SearchOptions{
			Levels:       q["level[]"],
			AncestorURIs: q["ancestor_uri[]"],
			FilterTerms:  q["filter_term[]"],
		},
	}
	if req.ResourceID != "" {
		req.Scope = catalog.ScopeCollection
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return req
}

func reply(w http.ResponseWriter, v any, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, types.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
