package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/arctree/pkg/types"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientOptions{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)

	_, err = NewClient(ClientOptions{BaseURL: "ftp://example.org"})
	require.Error(t, err)

	c, err := NewClient(ClientOptions{BaseURL: "https://example.org/api/", RateLimit: 5})
	require.NoError(t, err)
	require.Equal(t, "/api", c.base.Path)
}

func TestRoot(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/repositories/2/resources/7/tree/root", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"root":{"uri":"/repositories/2/resources/7","title":"Papers","has_children":true},
			"children":[{"uri":"/repositories/2/archival_objects/1","title":"Series 1","level":"series"}],
			"waypoint_size":200}`)
	}))

	resp, err := c.Root(context.Background(), "7", "2")
	require.NoError(t, err)
	require.Equal(t, "/repositories/2/resources/7", resp.Root.URI)
	require.Len(t, resp.Children, 1)
	require.Equal(t, "series", resp.Children[0].Level)
	require.Equal(t, 200, resp.WaypointSize)
}

func TestRootWithoutURIIsMalformed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"root":{"title":"nameless"}}`)
	}))

	_, err := c.Root(context.Background(), "7", "")
	require.ErrorIs(t, err, types.ErrMalformed)
}

func TestChildrenQueryAndEcho(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/resources/7/tree/children", r.URL.Path)
		require.Equal(t, "/r/a", r.URL.Query().Get("parent_uri"))
		require.Equal(t, "3", r.URL.Query().Get("offset"))
		io.WriteString(w, `{"children":[{"uri":"/r/a/1"},{"uri":"/r/a/2"}]}`)
	}))

	resp, err := c.Children(context.Background(), "7", "", "/r/a", 3)
	require.NoError(t, err)
	require.Equal(t, "/r/a", resp.ParentURI)
	require.Equal(t, 3, resp.Offset)
	require.Len(t, resp.Children, 2)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{}`, types.ErrNotFound},
		{"server error", http.StatusBadGateway, `oops`, types.ErrNetwork},
		{"bad json", http.StatusOK, `{"children":`, types.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			_, err := c.Children(context.Background(), "7", "", "/r/a", 0)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(ClientOptions{BaseURL: url})
	require.NoError(t, err)
	_, err = c.Root(context.Background(), "7", "")
	require.ErrorIs(t, err, types.ErrNetwork)

	var te *types.Error
	require.True(t, errors.As(err, &te))
	require.Equal(t, types.ErrKindNetwork, te.Kind)
}

func TestSearchEncodesFacets(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "/api/repositories/2/search", r.URL.Path)
		require.Equal(t, "*", q.Get("q"))
		require.Equal(t, "2", q.Get("page"))
		require.Equal(t, "20", q.Get("page_size"))
		require.Equal(t, "7", q.Get("resource_id"))
		require.Equal(t, []string{"series", "file"}, q["level[]"])
		require.Equal(t, []string{"/r/a"}, q["ancestor_uri[]"])
		require.Equal(t, []string{`{"status_class":"available"}`}, q["filter_term[]"])
		io.WriteString(w, `{"results":[{"uri":"/r/x","title":"X","ancestors":["/r/a"]}],"total_hits":25}`)
	}))

	resp, err := c.Search(context.Background(), SearchRequest{
		Scope:        ScopeCollection,
		ResourceID:   "7",
		RepositoryID: "2",
		Query:        "*",
		Page:         2,
		PageSize:     20,
		Options: SearchOptions{
			Levels:       []string{"series", "file"},
			AncestorURIs: []string{"/r/a"},
			FilterTerms:  []string{`{"status_class":"available"}`},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 25, resp.Total)
	require.Equal(t, 2, resp.Page)
	require.Equal(t, 20, resp.PageSize)
	require.Equal(t, []string{"/r/a"}, resp.Hits[0].Ancestors)
}

func TestSearchGlobalOmitsResource(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search", r.URL.Path)
		require.Empty(t, r.URL.Query().Get("resource_id"))
		io.WriteString(w, `{"results":[],"total_hits":0}`)
	}))

	resp, err := c.Search(context.Background(), SearchRequest{Scope: ScopeGlobal, Query: "letters"})
	require.NoError(t, err)
	require.Zero(t, resp.Total)
	require.Equal(t, 1, resp.Page)
}

func TestSearchCollectionScopeRequiresResource(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Search(context.Background(), SearchRequest{Scope: ScopeCollection, Query: "x"})
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	require.Equal(t, types.ErrKindState, kind)
}

func TestResolvePath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/resources/7/tree/resolve", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"node_uris":["/r/leaf"]}`, string(body))
		io.WriteString(w, `{"paths":{"/r/leaf":[
			{"node_uri":"/r/root"},
			{"node_uri":"/r/a","waypoint_offset":0},
			{"node_uri":"/r/leaf","waypoint_offset":3}]}}`)
	}))

	resp, err := c.ResolvePath(context.Background(), "7", "", []string{"/r/leaf"})
	require.NoError(t, err)
	steps := resp.Paths["/r/leaf"]
	require.Len(t, steps, 3)
	require.Nil(t, steps[0].WaypointOffset)
	require.Equal(t, 3, *steps[2].WaypointOffset)
}

func TestLatin1BodyIsTranscoded(t *testing.T) {
	latin, err := charmap.ISO8859_1.NewEncoder().String(`{"root":{"uri":"/r/1","title":"Correspondência"}}`)
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=ISO-8859-1")
		io.WriteString(w, latin)
	}))

	resp, err := c.Root(context.Background(), "1", "")
	require.NoError(t, err)
	require.Equal(t, "Correspondência", resp.Root.Title)
}

func TestUnknownCharsetIsMalformed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=koi8-r")
		io.WriteString(w, `{}`)
	}))

	_, err := c.Root(context.Background(), "1", "")
	require.ErrorIs(t, err, types.ErrMalformed)
}

func TestIdenticalGetsShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, `{"children":[{"uri":"/r/a/1"}]}`)
	}))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Children(context.Background(), "7", "", "/r/a", 0)
		}(i)
	}
	// Give the goroutines time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.LessOrEqual(t, hits.Load(), int32(4))
	require.GreaterOrEqual(t, hits.Load(), int32(1))
}

func TestSharedGetSurvivesFirstCallerCancel(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		started <- struct{}{}
		<-release
		io.WriteString(w, `{"root":{"uri":"/r","title":"Papers"},"children":[]}`)
	}))

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Root(ctx1, "R1", "")
		first <- err
	}()
	<-started

	second := make(chan error, 1)
	var got *RootResponse
	go func() {
		resp, err := c.Root(context.Background(), "R1", "")
		got = resp
		second <- err
	}()
	// Give the second caller time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)

	cancel1()
	err := <-first
	require.ErrorIs(t, err, types.ErrNetwork)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-second)
	require.Equal(t, "/r", got.Root.URI)
	require.Equal(t, int32(1), hits.Load())
}

func TestResourceFromURI(t *testing.T) {
	repo, res, ok := ResourceFromURI("/repositories/2/resources/7")
	require.True(t, ok)
	require.Equal(t, "2", repo)
	require.Equal(t, "7", res)

	_, _, ok = ResourceFromURI("/repositories/2/archival_objects/9")
	require.False(t, ok)
}
