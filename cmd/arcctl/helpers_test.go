package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/internal/config"
	"github.com/joshuapare/arctree/internal/testutil"
)

const (
	testResource = "42"
	testRoot     = "/repositories/2/resources/42"
	testSeries   = "/repositories/2/archival_objects/1"
	testFile     = "/repositories/2/archival_objects/12"
)

// testCatalog serves a small collection:
//
//	Papers of A. Person
//	├── Correspondence (series; Letters, Annual report on page 0, Postcards on page 1)
//	└── Photographs (series, no children)
func testCatalog(t *testing.T) (*testutil.FakeCatalog, string) {
	t.Helper()
	f := testutil.NewFake()
	f.SetRoot(testResource,
		catalog.RawNode{URI: testRoot, Title: "Papers of A. Person", Level: "collection", HasChildren: true},
		2,
		testutil.Branch(testSeries, "Correspondence", 3),
		catalog.RawNode{URI: "/repositories/2/archival_objects/2", Title: "Photographs", Level: "series"},
	)
	f.SetPage(testSeries, 0,
		catalog.RawNode{URI: "/repositories/2/archival_objects/11", Title: "Letters", Level: "file"},
		catalog.RawNode{URI: testFile, Title: "Annual report", Level: "file", StatusType: "restricted"},
	)
	f.SetPage(testSeries, 1,
		catalog.RawNode{URI: "/repositories/2/archival_objects/13", Title: "Postcards", Level: "file"},
	)
	f.SetPage(testRoot, 1)
	srv := testutil.NewServer(t, f)
	return f, srv.URL
}

// resetFlags restores every command flag to its default and points the
// config at an empty temp location.
func resetFlags(t *testing.T, url string) {
	t.Helper()
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvRepository, "")

	verbose, quiet, jsonOut = false, false, false
	baseURL, repository = url, ""
	configPath = filepath.Join(t.TempDir(), "config.yaml")

	treeDepth, treeAllPages, treeCompact, treeURIs = 2, false, false, false
	childrenOffset = 0
	searchLevels, searchStatuses, searchFilters = nil, nil, nil
	searchWithin, searchField = "", ""
	searchPage, searchPageSize = 1, 0
	searchGlobal, searchLocal, searchDepth = false, false, 3
	exportFormat, exportOut, exportDepth = "json", "-", 2
	exportAllPages, exportFullSync = false, false
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return <-done, fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
