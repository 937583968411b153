package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/pkg/types"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		raw   string
		class types.StatusClass
		label string
	}{
		{"", types.StatusNone, ""},
		{"   ", types.StatusNone, ""},
		{"restricted", types.StatusError, LabelRestricted},
		{"Access RESTRICTIONS apply", types.StatusError, LabelRestricted},
		{"warning", types.StatusWarning, LabelNeedsAttention},
		{"needs_attention", types.StatusWarning, LabelNeedsAttention},
		{"restricted-warning", types.StatusError, LabelRestricted},
		{"open", types.StatusSuccess, LabelAvailable},
		{"in_process", types.StatusSuccess, LabelAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := DeriveStatus(tt.raw)
			require.Equal(t, tt.class, got.Class)
			require.Equal(t, tt.label, got.Label)
			require.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := Normalize(catalog.RawNode{URI: "/r/1", Identifier: "MS-1", Type: "series"})
	require.Equal(t, "MS-1", n.Title)
	require.Equal(t, "series", n.Level)
	require.Equal(t, types.StatusNone, n.Status.Class)
	require.False(t, n.HasChildren)

	n = Normalize(catalog.RawNode{URI: "/r/2", ChildCount: 4})
	require.Equal(t, "/r/2", n.Title)
	require.True(t, n.HasChildren)
}

func TestNormalizePageSkipsRecordsWithoutURI(t *testing.T) {
	nodes, skipped := NormalizePage([]catalog.RawNode{{URI: "/a"}, {Title: "orphan"}, {URI: "/b"}})
	require.Equal(t, 1, skipped)
	require.Len(t, nodes, 2)
	require.Equal(t, "/a", nodes[0].URI)
	require.Equal(t, "/b", nodes[1].URI)
}

// TestNormalizeIsTotal checks that arbitrary input never panics and always
// yields a status in the known set.
func TestNormalizeIsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := catalog.RawNode{
			URI:        rapid.String().Draw(t, "uri"),
			Title:      rapid.String().Draw(t, "title"),
			StatusType: rapid.String().Draw(t, "status"),
			ChildCount: rapid.IntRange(-5, 5).Draw(t, "count"),
		}
		n := Normalize(raw)
		switch n.Status.Class {
		case types.StatusNone, types.StatusSuccess, types.StatusWarning, types.StatusError:
		default:
			t.Fatalf("unexpected class %q", n.Status.Class)
		}
		if raw.URI != "" && n.Title == "" {
			t.Fatalf("empty title for %q", raw.URI)
		}
	})
}
