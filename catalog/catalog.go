// Package catalog is the typed client for the remote archival catalog.
//
// The Catalog interface is what the rest of arctree depends on; Client is the
// HTTP implementation. Every call takes a context and returns a *types.Error
// classified as network, not-found or malformed on failure.
package catalog

import "context"

// Catalog is the remote archival catalog as seen by the tree engine.
type Catalog interface {
	// Root returns the collection root plus its first page of children.
	Root(ctx context.Context, resourceID, repositoryID string) (*RootResponse, error)

	// Children returns one page of parentURI's children starting at the
	// given waypoint offset. Offsets count pages, not records.
	Children(ctx context.Context, resourceID, repositoryID, parentURI string, offset int) (*ChildrenResponse, error)

	// Search returns one page of hits.
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)

	// ResolvePath returns, for each node URI, the root-first chain of ancestor
	// steps needed to materialize it.
	ResolvePath(ctx context.Context, resourceID, repositoryID string, nodeURIs []string) (*PathResponse, error)
}
