// Package folderindex projects the folder catalog into browsable shapes:
// flat child listings and a nested tree.
package folderindex

import (
	"context"
	"sort"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/contentstore/catalog"
)

// Node is one folder in the nested tree projection.
type Node struct {
	Folder   catalog.Folder `json:"folder"`
	Depth    int            `json:"depth"`
	Children []*Node        `json:"children,omitempty"`
}

// Index reads the folder catalog. It holds no state of its own.
type Index struct {
	catalog catalog.Catalog
}

// New creates a folder index over the given catalog.
func New(cat catalog.Catalog) *Index {
	return &Index{catalog: cat}
}

// Resolve returns the owner's folders directly under the given parent,
// root folders when parentID is nil, sorted by name.
func (i *Index) Resolve(ctx context.Context, ownerID string, parentID *string) ([]catalog.Folder, error) {
	folders, err := i.catalog.ListFolders(ctx, ownerID, parentID)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return folders, nil
}

// Tree returns the owner's complete folder hierarchy as a forest of root
// nodes. Built from a single catalog read; siblings are sorted by name at
// every level.
func (i *Index) Tree(ctx context.Context, ownerID string) ([]*Node, error) {
	folders, err := i.catalog.ListAllFolders(ctx, ownerID)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	byParent := lo.GroupBy(folders, func(f catalog.Folder) string {
		if f.ParentFolderID == nil {
			return ""
		}
		return *f.ParentFolderID
	})

	return buildLevel(byParent, "", 0), nil
}

func buildLevel(byParent map[string][]catalog.Folder, parentID string, depth int) []*Node {
	children := byParent[parentID]
	if len(children) == 0 {
		return nil
	}

	sort.Slice(children, func(a, b int) bool {
		return children[a].Name < children[b].Name
	})

	nodes := make([]*Node, 0, len(children))
	for _, f := range children {
		nodes = append(nodes, &Node{
			Folder:   f,
			Depth:    depth,
			Children: buildLevel(byParent, f.ID, depth+1),
		})
	}
	return nodes
}
