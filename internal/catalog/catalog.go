// Package catalog classifies, filters, sorts and organizes the finalized artifacts of
// a run into a navigable tree.
package catalog

import (
	"slices"
	"strings"

	"github.com/slok/runview/internal/model"
)

// Well known bookkeeping artifact names.
const (
	MetaFinalOutput   = "final_output.json"
	MetaFilesManifest = "files_manifest.json"
)

var metaNames = map[string]bool{
	MetaFinalOutput:   true,
	MetaFilesManifest: true,
}

// Entry point files are listed first, in this order.
var entryRanks = map[string]int{
	"index.html": 0,
	"app.js":     1,
	"style.css":  2,
}

const defaultRank = 10

// IsMeta returns true for bookkeeping artifacts.
func IsMeta(a model.Artifact) bool {
	return metaNames[a.Name]
}

// Catalog is the partitioned, filtered and sorted artifact list.
type Catalog struct {
	Code []model.Artifact
	Meta []model.Artifact
}

// Build partitions artifacts into code and meta, applies the case insensitive name
// filter to each partition and sorts them.
func Build(artifacts []model.Artifact, query string) Catalog {
	q := strings.ToLower(strings.TrimSpace(query))
	c := Catalog{
		Code: []model.Artifact{},
		Meta: []model.Artifact{},
	}

	for _, a := range artifacts {
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) {
			continue
		}
		if IsMeta(a) {
			c.Meta = append(c.Meta, a)
		} else {
			c.Code = append(c.Code, a)
		}
	}

	slices.SortStableFunc(c.Code, func(a, b model.Artifact) int {
		ra, rb := rank(a.Name), rank(b.Name)
		if ra != rb {
			return ra - rb
		}
		return compareNames(a.Name, b.Name)
	})
	slices.SortStableFunc(c.Meta, func(a, b model.Artifact) int {
		return compareNames(a.Name, b.Name)
	})

	return c
}

// Empty returns true when both partitions are empty.
func (c Catalog) Empty() bool { return len(c.Code) == 0 && len(c.Meta) == 0 }

// First returns the default selection: the first code artifact, otherwise the first
// meta artifact.
func (c Catalog) First() (model.Artifact, bool) {
	if len(c.Code) > 0 {
		return c.Code[0], true
	}
	if len(c.Meta) > 0 {
		return c.Meta[0], true
	}
	return model.Artifact{}, false
}

// Find returns the artifact with id from the full list.
func Find(artifacts []model.Artifact, id string) (model.Artifact, bool) {
	for _, a := range artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Artifact{}, false
}

func rank(name string) int {
	if r, ok := entryRanks[strings.ToLower(name)]; ok {
		return r
	}
	return defaultRank
}

// compareNames orders case insensitive first so `App.js` and `app.css` sit together.
func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
