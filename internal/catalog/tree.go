package catalog

import (
	"slices"
	"strings"

	"github.com/slok/runview/internal/model"
)

// Dir is a virtual directory of the artifact tree.
type Dir struct {
	Name  string
	Path  string
	Dirs  []Dir
	Files []File
}

// File is an artifact leaf of the tree.
type File struct {
	Name     string
	Path     string
	Artifact model.Artifact
}

type mutableDir struct {
	name  string
	path  string
	dirs  map[string]*mutableDir
	files map[string]File
}

func newMutableDir(name, path string) *mutableDir {
	return &mutableDir{
		name:  name,
		path:  path,
		dirs:  map[string]*mutableDir{},
		files: map[string]File{},
	}
}

// BuildTree builds the directory tree from the artifact names treated as `/` delimited
// paths. At every level subdirectories are listed before files, each group sorted by name.
func BuildTree(artifacts []model.Artifact) Dir {
	root := newMutableDir("", "")

	for _, a := range artifacts {
		parts := splitPath(a.Name)
		if len(parts) == 0 {
			continue
		}

		cur := root
		for i, part := range parts {
			nextPath := part
			if cur.path != "" {
				nextPath = cur.path + "/" + part
			}
			key := strings.ToLower(nextPath)

			if i == len(parts)-1 {
				cur.files[key] = File{Name: part, Path: nextPath, Artifact: a}
				continue
			}

			next, ok := cur.dirs[key]
			if !ok {
				next = newMutableDir(part, nextPath)
				cur.dirs[key] = next
			}
			cur = next
		}
	}

	return root.freeze()
}

func (d *mutableDir) freeze() Dir {
	out := Dir{
		Name:  d.name,
		Path:  d.path,
		Dirs:  make([]Dir, 0, len(d.dirs)),
		Files: make([]File, 0, len(d.files)),
	}

	for _, sub := range d.dirs {
		out.Dirs = append(out.Dirs, sub.freeze())
	}
	for _, f := range d.files {
		out.Files = append(out.Files, f)
	}

	slices.SortFunc(out.Dirs, func(a, b Dir) int { return compareNames(a.Name, b.Name) })
	slices.SortFunc(out.Files, func(a, b File) int { return compareNames(a.Name, b.Name) })

	return out
}

func splitPath(name string) []string {
	raw := strings.Split(strings.ReplaceAll(name, `\`, "/"), "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// DirState remembers the open state of the tree directories by path.
type DirState map[string]bool

// IsOpen returns the directory state. Top level directories are open by default,
// deeper ones closed.
func (d DirState) IsOpen(path string) bool {
	if v, ok := d[path]; ok {
		return v
	}
	return len(strings.Split(path, "/")) <= 1
}

// Toggle returns a new state with the directory flipped.
func (d DirState) Toggle(path string) DirState {
	out := make(DirState, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	out[path] = !d.IsOpen(path)
	return out
}

// RowKind is the kind of a flattened tree row.
type RowKind string

const (
	RowKindDir  RowKind = "dir"
	RowKindFile RowKind = "file"
)

// Row is a visible line of the tree.
type Row struct {
	Kind     RowKind
	Name     string
	Path     string
	Depth    int
	Open     bool
	Artifact model.Artifact
}

// Flatten returns the visible rows of the tree honoring the directory states.
func Flatten(root Dir, dirs DirState) []Row {
	rows := []Row{}
	var walk func(d Dir, depth int)
	walk = func(d Dir, depth int) {
		for _, sub := range d.Dirs {
			open := dirs.IsOpen(sub.Path)
			rows = append(rows, Row{Kind: RowKindDir, Name: sub.Name, Path: sub.Path, Depth: depth, Open: open})
			if open {
				walk(sub, depth+1)
			}
		}
		for _, f := range d.Files {
			rows = append(rows, Row{Kind: RowKindFile, Name: f.Name, Path: f.Path, Depth: depth, Artifact: f.Artifact})
		}
	}
	walk(root, 0)

	return rows
}
