package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/catalog"
	"github.com/slok/runview/internal/model"
)

func TestBuildTree(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	arts := []model.Artifact{art("1", "src/app.js"), art("2", "index.html"), art("3", "src/lib/util.js")}
	tree := catalog.BuildTree(arts)

	require.Len(tree.Dirs, 1)
	require.Len(tree.Files, 1)
	assert.Equal("index.html", tree.Files[0].Name)

	src := tree.Dirs[0]
	assert.Equal("src", src.Name)
	assert.Equal("src", src.Path)
	require.Len(src.Dirs, 1)
	require.Len(src.Files, 1)
	assert.Equal("lib", src.Dirs[0].Name)
	assert.Equal("src/lib", src.Dirs[0].Path)
	assert.Equal("app.js", src.Files[0].Name)
	assert.Equal("src/lib/util.js", src.Dirs[0].Files[0].Path)

	// Building again (in any input order) should produce the same tree.
	again := catalog.BuildTree([]model.Artifact{arts[2], arts[1], arts[0]})
	assert.Equal(tree, again)
}

func TestBuildTreeNormalization(t *testing.T) {
	arts := []model.Artifact{
		art("1", `web\css\main.css`),
		art("2", "/web//index.html"),
		art("3", ""),
		art("4", "b.txt"),
		art("5", "A.txt"),
	}

	rows := catalog.Flatten(catalog.BuildTree(arts), catalog.DirState{"web/css": true})

	exp := []catalog.Row{
		{Kind: catalog.RowKindDir, Name: "web", Path: "web", Depth: 0, Open: true},
		{Kind: catalog.RowKindDir, Name: "css", Path: "web/css", Depth: 1, Open: true},
		{Kind: catalog.RowKindFile, Name: "main.css", Path: "web/css/main.css", Depth: 2, Artifact: arts[0]},
		{Kind: catalog.RowKindFile, Name: "index.html", Path: "web/index.html", Depth: 1, Artifact: arts[1]},
		{Kind: catalog.RowKindFile, Name: "A.txt", Path: "A.txt", Depth: 0, Artifact: arts[4]},
		{Kind: catalog.RowKindFile, Name: "b.txt", Path: "b.txt", Depth: 0, Artifact: arts[3]},
	}
	assert.Equal(t, exp, rows)
}

func TestDirState(t *testing.T) {
	tests := map[string]struct {
		state   catalog.DirState
		toggle  []string
		path    string
		expOpen bool
	}{
		"Top level directories should be open by default.": {
			path:    "src",
			expOpen: true,
		},
		"Nested directories should be closed by default.": {
			path:    "src/lib",
			expOpen: false,
		},
		"Toggling a default open directory should close it.": {
			toggle:  []string{"src"},
			path:    "src",
			expOpen: false,
		},
		"Toggling twice should restore the state.": {
			toggle:  []string{"src/lib", "src/lib"},
			path:    "src/lib",
			expOpen: false,
		},
		"Toggled state should be remembered per path.": {
			toggle:  []string{"src/lib", "other"},
			path:    "src/lib",
			expOpen: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := test.state
			for _, p := range test.toggle {
				s = s.Toggle(p)
			}

			assert.Equal(t, test.expOpen, s.IsOpen(test.path))
		})
	}
}

func TestDirStateToggleIsPure(t *testing.T) {
	orig := catalog.DirState{}
	_ = orig.Toggle("src")

	assert.Empty(t, orig)
}

func TestFlattenClosedDirectories(t *testing.T) {
	arts := []model.Artifact{art("1", "src/lib/util.js"), art("2", "src/app.js")}

	rows := catalog.Flatten(catalog.BuildTree(arts), catalog.DirState{})

	exp := []catalog.Row{
		{Kind: catalog.RowKindDir, Name: "src", Path: "src", Depth: 0, Open: true},
		{Kind: catalog.RowKindDir, Name: "lib", Path: "src/lib", Depth: 1, Open: false},
		{Kind: catalog.RowKindFile, Name: "app.js", Path: "src/app.js", Depth: 1, Artifact: arts[1]},
	}
	assert.Equal(t, exp, rows)
}
