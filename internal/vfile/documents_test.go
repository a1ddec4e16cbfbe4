package vfile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
	"github.com/dshills/embedls/internal/vfile/vfiletest"
)

const appURI lsp.DocumentURI = "file:///App.vue"

func newStore(t *testing.T) *vfile.Documents {
	t.Helper()
	mod := vfiletest.NewBlockModule("vue",
		vfiletest.Block{Tag: "script", LanguageID: "javascript", Ext: "js", Caps: sourcemap.CapAll},
		vfiletest.Block{Tag: "style", LanguageID: "css", Ext: "css", Caps: sourcemap.CapAll},
	)
	return vfile.NewDocuments(mod)
}

func TestResolvePlainAndComposite(t *testing.T) {
	docs := newStore(t)
	require.NoError(t, docs.Update(appURI, "vue", 1, "<script>let a</script><style>.a{}</style>"))
	require.NoError(t, docs.Update("file:///notes.txt", "plaintext", 4, "hello"))

	res, err := docs.Resolve(appURI)
	require.NoError(t, err)
	assert.True(t, res.IsVirtual())
	require.Len(t, res.Source.Root.Embedded, 2)

	res, err = docs.Resolve("file:///notes.txt")
	require.NoError(t, err)
	assert.False(t, res.IsVirtual())
	assert.Equal(t, 4, res.Document.Version)

	_, err = docs.Resolve("file:///missing.vue")
	assert.True(t, errors.Is(err, vfile.ErrUnknownDocument))
}

func TestVirtualFilesAreIndexed(t *testing.T) {
	docs := newStore(t)
	require.NoError(t, docs.Update(appURI, "vue", 3, "<script>let a</script>"))

	scriptURI := lsp.DocumentURI("file:///App.vue.script_0.js")
	assert.True(t, docs.HasVirtualFile(scriptURI))

	doc, ok := docs.TextDocument(scriptURI)
	require.True(t, ok)
	assert.Equal(t, "let a", doc.Text())
	assert.Equal(t, 3, doc.Version)

	maps := docs.MapsForVirtualFile(scriptURI)
	require.Len(t, maps, 1)
	assert.Equal(t, appURI, maps[0].SourceDocument().URI)

	assert.Empty(t, docs.MapsForVirtualFile("file:///nope.js"))
}

func TestUpdateRebuildsTreeAndMaps(t *testing.T) {
	docs := newStore(t)
	require.NoError(t, docs.Update(appURI, "vue", 1, "<script>a</script><style>b</style>"))
	before := docs.MapsForVirtualFile("file:///App.vue.script_0.js")[0]

	require.NoError(t, docs.Update(appURI, "vue", 2, "<script>abc</script>"))
	after := docs.MapsForVirtualFile("file:///App.vue.script_0.js")[0]

	assert.NotSame(t, before, after)
	assert.True(t, after.Matches(2, 2))
	assert.False(t, docs.HasVirtualFile("file:///App.vue.style_0.css"))
}

func TestCloseForgetsVirtualFiles(t *testing.T) {
	docs := newStore(t)
	require.NoError(t, docs.Update(appURI, "vue", 1, "<script>a</script>"))

	docs.Close(appURI)

	assert.False(t, docs.HasVirtualFile("file:///App.vue.script_0.js"))
	_, err := docs.Resolve(appURI)
	assert.Error(t, err)
}

func TestVisitOrder(t *testing.T) {
	// root -> [a -> [a1, a2], b]
	mod := vfiletest.ModuleFunc{Language: "deep", Fn: func(doc *lsp.TextDocument) (*vfile.VirtualFile, error) {
		leaf := func(name string) *vfile.VirtualFile {
			return &vfile.VirtualFile{URI: lsp.DocumentURI(string(doc.URI) + "." + name), Text: name}
		}
		a := leaf("a")
		a.Embedded = []*vfile.VirtualFile{leaf("a1"), leaf("a2")}
		root := leaf("root")
		root.Embedded = []*vfile.VirtualFile{a, leaf("b")}
		return root, nil
	}}
	docs := vfile.NewDocuments(mod)
	require.NoError(t, docs.Update("file:///x", "deep", 1, "text"))

	res, err := docs.Resolve("file:///x")
	require.NoError(t, err)

	var order []string
	done, err := docs.Visit(context.Background(), res.Source, func(f *vfile.VirtualFile, m *sourcemap.SourceMap) (bool, error) {
		order = append(order, f.Text)
		assert.Same(t, f.Document(), m.GeneratedDocument())
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"a1", "a2", "a", "b", "root"}, order)

	// Early termination.
	order = nil
	done, err = docs.Visit(context.Background(), res.Source, func(f *vfile.VirtualFile, _ *sourcemap.SourceMap) (bool, error) {
		order = append(order, f.Text)
		return f.Text != "a2", nil
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []string{"a1", "a2"}, order)
}

func TestVisitRejectsStaleSnapshot(t *testing.T) {
	docs := newStore(t)
	require.NoError(t, docs.Update(appURI, "vue", 1, "<script>a</script>"))
	res, err := docs.Resolve(appURI)
	require.NoError(t, err)

	require.NoError(t, docs.Update(appURI, "vue", 2, "<script>ab</script>"))

	_, err = docs.Visit(context.Background(), res.Source, func(*vfile.VirtualFile, *sourcemap.SourceMap) (bool, error) {
		t.Fatal("visitor must not run for a stale snapshot")
		return true, nil
	})
	assert.True(t, errors.Is(err, vfile.ErrStaleSourceMap))
}

func TestVisitStopsOnCancelledContext(t *testing.T) {
	docs := newStore(t)
	require.NoError(t, docs.Update(appURI, "vue", 1, "<script>a</script>"))
	res, err := docs.Resolve(appURI)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = docs.Visit(ctx, res.Source, func(*vfile.VirtualFile, *sourcemap.SourceMap) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDuplicateVirtualFileRejected(t *testing.T) {
	mod := vfiletest.ModuleFunc{Language: "dup", Fn: func(doc *lsp.TextDocument) (*vfile.VirtualFile, error) {
		child := &vfile.VirtualFile{URI: "file:///same"}
		return &vfile.VirtualFile{URI: "file:///same", Embedded: []*vfile.VirtualFile{child}}, nil
	}}
	docs := vfile.NewDocuments(mod)

	err := docs.Update("file:///d", "dup", 1, "")
	assert.ErrorIs(t, err, vfile.ErrDuplicateVirtualFile)
}

func TestRejectedUpdateKeepsPreviousVersion(t *testing.T) {
	mod := vfiletest.ModuleFunc{Language: "dup", Fn: func(doc *lsp.TextDocument) (*vfile.VirtualFile, error) {
		child := &vfile.VirtualFile{URI: "file:///d.child"}
		if doc.Text() == "broken" {
			child.URI = "file:///d.root"
		}
		return &vfile.VirtualFile{URI: "file:///d.root", Embedded: []*vfile.VirtualFile{child}}, nil
	}}
	docs := vfile.NewDocuments(mod)

	require.NoError(t, docs.Update("file:///d", "dup", 1, "good"))
	err := docs.Update("file:///d", "dup", 2, "broken")
	require.ErrorIs(t, err, vfile.ErrDuplicateVirtualFile)

	res, err := docs.Resolve("file:///d")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Document.Version)
	assert.Equal(t, "good", res.Document.Text())
	assert.True(t, docs.HasVirtualFile("file:///d.child"))
}

func TestModuleErrorPropagates(t *testing.T) {
	docs := newStore(t)
	err := docs.Update(appURI, "vue", 1, "<script>never closed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated <script>")
}
