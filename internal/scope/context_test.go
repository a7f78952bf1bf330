package scope

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestGather_SmallAndIgnoredFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\nbuild/\n")
	writeFile(t, root, "src/core/a.py", "def a():\n    return 1\n")
	writeFile(t, root, "src/core/debug.log", "noise\n")
	writeFile(t, root, "src/core/build/out.py", "x = 1\n")
	writeFile(t, root, "src/core/__pycache__/a.pyc", "cache")
	writeFile(t, root, "src/core/blob.bin", "ab\x00cd")
	writeFile(t, root, "src/other/b.py", "b = 2\n")

	g := &Gatherer{}
	ctx, err := g.Gather(root, []string{"src/core/", "src/missing/"})
	require.NoError(t, err)

	require.Len(t, ctx.Files, 1)
	assert.Equal(t, "src/core/a.py", ctx.Files[0].Path)
	assert.Equal(t, 2, ctx.Files[0].Lines)
	assert.False(t, ctx.Files[0].Summarized)
	assert.False(t, ctx.Truncated)
	assert.Contains(t, ctx.Render(), "### src/core/a.py (2 lines)")
}

func TestGather_LargeFileSummarized(t *testing.T) {
	root := t.TempDir()
	var b strings.Builder
	b.WriteString("class Engine:\n")
	for i := 0; i < 250; i++ {
		b.WriteString("    x = 1\n")
	}
	b.WriteString("    def run(self):\n        pass\n")
	writeFile(t, root, "src/core/engine.py", b.String())

	g := &Gatherer{}
	ctx, err := g.Gather(root, []string{"src/core/engine.py"})
	require.NoError(t, err)

	require.Len(t, ctx.Files, 1)
	f := ctx.Files[0]
	assert.True(t, f.Summarized)
	assert.Equal(t, 253, f.Lines)
	assert.Contains(t, f.Content, "class Engine:")
	assert.Contains(t, f.Content, "def run(self):")
	assert.NotContains(t, f.Content, "x = 1")
}

func TestGather_Budget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", strings.Repeat("a", 60)+"\n")
	writeFile(t, root, "src/b.py", strings.Repeat("b", 60)+"\n")

	g := &Gatherer{Budget: 100}
	ctx, err := g.Gather(root, []string{"src/"})
	require.NoError(t, err)

	assert.Len(t, ctx.Files, 1)
	assert.True(t, ctx.Truncated)
	assert.Contains(t, ctx.Render(), "(context truncated)")
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 1, CountLines("a"))
	assert.Equal(t, 1, CountLines("a\n"))
	assert.Equal(t, 2, CountLines("a\nb"))
}
