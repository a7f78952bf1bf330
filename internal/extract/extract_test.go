package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FilesAndReport(t *testing.T) {
	text := "Here is the change.\n\n" +
		"### FILE: src/core/a.py\n" +
		"```python\n" +
		"def a():\n" +
		"    return 1\n" +
		"```\n\n" +
		"### FILE: `tests/test_a.py`\n" +
		"```\n" +
		"from src.core.a import a\n" +
		"```\n\n" +
		"### REPORT\n" +
		"Added function a and its test.\n" +
		"\n" +
		"### trailing marker\n" +
		"garbage\n"

	result := Parse(text)

	require.Len(t, result.Files, 2)
	assert.Equal(t, "src/core/a.py", result.Files[0].Path)
	assert.Equal(t, "def a():\n    return 1\n", result.Files[0].Content)
	assert.Equal(t, "tests/test_a.py", result.Files[1].Path)
	assert.Equal(t, "from src.core.a import a\n", result.Files[1].Content)
	assert.Equal(t, "Added function a and its test.", result.Report)
	assert.Equal(t, []string{"src/core/a.py", "tests/test_a.py"}, result.Paths())
}

func TestParse_NoFiles(t *testing.T) {
	result := Parse("I could not find anything to change.\n\n### REPORT\nnothing to do")

	assert.Empty(t, result.Files)
	assert.Equal(t, "nothing to do", result.Report)
}

func TestParse_NoReport(t *testing.T) {
	result := Parse("### FILE: a.py\n```py\nx = 1\n```\n")

	require.Len(t, result.Files, 1)
	assert.Equal(t, "", result.Report)
}

func TestParse_UnterminatedBlockDropped(t *testing.T) {
	result := Parse("### FILE: a.py\n```py\nx = 1\n### FILE: b.py\n```py\ny = 2\n```\n")

	// a.py без закрывающего fence поглощается до первого "```", поэтому
	// единственный корректный блок — a.py с телом до этой строки.
	require.Len(t, result.Files, 1)
	assert.Equal(t, "a.py", result.Files[0].Path)

	result = Parse("### FILE: a.py\n```py\nx = 1\n")
	assert.Empty(t, result.Files)
}

func TestParse_HeaderWithoutFence(t *testing.T) {
	result := Parse("### FILE: a.py\nx = 1\n")
	assert.Empty(t, result.Files)
}

func TestParse_DuplicatePathLastWins(t *testing.T) {
	text := "### FILE: a.py\n```\nold\n```\n### FILE: a.py\n```\nnew\n```\n"
	result := Parse(text)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "new\n", result.Files[0].Content)
}

func TestParse_LongerFenceKeepsInnerFences(t *testing.T) {
	text := "### FILE: docs/guide.md\n````markdown\n# Guide\n```bash\nmake\n```\n````\n"
	result := Parse(text)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "# Guide\n```bash\nmake\n```\n", result.Files[0].Content)
}

func TestParse_CRLF(t *testing.T) {
	result := Parse("### FILE: a.py\r\n```\r\nx = 1\r\n```\r\n### REPORT\r\ndone\r\n")

	require.Len(t, result.Files, 1)
	assert.Equal(t, "x = 1\n", result.Files[0].Content)
	assert.Equal(t, "done", result.Report)
}
