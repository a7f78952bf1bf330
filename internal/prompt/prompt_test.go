package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

func testData() Data {
	return Data{
		Worker:      "core",
		Order:       domain.Order{ID: 42, Title: "Add cache", Content: "  Add an LRU cache.  "},
		Scope:       []string{"src/core/", "tests/core/"},
		TestCommand: "pytest tests/core",
		MaxFiles:    5,
		Context:     "### src/core/a.py\n...",
		Attempt:     1,
		MaxAttempts: 3,
	}
}

func TestBuild_Defaults(t *testing.T) {
	b, err := New("", "", 8192)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req, err := b.Build(testData())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if req.MaxTokens != 8192 {
		t.Errorf("expected max tokens 8192, got %d", req.MaxTokens)
	}
	for _, want := range []string{`"core" worker`, "src/core/, tests/core/", "at most 5 files", "### FILE:", "### REPORT", "pytest tests/core"} {
		if !strings.Contains(req.System, want) {
			t.Errorf("system prompt should contain %q", want)
		}
	}
	if !strings.HasPrefix(req.Prompt, "# Orden #42: Add cache\n\nAdd an LRU cache.") {
		t.Errorf("unexpected user prompt start: %q", req.Prompt)
	}
	if strings.Contains(req.Prompt, "rolled back") {
		t.Error("first attempt should not mention rollback")
	}
}

func TestBuild_RetryIncludesFailure(t *testing.T) {
	b, err := New("", "", 0)
	if err != nil {
		t.Fatal(err)
	}

	data := testData()
	data.Attempt = 2
	data.PreviousFailure = "FAILED tests/core/test_a.py::test_x"

	req, err := b.Build(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(req.Prompt, "Attempt 2 of 3") {
		t.Error("retry prompt should show attempt number")
	}
	if !strings.Contains(req.Prompt, "FAILED tests/core/test_a.py::test_x") {
		t.Error("retry prompt should include previous test output")
	}
}

func TestBuild_EmptyContext(t *testing.T) {
	b, _ := New("", "", 0)

	data := testData()
	data.Context = ""

	req, err := b.Build(data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(req.Prompt, "(no files yet)") {
		t.Errorf("expected placeholder, got %q", req.Prompt)
	}
}

func TestBuild_CustomTemplates(t *testing.T) {
	b, err := New("worker={{ .Worker | upper }}", "{{ json .Scope }}", 0)
	if err != nil {
		t.Fatal(err)
	}

	req, err := b.Build(testData())
	if err != nil {
		t.Fatal(err)
	}
	if req.System != "worker=CORE" {
		t.Errorf("unexpected system: %q", req.System)
	}
	if req.Prompt != `["src/core/","tests/core/"]` {
		t.Errorf("unexpected prompt: %q", req.Prompt)
	}
}

func TestNew_ParseError(t *testing.T) {
	_, err := New("{{ .Worker ", "", 0)
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("expected ErrTemplateParse, got %v", err)
	}
}

func TestBuild_RenderError(t *testing.T) {
	b, err := New("{{ .Missing.Field }}", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(testData()); !errors.Is(err, ErrTemplateRender) {
		t.Errorf("expected ErrTemplateRender, got %v", err)
	}
}
