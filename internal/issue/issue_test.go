// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

var allIds = []Id{
	ContainerNotFoundId,
	ContainerMalformedId,
	DigestMismatchId,
	BundleFailedId,
	UnsupportedModuleId,
	SandboxFailedId,
	ConfigLoadFailedId,
	LintConfigUnreadableId,
	ProgramFailedId,
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	// IDs start at 1 (iota + 1)
	if ContainerNotFoundId != 1 {
		t.Errorf("ContainerNotFoundId = %d, want 1", ContainerNotFoundId)
	}
}

func TestIssue_Id(t *testing.T) {
	issue := Get(DigestMismatchId)
	if issue == nil {
		t.Fatal("Get(DigestMismatchId) returned nil")
	}
	if issue.Id() != DigestMismatchId {
		t.Errorf("issue.Id() = %d, want %d", issue.Id(), DigestMismatchId)
	}
}

func TestIssue_Links(t *testing.T) {
	testIssue := &Issue{
		id:       Id(9999),
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}

	docs := testIssue.DocLinks()
	docs[0] = "changed"
	if testIssue.DocLinks()[0] != "https://docs.example.com" {
		t.Error("DocLinks() should return a copy")
	}
	if got := testIssue.ExtLinks(); len(got) != 1 || got[0] != "https://external.example.com" {
		t.Errorf("ExtLinks() = %v", got)
	}
	if got := Get(SandboxFailedId).DocLinks(); len(got) != 0 {
		t.Errorf("DocLinks() = %v, want empty", got)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ContainerNotFoundId, false, "No container found"},
		{ContainerMalformedId, false, "The container is damaged"},
		{DigestMismatchId, false, "Container digest mismatch"},
		{BundleFailedId, false, "Bundling failed"},
		{UnsupportedModuleId, false, "Unsupported module"},
		{SandboxFailedId, false, "ENOSYS"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{LintConfigUnreadableId, false, "Lint configuration unreadable"},
		{ProgramFailedId, false, "The bundled program failed"},
		{Id(9999), true, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain '%s'", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	if len(issues) != len(allIds) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), len(allIds))
	}
	for i, issue := range issues {
		if issue.Id() != allIds[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), allIds[i])
		}
		if issue.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	t.Run("with links", func(t *testing.T) {
		testIssue := &Issue{
			id:       Id(9999),
			mdMsg:    "# Test Issue\n\nThis is a test.",
			docLinks: []HttpLink{"https://docs.example.com"},
			extLinks: []HttpLink{"https://external.example.com"},
		}
		rendered, err := testIssue.Render("")
		if err != nil {
			t.Fatalf("Render() returned error: %v", err)
		}
		if !strings.Contains(rendered, "See also") {
			t.Error("Render() with links should contain 'See also'")
		}
		if !strings.Contains(rendered, "[https://external.example.com](https://external.example.com)") {
			t.Errorf("Render() should link external pages, got:\n%s", rendered)
		}
	})

	t.Run("no links", func(t *testing.T) {
		testIssue := &Issue{id: Id(9998), mdMsg: "# Test Issue\n\nNo links here."}
		rendered, err := testIssue.Render("")
		if err != nil {
			t.Fatalf("Render() returned error: %v", err)
		}
		if strings.Contains(rendered, "See also") {
			t.Error("Render() without links should not contain 'See also'")
		}
	})

	t.Run("catalog", func(t *testing.T) {
		for _, issue := range Values() {
			rendered, err := issue.Render("")
			if err != nil {
				t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
			}
			if rendered == "" {
				t.Errorf("Issue %d rendered to empty string", issue.Id())
			}
		}
	})
}

func TestIssue_Render_Glamour(t *testing.T) {
	rendered, err := Get(ContainerNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "lintcage bundle") {
		t.Errorf("Render() output should contain the suggested command, got:\n%s", rendered)
	}
}
