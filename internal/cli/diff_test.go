package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/danieljhkim/overlaygen/internal/engine"
)

func TestFormatDefaultDiff_PrintsPatchAndSummary(t *testing.T) {
	result := &engine.DiffResult{
		BasePath: "/base",
		WorkDir:  "/work",
		Files: []engine.DiffFileInfo{
			{
				Path:        "b.json",
				Status:      engine.StatusModified,
				UnifiedDiff: "diff --git a/b.json b/b.json\n--- a/b.json\n+++ b/b.json\n@@ -1,1 +1,1 @@\n-old\n+new\n",
				Additions:   1,
				Deletions:   1,
			},
			{
				Path:        "a.json",
				Status:      engine.StatusAdded,
				UnifiedDiff: "diff --git a/a.json b/a.json\n--- /dev/null\n+++ b/a.json\n@@ -0,0 +1,1 @@\n+line\n",
				Additions:   1,
			},
			{
				Path:   "z.json",
				Status: engine.StatusUnchanged,
			},
		},
	}

	output := captureStdout(t, func() {
		if err := formatDefaultDiff(result); err != nil {
			t.Fatalf("formatDefaultDiff failed: %v", err)
		}
	})

	if strings.Index(output, "a.json") > strings.Index(output, "b.json") {
		t.Fatalf("expected sorted output by path, got:\n%s", output)
	}
	if strings.Contains(output, "z.json") {
		t.Fatalf("unchanged files should not be listed:\n%s", output)
	}
	if strings.Contains(output, "diff --git") {
		t.Fatalf("git header lines should be folded into the file header:\n%s", output)
	}
	if !strings.Contains(output, "2 files changed, 2 insertions(+), 1 deletion(-)") {
		t.Fatalf("expected git-like summary line, got:\n%s", output)
	}
}

func TestFormatDefaultDiff_NoChanges(t *testing.T) {
	result := &engine.DiffResult{
		Files: []engine.DiffFileInfo{{Path: "a.json", Status: engine.StatusUnchanged}},
	}

	output := captureStdout(t, func() {
		if err := formatDefaultDiff(result); err != nil {
			t.Fatalf("formatDefaultDiff failed: %v", err)
		}
	})

	if !strings.Contains(output, "No changes detected") {
		t.Fatalf("expected empty-state message, got:\n%s", output)
	}
}

func TestFormatNameStatus(t *testing.T) {
	result := &engine.DiffResult{
		Files: []engine.DiffFileInfo{
			{Path: "World.json", Status: engine.StatusModified},
			{Path: "Zones/Zone1/Cave/Ores/Coal/CoalSpread.node.json", Status: engine.StatusAdded},
			{Path: "Zones/Zone1/Old.node.json", Status: engine.StatusRemoved},
		},
	}

	output := captureStdout(t, func() {
		if err := formatNameStatus(result); err != nil {
			t.Fatalf("formatNameStatus failed: %v", err)
		}
	})

	for _, want := range []string{
		"M\tWorld.json",
		"A\tZones/Zone1/Cave/Ores/Coal/CoalSpread.node.json",
		"D\tZones/Zone1/Old.node.json",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	oldColorOutput := color.Output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	color.Output = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout
	color.Output = oldColorOutput

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}
