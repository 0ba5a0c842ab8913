package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"

	"github.com/danieljhkim/overlaygen/internal/hash"
)

// Diff compares a working tree against the base tree it was built from.
func (e *Engine) Diff(ctx context.Context, req *DiffRequest) (*DiffResult, error) {
	if req == nil || req.BasePath == "" || req.WorkDir == "" {
		return nil, fmt.Errorf("%w: base path and working tree are required", ErrValidation)
	}

	baseFS := req.BaseFS
	if baseFS == nil {
		baseFS = afero.NewReadOnlyFs(e.fs.Backing())
	}
	workFS := e.fs.Backing()

	baseFiles, err := listFiles(baseFS, req.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to walk base tree: %w", err)
	}
	workFiles, err := listFiles(workFS, req.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk working tree: %w", err)
	}

	paths := make([]string, 0, len(workFiles))
	for rel := range baseFiles {
		paths = append(paths, rel)
	}
	for rel := range workFiles {
		if _, ok := baseFiles[rel]; !ok {
			paths = append(paths, rel)
		}
	}
	sort.Strings(paths)

	files := make([]DiffFileInfo, 0, len(paths))
	for _, rel := range paths {
		info, err := comparePath(baseFS, baseFiles[rel], workFS, workFiles[rel], rel, req.ShowContent)
		if err != nil {
			return nil, err
		}
		files = append(files, info)
	}

	return &DiffResult{
		BasePath: req.BasePath,
		WorkDir:  req.WorkDir,
		Files:    files,
	}, nil
}

// listFiles maps slash-separated relative paths to their full paths on fs.
func listFiles(fs afero.Fs, root string) (map[string]string, error) {
	root = filepath.Clean(root)
	files := make(map[string]string)
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	return files, err
}

// comparePath compares a single path between the base and working trees.
// An empty full path means the file is absent on that side.
func comparePath(baseFS afero.Fs, basePath string, workFS afero.Fs, workPath, rel string, showContent bool) (DiffFileInfo, error) {
	info := DiffFileInfo{Path: rel}

	var baseData, workData []byte
	if basePath != "" {
		data, err := afero.ReadFile(baseFS, basePath)
		if err != nil {
			return info, fmt.Errorf("failed to read %s: %w", basePath, err)
		}
		baseData = data
		info.BaseHash = hash.HashBytes(data)
	}
	if workPath != "" {
		data, err := afero.ReadFile(workFS, workPath)
		if err != nil {
			return info, fmt.Errorf("failed to read %s: %w", workPath, err)
		}
		workData = data
		info.WorkHash = hash.HashBytes(data)
	}

	switch {
	case basePath == "":
		info.Status = StatusAdded
	case workPath == "":
		info.Status = StatusRemoved
	case info.BaseHash != info.WorkHash:
		info.Status = StatusModified
	default:
		info.Status = StatusUnchanged
		return info, nil
	}

	if showContent {
		info.UnifiedDiff, info.Additions, info.Deletions = generateUnifiedDiff(rel, baseData, workData, info.Status)
	}
	return info, nil
}

type diffLine struct {
	op   byte
	text string
}

const diffContext = 3

// generateUnifiedDiff renders a git-style unified diff between the old and
// new content of path.
func generateUnifiedDiff(path string, oldContent, newContent []byte, status string) (string, int, int) {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(oldContent), string(newContent))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []diffLine
	additions, deletions := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				lines = append(lines, diffLine{'+', text})
				additions++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, diffLine{'-', text})
				deletions++
			default:
				lines = append(lines, diffLine{' ', text})
			}
		}
	}
	if additions == 0 && deletions == 0 {
		return "", 0, 0
	}

	var out strings.Builder
	fmt.Fprintf(&out, "diff --git a/%s b/%s\n", path, path)
	if status == StatusAdded {
		out.WriteString("--- /dev/null\n")
	} else {
		fmt.Fprintf(&out, "--- a/%s\n", path)
	}
	if status == StatusRemoved {
		out.WriteString("+++ /dev/null\n")
	} else {
		fmt.Fprintf(&out, "+++ b/%s\n", path)
	}

	// Line numbers on each side before lines[i].
	oldNo := make([]int, len(lines))
	newNo := make([]int, len(lines))
	o, n := 1, 1
	for i, l := range lines {
		oldNo[i], newNo[i] = o, n
		if l.op != '+' {
			o++
		}
		if l.op != '-' {
			n++
		}
	}

	for i := 0; i < len(lines); {
		if lines[i].op == ' ' {
			i++
			continue
		}

		start := max(0, i-diffContext)
		end := i
		for j := i; j < len(lines); j++ {
			if lines[j].op != ' ' {
				end = j
			} else if j-end > 2*diffContext {
				break
			}
		}
		stop := min(len(lines), end+diffContext+1)

		oldCount, newCount := 0, 0
		for _, l := range lines[start:stop] {
			if l.op != '+' {
				oldCount++
			}
			if l.op != '-' {
				newCount++
			}
		}
		oldStart, newStart := oldNo[start], newNo[start]
		if oldCount == 0 {
			oldStart--
		}
		if newCount == 0 {
			newStart--
		}

		fmt.Fprintf(&out, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
		for _, l := range lines[start:stop] {
			out.WriteByte(l.op)
			out.WriteString(l.text)
			out.WriteByte('\n')
		}
		i = stop
	}

	return out.String(), additions, deletions
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
