package engine

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/danieljhkim/overlaygen/internal/clock"
	"github.com/danieljhkim/overlaygen/internal/document"
	"github.com/danieljhkim/overlaygen/internal/fsops"
	"github.com/danieljhkim/overlaygen/internal/hash"
	"github.com/danieljhkim/overlaygen/internal/logging"
	"github.com/danieljhkim/overlaygen/internal/resource"
)

const (
	testGenerator = "Default"
	testPrefix    = "Server/World/Default/"
	zoneOres      = "Zones/Zone1/Cave/Ores/"
	testWorkRoot  = "/scratch"
)

// newTestEngine returns an engine writing to a fresh in-memory backing.
func newTestEngine(t *testing.T) (*Engine, afero.Fs) {
	t.Helper()
	backing := afero.NewMemMapFs()
	eng := New(
		fsops.NewFS(backing),
		hash.NewSHA256Hasher(backing),
		clock.NewSteppingClock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), time.Millisecond),
		logging.Discard(),
		testWorkRoot,
	)
	return eng, backing
}

// seedTree writes files (relative slash paths) under root on fs.
func seedTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		if err := afero.WriteFile(fs, root+"/"+rel, []byte(content), 0644); err != nil {
			t.Fatalf("failed to seed %s: %v", rel, err)
		}
	}
}

// snapshot reads every file under root on fs.
func snapshot(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()
	files, err := listFiles(fs, root)
	if err != nil {
		t.Fatalf("failed to list %s: %v", root, err)
	}
	out := make(map[string]string, len(files))
	for rel, full := range files {
		data, err := afero.ReadFile(fs, full)
		if err != nil {
			t.Fatalf("failed to read %s: %v", full, err)
		}
		out[rel] = string(data)
	}
	return out
}

func mapLoader(files map[string]string) resource.Loader {
	fsys := fstest.MapFS{}
	for id, content := range files {
		fsys[id] = &fstest.MapFile{Data: []byte(content)}
	}
	return resource.NewIOFSLoader(fsys)
}

func readKeys(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	keys, err := document.EntryKeys(data)
	if err != nil {
		t.Fatalf("EntryKeys(%s) failed: %v", path, err)
	}
	return keys
}

func readField(t *testing.T, fs afero.Fs, path, field string) gjson.Result {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return gjson.GetBytes(data, field)
}

func entryListJSON(keys ...string) string {
	s := `{"Name":"Distribution Wheel","Children":[`
	for i, k := range keys {
		if i > 0 {
			s += ","
		}
		s += `{"Node":["` + k + `",1]}`
	}
	return s + `],"Type":"EMPTY_LINE"}`
}
