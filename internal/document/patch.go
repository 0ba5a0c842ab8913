package document

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/tidwall/gjson"

	"github.com/danieljhkim/overlaygen/internal/fsops"
)

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// StripField removes the top-level field from the JSON object at path and
// rewrites the file pretty-printed. It reports whether the file changed.
//
// A missing file or a missing field is not an error. Callers treat failures
// as best effort.
func StripField(fs fsops.FS, path, field string) (bool, error) {
	exists, err := fs.Exists(path)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return false, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := requireObject(data); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if !hasField(data, field) {
		return false, nil
	}

	ops, err := json.Marshal([]map[string]string{
		{"op": "remove", "path": "/" + pointerEscaper.Replace(field)},
	})
	if err != nil {
		return false, fmt.Errorf("failed to build patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return false, fmt.Errorf("failed to decode patch: %w", err)
	}
	out, err := patch.Apply(data)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s from %s: %w", field, path, err)
	}

	if err := fs.AtomicWrite(path, Pretty(out), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func hasField(doc []byte, field string) bool {
	found := false
	gjson.ParseBytes(doc).ForEach(func(key, _ gjson.Result) bool {
		if key.Str == field {
			found = true
			return false
		}
		return true
	})
	return found
}
