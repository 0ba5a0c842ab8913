package document

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/danieljhkim/overlaygen/internal/fsops"
)

func TestStripField(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		field       string
		wantChanged bool
		wantErr     error
	}{
		{
			name:        "removes present field",
			content:     `{"Name":"Default","OverrideDataFolder":"/srv/world","Seed":1}`,
			field:       "OverrideDataFolder",
			wantChanged: true,
		},
		{
			name:        "field with pointer characters",
			content:     `{"a/b~c":1,"keep":2}`,
			field:       "a/b~c",
			wantChanged: true,
		},
		{
			name:        "absent field is a no-op",
			content:     `{"Name":"Default"}`,
			field:       "OverrideDataFolder",
			wantChanged: false,
		},
		{
			name:        "nested field with the same name is left alone",
			content:     `{"Inner":{"OverrideDataFolder":"x"}}`,
			field:       "OverrideDataFolder",
			wantChanged: false,
		},
		{
			name:    "malformed document",
			content: `{"Name":`,
			field:   "OverrideDataFolder",
			wantErr: ErrMalformed,
		},
		{
			name:    "not an object",
			content: `["OverrideDataFolder"]`,
			field:   "OverrideDataFolder",
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsops.NewFS(afero.NewMemMapFs())
			if err := fs.AtomicWrite("/work/World.json", []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			changed, err := StripField(fs, "/work/World.json", tt.field)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				got, _ := fs.ReadFile("/work/World.json")
				if string(got) != tt.content {
					t.Errorf("file rewritten despite error: %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("StripField failed: %v", err)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}

			got, err := fs.ReadFile("/work/World.json")
			if err != nil {
				t.Fatal(err)
			}
			if !changed {
				if string(got) != tt.content {
					t.Errorf("unchanged file was rewritten: %q", got)
				}
				return
			}
			if hasField(got, tt.field) {
				t.Errorf("field %q still present:\n%s", tt.field, got)
			}
			if !gjson.ValidBytes(got) {
				t.Errorf("rewritten file is not valid JSON:\n%s", got)
			}
		})
	}
}

func TestStripField_MissingFile(t *testing.T) {
	fs := fsops.NewFS(afero.NewMemMapFs())

	changed, err := StripField(fs, "/work/World.json", "OverrideDataFolder")
	if err != nil {
		t.Fatalf("StripField on missing file failed: %v", err)
	}
	if changed {
		t.Error("missing file should not be reported as changed")
	}
	if exists, _ := fs.Exists("/work/World.json"); exists {
		t.Error("StripField must not create the file")
	}
}

func TestStripField_KeepsOtherFields(t *testing.T) {
	fs := fsops.NewFS(afero.NewMemMapFs())
	content := `{"Name":"Default","OverrideDataFolder":"/srv","Zones":["Zone1","Zone2"]}`
	if err := fs.AtomicWrite("/World.json", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := StripField(fs, "/World.json", "OverrideDataFolder"); err != nil {
		t.Fatalf("StripField failed: %v", err)
	}

	got, _ := fs.ReadFile("/World.json")
	if name := gjson.GetBytes(got, "Name").String(); name != "Default" {
		t.Errorf("Name = %q, want Default", name)
	}
	if n := gjson.GetBytes(got, "Zones.#").Int(); n != 2 {
		t.Errorf("Zones length = %d, want 2", n)
	}
}
