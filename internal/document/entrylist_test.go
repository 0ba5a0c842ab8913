package document

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

func entryList(keys ...string) []byte {
	var b bytes.Buffer
	b.WriteString(`{"Name":"Distribution Wheel","Children":[`)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"Node":["` + k + `",1],"Weight":` + strconv.Itoa(i+1) + `}`)
	}
	b.WriteString(`],"Type":"EMPTY_LINE"}`)
	return b.Bytes()
}

func mustKeys(t *testing.T, doc []byte) []string {
	t.Helper()
	keys, err := EntryKeys(doc)
	if err != nil {
		t.Fatalf("EntryKeys failed: %v\n%s", err, doc)
	}
	return keys
}

func TestMergeEntryList_PrependsEligibleEntries(t *testing.T) {
	base := entryList("Ores.Iron.Spread")
	overlay := entryList("Ores.Coal.Spread", "Ores.Iron.Spread")

	out, err := MergeEntryList(base, overlay, []string{"Ores.Coal."})
	if err != nil {
		t.Fatalf("MergeEntryList failed: %v", err)
	}

	if diff := cmp.Diff([]string{"Ores.Coal.Spread", "Ores.Iron.Spread"}, mustKeys(t, out.Document)); diff != "" {
		t.Errorf("Children keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Ores.Coal.Spread"}, out.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if out.Created {
		t.Error("Created should be false when a base document exists")
	}
}

func TestMergeEntryList_SynthesizesDefault(t *testing.T) {
	overlay := entryList("Ores.Coal.Spread")

	out, err := MergeEntryList(nil, overlay, []string{"Ores.Coal."})
	if err != nil {
		t.Fatalf("MergeEntryList failed: %v", err)
	}
	if !out.Created {
		t.Error("Created should be true when no base exists")
	}

	doc := gjson.ParseBytes(out.Document)
	checks := map[string]string{
		"Name":     "Distribution Wheel",
		"Type":     "EMPTY_LINE",
		"Length.#": "1",
		"Length.0": "0",
		"YawAdd":   "0",
	}
	for path, want := range checks {
		if got := doc.Get(path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if diff := cmp.Diff([]string{"Ores.Coal.Spread"}, mustKeys(t, out.Document)); diff != "" {
		t.Errorf("Children keys mismatch (-want +got):\n%s", diff)
	}
	if got := doc.Get("Children.0.Weight").Int(); got != 1 {
		t.Errorf("entry content not copied verbatim: Weight = %d", got)
	}
}

func TestMergeEntryList_Properties(t *testing.T) {
	tests := []struct {
		name     string
		base     []string
		overlay  []string
		prefixes []string
		want     []string
		added    []string
	}{
		{
			name:     "order: new entries first in overlay order",
			base:     []string{"Ores.Iron.A", "Ores.Copper.A"},
			overlay:  []string{"Ores.Coal.B", "Ores.Coal.A", "Ores.Coal.C"},
			prefixes: []string{"Ores.Coal."},
			want:     []string{"Ores.Coal.B", "Ores.Coal.A", "Ores.Coal.C", "Ores.Iron.A", "Ores.Copper.A"},
			added:    []string{"Ores.Coal.B", "Ores.Coal.A", "Ores.Coal.C"},
		},
		{
			name:     "dedup: pre-existing keys never duplicated",
			base:     []string{"Ores.Coal.A", "Ores.Iron.A"},
			overlay:  []string{"Ores.Coal.A", "Ores.Coal.B"},
			prefixes: []string{"Ores.Coal."},
			want:     []string{"Ores.Coal.B", "Ores.Coal.A", "Ores.Iron.A"},
			added:    []string{"Ores.Coal.B"},
		},
		{
			name:     "dedup: duplicates within overlay counted once",
			base:     []string{"Ores.Iron.A"},
			overlay:  []string{"Ores.Coal.A", "Ores.Coal.A", "Ores.Coal.B", "Ores.Coal.A"},
			prefixes: []string{"Ores.Coal."},
			want:     []string{"Ores.Coal.A", "Ores.Coal.B", "Ores.Iron.A"},
			added:    []string{"Ores.Coal.A", "Ores.Coal.B"},
		},
		{
			name:     "prefix filter: unique but ineligible keys are not inserted",
			base:     []string{"Ores.Iron.A"},
			overlay:  []string{"Ores.Gold.A", "Ores.Coal.A", "Misc.Coal.A"},
			prefixes: []string{"Ores.Coal."},
			want:     []string{"Ores.Coal.A", "Ores.Iron.A"},
			added:    []string{"Ores.Coal.A"},
		},
		{
			name:     "multiple prefixes",
			base:     nil,
			overlay:  []string{"Ores.Gold.A", "Ores.Coal.A", "Ores.Tin.A"},
			prefixes: []string{"Ores.Coal.", "Ores.Tin."},
			want:     []string{"Ores.Coal.A", "Ores.Tin.A"},
			added:    []string{"Ores.Coal.A", "Ores.Tin.A"},
		},
		{
			name:     "no prefixes: nothing eligible",
			base:     []string{"Ores.Iron.A"},
			overlay:  []string{"Ores.Coal.A"},
			prefixes: nil,
			want:     []string{"Ores.Iron.A"},
			added:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MergeEntryList(entryList(tt.base...), entryList(tt.overlay...), tt.prefixes)
			if err != nil {
				t.Fatalf("MergeEntryList failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, mustKeys(t, out.Document)); diff != "" {
				t.Errorf("Children keys mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.added, out.Added); diff != "" {
				t.Errorf("Added mismatch (-want +got):\n%s", diff)
			}
			if got, want := len(mustKeys(t, out.Document))-len(tt.base), len(tt.added); got != want {
				t.Errorf("Children grew by %d, want %d", got, want)
			}
		})
	}
}

func TestMergeEntryList_Idempotent(t *testing.T) {
	base := entryList("Ores.Iron.A")
	overlay := entryList("Ores.Coal.A", "Ores.Coal.B")
	prefixes := []string{"Ores.Coal."}

	first, err := MergeEntryList(base, overlay, prefixes)
	if err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	second, err := MergeEntryList(first.Document, overlay, prefixes)
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}

	if len(second.Added) != 0 {
		t.Errorf("second merge added %v, want nothing", second.Added)
	}
	if !bytes.Equal(first.Document, second.Document) {
		t.Errorf("second merge changed the document:\nfirst:\n%s\nsecond:\n%s", first.Document, second.Document)
	}
}

func TestMergeEntryList_SkipsMalformedEntries(t *testing.T) {
	base := []byte(`{"Children":[
		{"Node":[]},
		{"NoNode":true},
		"not-an-object",
		{"Node":"Ores.Coal.A"},
		{"Node":[7]},
		{"Node":["Ores.Iron.A"]}
	]}`)
	overlay := []byte(`{"Children":[
		{"Node":[]},
		{"Weight":3},
		42,
		{"Node":["Ores.Coal.A"]}
	]}`)

	out, err := MergeEntryList(base, overlay, []string{"Ores.Coal."})
	if err != nil {
		t.Fatalf("MergeEntryList failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Ores.Coal.A"}, out.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}

	children := gjson.GetBytes(out.Document, FieldChildren).Array()
	if len(children) != 7 {
		t.Fatalf("expected malformed base entries to be kept, got %d children:\n%s", len(children), out.Document)
	}
	if key, _ := EntryKey(children[0]); key != "Ores.Coal.A" {
		t.Errorf("first child key = %q, want Ores.Coal.A", key)
	}
}

func TestMergeEntryList_BaseWithoutChildren(t *testing.T) {
	base := []byte(`{"Name":"Custom","Type":"EMPTY_LINE"}`)

	out, err := MergeEntryList(base, entryList("Ores.Coal.A"), []string{"Ores.Coal."})
	if err != nil {
		t.Fatalf("MergeEntryList failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Ores.Coal.A"}, mustKeys(t, out.Document)); diff != "" {
		t.Errorf("Children keys mismatch (-want +got):\n%s", diff)
	}
	if got := gjson.GetBytes(out.Document, "Name").String(); got != "Custom" {
		t.Errorf("Name = %q, want Custom", got)
	}
}

func TestMergeEntryList_OverlayWithoutChildren(t *testing.T) {
	out, err := MergeEntryList(entryList("Ores.Iron.A"), []byte(`{"Name":"x"}`), []string{"Ores.Coal."})
	if err != nil {
		t.Fatalf("MergeEntryList failed: %v", err)
	}
	if out.Document != nil {
		t.Errorf("expected no document to write, got:\n%s", out.Document)
	}
	if len(out.Added) != 0 {
		t.Errorf("Added = %v, want none", out.Added)
	}
}

func TestMergeEntryList_NothingEligibleStillFormats(t *testing.T) {
	base := []byte(`{"Name":"Distribution Wheel","Children":[{"Node":["Ores.Iron.A"]}]}`)

	out, err := MergeEntryList(base, entryList("Ores.Gold.A"), []string{"Ores.Coal."})
	if err != nil {
		t.Fatalf("MergeEntryList failed: %v", err)
	}
	if !bytes.Equal(out.Document, Pretty(base)) {
		t.Errorf("document changed content:\n%s", out.Document)
	}
}

func TestMergeEntryList_Malformed(t *testing.T) {
	valid := entryList("Ores.Coal.A")

	tests := []struct {
		name    string
		base    []byte
		overlay []byte
	}{
		{name: "base not JSON", base: []byte(`{"Children":[`), overlay: valid},
		{name: "base not an object", base: []byte(`[1,2]`), overlay: valid},
		{name: "base children not array", base: []byte(`{"Children":{}}`), overlay: valid},
		{name: "overlay not JSON", base: valid, overlay: []byte(`nope`)},
		{name: "overlay not an object", base: valid, overlay: []byte(`"Children"`)},
		{name: "overlay children not array", base: valid, overlay: []byte(`{"Children":"x"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergeEntryList(tt.base, tt.overlay, []string{"Ores.Coal."})
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}
