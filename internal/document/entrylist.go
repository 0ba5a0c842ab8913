package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// FieldChildren holds the entry sequence of an entry-list document.
	FieldChildren = "Children"

	// FieldNode holds an entry's node reference; element 0 is its key.
	FieldNode = "Node"
)

// defaultEntryList is the document synthesized when the destination entry
// list does not exist. Downstream generators rely on these exact values.
const defaultEntryList = `{"Name":"Distribution Wheel","Children":[],"Type":"EMPTY_LINE","Length":[0],"YawAdd":0}`

// DefaultEntryList returns a fresh copy of the scaffold entry-list document.
func DefaultEntryList() []byte {
	return []byte(defaultEntryList)
}

// MergeOutcome is the result of merging overlay entries into an entry list.
type MergeOutcome struct {
	// Document is the pretty-printed merged document. Nil when the overlay
	// carried no Children and nothing should be written.
	Document []byte

	// Added lists the keys of inserted entries, in insertion order.
	Added []string

	// Created is true when the base document was synthesized.
	Created bool
}

// MergeEntryList merges the eligible entries of overlay into existing.
//
// existing is nil when the destination file does not exist yet, in which case
// the scaffold document is used. An overlay entry is inserted only if its key
// starts with one of prefixes and is not already present; inserted entries
// are placed before all original entries, in overlay order. Entries lacking a
// usable key are ignored on both sides.
func MergeEntryList(existing, overlay []byte, prefixes []string) (*MergeOutcome, error) {
	outcome := &MergeOutcome{Created: existing == nil}
	if outcome.Created {
		existing = DefaultEntryList()
	}

	if err := requireObject(existing); err != nil {
		return nil, fmt.Errorf("base document: %w", err)
	}
	baseChildren := gjson.GetBytes(existing, FieldChildren)
	if baseChildren.Exists() && !baseChildren.IsArray() {
		return nil, fmt.Errorf("%w: base %s is not an array", ErrMalformed, FieldChildren)
	}
	seen := make(map[string]bool)
	for _, key := range keysOf(baseChildren) {
		seen[key] = true
	}

	if err := requireObject(overlay); err != nil {
		return nil, fmt.Errorf("overlay document: %w", err)
	}
	overlayChildren := gjson.GetBytes(overlay, FieldChildren)
	if !overlayChildren.Exists() {
		return outcome, nil
	}
	if !overlayChildren.IsArray() {
		return nil, fmt.Errorf("%w: overlay %s is not an array", ErrMalformed, FieldChildren)
	}

	var prepend []string
	overlayChildren.ForEach(func(_, entry gjson.Result) bool {
		key, ok := EntryKey(entry)
		if !ok || !hasAnyPrefix(key, prefixes) || seen[key] {
			return true
		}
		seen[key] = true
		prepend = append(prepend, entry.Raw)
		outcome.Added = append(outcome.Added, key)
		return true
	})

	doc := existing
	if len(prepend) > 0 || !baseChildren.Exists() {
		raws := prepend
		baseChildren.ForEach(func(_, entry gjson.Result) bool {
			raws = append(raws, entry.Raw)
			return true
		})
		children := "[" + strings.Join(raws, ",") + "]"

		var err error
		doc, err = sjson.SetRawBytes(bytes.Clone(existing), FieldChildren, []byte(children))
		if err != nil {
			return nil, fmt.Errorf("failed to replace %s: %w", FieldChildren, err)
		}
	}

	outcome.Document = Pretty(doc)
	return outcome, nil
}

// EntryKey returns the key of an entry: the string at Node[0].
// ok is false for entries that are not objects, have no Node array, an empty
// Node, or a non-string first element.
func EntryKey(entry gjson.Result) (key string, ok bool) {
	if !entry.IsObject() {
		return "", false
	}
	node := entry.Get(FieldNode)
	if !node.IsArray() {
		return "", false
	}
	first := node.Get("0")
	if first.Type != gjson.String {
		return "", false
	}
	return first.Str, true
}

// EntryKeys returns the keys of doc's Children in document order.
func EntryKeys(doc []byte) ([]string, error) {
	if err := requireObject(doc); err != nil {
		return nil, err
	}
	children := gjson.GetBytes(doc, FieldChildren)
	if children.Exists() && !children.IsArray() {
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformed, FieldChildren)
	}
	return keysOf(children), nil
}

func keysOf(children gjson.Result) []string {
	var keys []string
	children.ForEach(func(_, entry gjson.Result) bool {
		if key, ok := EntryKey(entry); ok {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

func requireObject(doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	if !gjson.ParseBytes(doc).IsObject() {
		return fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}
	return nil
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
