// Package document reads and rewrites the JSON documents of a working tree.
//
// Two operations live here: StripField, a best-effort JSON Patch removal of a
// top-level field, and MergeEntryList, the keyed merge of an entry-list
// document. Entry-list documents hold an ordered "Children" array whose
// entries are identified by the string at Node[0]:
//
//	{
//	  "Name": "Distribution Wheel",
//	  "Children": [
//	    {"Node": ["Ores.Iron.Spread", ...], ...}
//	  ],
//	  ...
//	}
//
// Entries are treated as opaque and copied byte for byte before the final
// pretty print, so fields this package does not know about survive a merge.
package document

import (
	"errors"

	"github.com/tidwall/pretty"
)

// ErrMalformed indicates a document is not valid JSON or lacks the expected shape.
var ErrMalformed = errors.New("malformed document")

var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Pretty returns doc in the stable pretty-printed form used for every file
// the engine writes. Field order is preserved.
func Pretty(doc []byte) []byte {
	return pretty.PrettyOptions(doc, prettyOptions)
}
