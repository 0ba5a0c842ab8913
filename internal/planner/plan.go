package planner

// OverlayPlan represents a plan to apply overlays to a working tree.
type OverlayPlan struct {
	// Generator is the generator name the plan was built for
	Generator string

	// Prefix is the identifier prefix stripped to obtain relative paths
	Prefix string

	// Destination is the working tree root
	Destination string

	// Operations is the ordered list of operations to execute
	Operations []Operation

	// Skipped lists identifiers that will not be applied
	Skipped []Skip
}

// Operation represents a single overlay to apply.
type Operation struct {
	// Type is the operation type: "merge" or "copy"
	Type string

	// Identifier is the resource identifier to load
	Identifier string

	// RelPath is the slash-separated path relative to the working tree
	RelPath string

	// DestPath is the destination path in the working tree (for FS operations)
	DestPath string
}

// Skip records an identifier left out of the plan.
type Skip struct {
	// Identifier is the skipped resource identifier
	Identifier string

	// Reason is a human-readable explanation
	Reason string

	// Err wraps ErrIdentifierMismatch
	Err error
}

// Operation type constants
const (
	OpMerge = "merge"
	OpCopy  = "copy"
)

// NewOverlayPlan creates a new empty OverlayPlan.
func NewOverlayPlan(generator, prefix, destination string) *OverlayPlan {
	return &OverlayPlan{
		Generator:   generator,
		Prefix:      prefix,
		Destination: destination,
		Operations:  []Operation{},
		Skipped:     []Skip{},
	}
}

// AddOperation adds an operation to the plan.
func (p *OverlayPlan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// AddSkip records a skipped identifier.
func (p *OverlayPlan) AddSkip(skip Skip) {
	p.Skipped = append(p.Skipped, skip)
}

// Count returns the number of operations of the given type.
func (p *OverlayPlan) Count(opType string) int {
	n := 0
	for _, op := range p.Operations {
		if op.Type == opType {
			n++
		}
	}
	return n
}
