// Package planner handles the planning phase of overlay application.
//
// The planner turns a list of overlay identifiers into a deterministic,
// ordered plan before anything touches the filesystem. It decides for each
// identifier whether it belongs to the active generator, where it lands in
// the working tree, and whether it is merged or copied.
//
// Key responsibilities:
//   - Strip the generator prefix and resolve destination paths
//   - Skip identifiers from other generators or with unsafe paths
//   - Pick merge vs. whole-file copy by entry-list pattern
package planner
