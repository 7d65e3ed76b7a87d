// Package output renders worldsave command results.
//
// Commands build plain values (structs, slices, maps) and hand them to
// a Formatter chosen by the global --output flag:
//
//   - table: aligned columns via tabwriter; json tags name the columns,
//     `table:"wide"` fields appear only with --wide, `table:"-"` hides
//   - json: indented JSON for scripting
//   - yaml: the same values in YAML
//
// progress.go adds a line-rewriting counter for operations that touch
// many snapshots, such as archive verify.
package output
