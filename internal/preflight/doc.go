// Package preflight provides the filesystem and host checks an export runs
// before any external process is started, plus the ValidationResult type
// those checks report through.
//
// These checks run in two contexts:
//   - The export controller turns them into ValidationResults during its
//     Validating stage. Any Error-severity result blocks the run.
//   - The CLI "lyricast status" command uses RunAll to display directory
//     health and free space.
package preflight
