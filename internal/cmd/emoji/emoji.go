// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols used by alerts and summaries.
const (
	// Success marks a completed operation.
	Success = "✓"
	// Error marks a failed operation.
	Error = "✗"
	// Warning marks a non-fatal problem, such as a missing partition.
	Warning = "!"
	// Info marks an informational notice.
	Info = "i"
	// Skipped marks work that was not needed.
	Skipped = "-"
)
