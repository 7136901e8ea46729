// Package cli implements the quill command tree: commit-message generation,
// batch code review, model management, and configuration editing.
package cli
