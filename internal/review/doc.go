// Package review orchestrates the AI workflows: generating a commit message
// from pending changes and reviewing a batch of files.
//
// Batch reviews fan out per file with a bounded worker group. A failing file
// is isolated: it surfaces as a warning and the remaining files still render.
// The batch fails only when every file fails.
package review
