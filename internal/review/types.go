package review

// Section is one reviewed file's rendered result.
type Section struct {
	File    string
	Content string
}

// FileError records a per-file failure inside a batch.
type FileError struct {
	File string
	Err  error
}

// Usage totals the token counters across a batch. Vendors that do not
// report usage contribute zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Report is the outcome of a batch review.
type Report struct {
	Sections []Section
	Failed   []FileError
	Usage    Usage
}
