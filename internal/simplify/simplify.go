// Package simplify compresses unified-diff text before it is sent to a
// token-limited AI model. It trims whitespace, truncates long lines, and
// collapses long runs of unchanged context lines while keeping file headers
// and every changed line.
package simplify

import (
	"strings"
	"sync"

	"github.com/dshills/quill/internal/config"
)

// collapsedMarker replaces a run of context lines beyond the configured
// limit. It survives re-simplification unchanged.
const collapsedMarker = "..."

// Options gates and tunes the simplifier.
type Options struct {
	Enabled       bool
	ContextLines  int
	MaxLineLength int
}

// headerPrefixes delimit file sections in git and svn unified diffs. Header
// lines are never dropped or truncated.
var headerPrefixes = []string{"Index:", "===", "---", "+++", "@@", "diff "}

// Simplify returns a compressed form of diff. With Enabled false the input
// is returned unchanged. The transform is idempotent for fixed options.
func Simplify(diff string, opts Options) string {
	if !opts.Enabled {
		return diff
	}

	lines := strings.Split(diff, "\n")
	out := make([]string, 0, len(lines))
	contextRun := 0

	for _, line := range lines {
		line = compressWhitespace(line)

		switch {
		case isHeader(line):
			contextRun = 0
			out = append(out, line)
		case strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-"):
			contextRun = 0
			out = append(out, truncate(line, opts.MaxLineLength))
		default:
			contextRun++
			if contextRun <= opts.ContextLines {
				out = append(out, truncate(line, opts.MaxLineLength))
			} else if contextRun == opts.ContextLines+1 {
				out = append(out, collapsedMarker)
			}
		}
	}
	return strings.Join(out, "\n")
}

func isHeader(line string) bool {
	for _, p := range headerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// compressWhitespace preserves the leading diff marker and at most two
// indent spaces, collapses remaining whitespace runs to one space, and trims
// the tail.
func compressWhitespace(line string) string {
	marker := ""
	rest := line
	if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-' || rest[0] == ' ') {
		marker = rest[:1]
		rest = rest[1:]
	}

	indent := 0
	for indent < len(rest) && indent < 2 && rest[indent] == ' ' {
		indent++
	}
	body := strings.Join(strings.Fields(rest[indent:]), " ")
	return strings.TrimRight(marker+rest[:indent]+body, " \t")
}

// truncate cuts a line to at most max characters total, ending in "..." when
// cut. Lengths too small to hold the ellipsis disable truncation.
func truncate(line string, max int) string {
	if max <= len(collapsedMarker) {
		return line
	}
	r := []rune(line)
	if len(r) <= max {
		return line
	}
	return string(r[:max-len(collapsedMarker)]) + collapsedMarker
}

// Source serves simplifier options from the configuration manager, caching
// them until a relevant settings change invalidates the cache.
type Source struct {
	mgr *config.Manager

	mu     sync.Mutex
	cached *Options

	unsubscribe func()
}

// NewSource creates a Source bound to the manager's change events.
func NewSource(mgr *config.Manager) *Source {
	s := &Source{mgr: mgr}
	s.unsubscribe = mgr.OnChange(func(paths []string) {
		for _, p := range paths {
			if strings.HasPrefix(p, "features.diffSimplification.") {
				s.mu.Lock()
				s.cached = nil
				s.mu.Unlock()
				return
			}
		}
	})
	return s
}

// Options returns the current simplifier options, reading the configuration
// only when the cache is cold.
func (s *Source) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		s.cached = &Options{
			Enabled:       s.mgr.GetBool("features.diffSimplification.enabled"),
			ContextLines:  s.mgr.GetInt("features.diffSimplification.contextLines"),
			MaxLineLength: s.mgr.GetInt("features.diffSimplification.maxLineLength"),
		}
	}
	return *s.cached
}

// Simplify applies the current options to diff.
func (s *Source) Simplify(diff string) string {
	return Simplify(diff, s.Options())
}

// Close releases the configuration subscription.
func (s *Source) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
