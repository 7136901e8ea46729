package review

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/providers"
	"github.com/dshills/quill/internal/redact"
	"github.com/dshills/quill/internal/scm"
)

// Notifier surfaces per-file warnings during a batch.
type Notifier interface {
	Warnf(format string, args ...any)
}

// Engine wires the SCM provider, AI provider, and configuration into the
// user-facing workflows.
type Engine struct {
	cfg      *config.Manager
	provider providers.Provider
	repo     scm.Provider
	notify   Notifier
	log      zerolog.Logger

	// OnProgress, when set, is called after each file in a batch finishes.
	OnProgress func(file string, done, total int)
}

// New creates an Engine.
func New(cfg *config.Manager, provider providers.Provider, repo scm.Provider, notify Notifier, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, provider: provider, repo: repo, notify: notify, log: log}
}

// prepareDiff collects the diff for the given files and applies secret
// redaction when enabled.
func (e *Engine) prepareDiff(ctx context.Context, files ...string) (string, error) {
	diff, err := e.repo.Diff(ctx, files...)
	if err != nil {
		return "", err
	}
	if e.cfg.GetBool("features.redactSecrets") {
		diff = redact.Diff(diff)
	}
	return diff, nil
}

// CommitMessage generates a commit message from pending changes, scoped to
// files when given.
func (e *Engine) CommitMessage(ctx context.Context, files ...string) (string, error) {
	diff, err := e.prepareDiff(ctx, files...)
	if err != nil {
		return "", err
	}

	settings := e.cfg.Settings()
	resp, err := e.provider.GenerateResponse(ctx, providers.Request{
		SystemPrompt: settings.Base.SystemPrompt,
		Prompt:       BuildCommitPrompt(diff),
	})
	if err != nil {
		return "", fmt.Errorf("generating commit message: %w", err)
	}

	e.log.Debug().
		Str("provider", e.provider.ID()).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("commit message generated")

	return cleanMessage(resp.Content), nil
}

// ReviewFiles reviews each file's pending diff concurrently. Per-file
// failures are isolated as warnings; the call errors only when every file
// fails.
func (e *Engine) ReviewFiles(ctx context.Context, files []string) (*Report, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to review")
	}

	concurrency := e.cfg.GetInt("features.review.concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	sections := make([]*Section, len(files))
	fileErrs := make([]error, len(files))
	var (
		mu    sync.Mutex
		usage Usage
		done  int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			content, u, err := e.reviewOne(ctx, file)

			mu.Lock()
			if err != nil {
				fileErrs[i] = err
			} else {
				sections[i] = &Section{File: file, Content: content}
				usage.InputTokens += u.InputTokens
				usage.OutputTokens += u.OutputTokens
				usage.TotalTokens += u.TotalTokens
			}
			done++
			d := done
			mu.Unlock()

			if e.OnProgress != nil {
				e.OnProgress(file, d, len(files))
			}
			// Failures are recorded, not returned: one file must not cancel
			// the rest of the batch.
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	report := &Report{Usage: usage}
	for i, file := range files {
		if err := fileErrs[i]; err != nil {
			e.log.Warn().Str("file", file).Err(err).Msg("file review failed")
			if e.notify != nil {
				e.notify.Warnf("review of %s failed: %v", file, err)
			}
			report.Failed = append(report.Failed, FileError{File: file, Err: err})
			continue
		}
		if sections[i] != nil {
			report.Sections = append(report.Sections, *sections[i])
		}
	}

	if len(report.Sections) == 0 {
		return nil, fmt.Errorf("review failed for all %d files", len(files))
	}
	return report, nil
}

func (e *Engine) reviewOne(ctx context.Context, file string) (string, providers.Usage, error) {
	diff, err := e.prepareDiff(ctx, file)
	if err != nil {
		return "", providers.Usage{}, err
	}

	resp, err := e.provider.GenerateResponse(ctx, providers.Request{
		SystemPrompt: reviewSystemPrompt,
		Prompt:       BuildReviewPrompt(file, diff),
	})
	if err != nil {
		return "", providers.Usage{}, err
	}
	return strings.TrimSpace(resp.Content), resp.Usage, nil
}

// cleanMessage strips surrounding code fences and quotes models sometimes
// wrap the commit message in.
func cleanMessage(content string) string {
	msg := strings.TrimSpace(content)
	if strings.HasPrefix(msg, "```") {
		lines := strings.Split(msg, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			msg = strings.TrimSpace(strings.Join(lines[1:end], "\n"))
		}
	}
	msg = strings.Trim(msg, "\"")
	return msg
}
