package scm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/quill/internal/simplify"
)

// Git is the git-backed Provider.
type Git struct {
	root   string
	run    runner
	simp   *simplify.Source
	notify Notifier

	mu     sync.Mutex
	gitDir string // cached on first successful probe
}

// NewGit creates a git provider rooted at the workspace directory.
func NewGit(root string, simp *simplify.Source, notify Notifier) *Git {
	return &Git{root: root, run: execRunner, simp: simp, notify: notify}
}

func (g *Git) ID() string { return "git" }

// IsAvailable probes for a repository and caches its git directory.
func (g *Git) IsAvailable(ctx context.Context) bool {
	_, err := g.repoDir(ctx)
	return err == nil
}

// repoDir resolves and caches the repository's .git directory.
func (g *Git) repoDir(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gitDir != "" {
		return g.gitDir, nil
	}
	out, _, err := g.run(ctx, g.root, "git", "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("%w in %s", ErrNoRepository, g.root)
	}
	g.gitDir = strings.TrimSpace(out)
	return g.gitDir, nil
}

// Diff returns pending changes against HEAD, scoped to files when given.
func (g *Git) Diff(ctx context.Context, files ...string) (string, error) {
	args := []string{"diff", "HEAD"}
	if len(files) > 0 {
		args = append(args, "--")
		args = append(args, files...)
	}

	stdout, stderr, err := g.run(ctx, g.root, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git diff: %s: %w", strings.TrimSpace(stderr), err)
	}
	if strings.TrimSpace(stderr) != "" {
		return "", fmt.Errorf("git diff: %s", strings.TrimSpace(stderr))
	}
	if strings.TrimSpace(stdout) == "" {
		return "", ErrNoChanges
	}
	return simplifyDiff(stdout, g.simp, g.notify), nil
}

// Commit records the given files. The file list is required so only the
// reviewed changes land in the commit.
func (g *Git) Commit(ctx context.Context, message string, files []string) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if _, err := g.repoDir(ctx); err != nil {
		return err
	}

	addArgs := append([]string{"add", "--"}, files...)
	if _, stderr, err := g.run(ctx, g.root, "git", addArgs...); err != nil {
		return fmt.Errorf("git add: %s: %w", strings.TrimSpace(stderr), err)
	}

	commitArgs := append([]string{"commit", "-m", message, "--"}, files...)
	if _, stderr, err := g.run(ctx, g.root, "git", commitArgs...); err != nil {
		return fmt.Errorf("git commit: %s: %w", strings.TrimSpace(stderr), err)
	}
	return nil
}

// SetCommitInput writes the pending commit message into the repository's
// COMMIT_EDITMSG so editors pick it up.
func (g *Git) SetCommitInput(message string) error {
	dir, err := g.repoDir(context.Background())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "COMMIT_EDITMSG"), []byte(message), 0o644)
}

// GetCommitInput reads the pending commit message.
func (g *Git) GetCommitInput() (string, error) {
	dir, err := g.repoDir(context.Background())
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, "COMMIT_EDITMSG"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading commit message: %w", err)
	}
	return string(data), nil
}
