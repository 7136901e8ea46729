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

// commitMsgFile holds the pending commit message inside .svn/tmp.
// Subversion has no native commit-input field.
const commitMsgFile = "quill-commit-msg"

// SVN is the Subversion-backed Provider.
type SVN struct {
	root   string
	run    runner
	simp   *simplify.Source
	notify Notifier

	mu     sync.Mutex
	probed bool
	ok     bool
}

// NewSVN creates a Subversion provider rooted at the workspace directory.
func NewSVN(root string, simp *simplify.Source, notify Notifier) *SVN {
	return &SVN{root: root, run: execRunner, simp: simp, notify: notify}
}

func (s *SVN) ID() string { return "svn" }

// IsAvailable probes the working copy with svn info, caching the result.
func (s *SVN) IsAvailable(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.probed {
		return s.ok
	}
	_, _, err := s.run(ctx, s.root, "svn", "info")
	s.probed = true
	s.ok = err == nil
	return s.ok
}

// Diff returns pending working-copy changes, scoped to files when given.
func (s *SVN) Diff(ctx context.Context, files ...string) (string, error) {
	args := []string{"diff"}
	args = append(args, files...)

	stdout, stderr, err := s.run(ctx, s.root, "svn", args...)
	if err != nil {
		return "", fmt.Errorf("svn diff: %s: %w", strings.TrimSpace(stderr), err)
	}
	if strings.TrimSpace(stderr) != "" {
		return "", fmt.Errorf("svn diff: %s", strings.TrimSpace(stderr))
	}
	if strings.TrimSpace(stdout) == "" {
		return "", ErrNoChanges
	}
	return simplifyDiff(stdout, s.simp, s.notify), nil
}

// Commit records the given files with the message.
func (s *SVN) Commit(ctx context.Context, message string, files []string) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if !s.IsAvailable(ctx) {
		return fmt.Errorf("%w in %s", ErrNoRepository, s.root)
	}

	args := append([]string{"commit", "-m", message}, files...)
	if _, stderr, err := s.run(ctx, s.root, "svn", args...); err != nil {
		return fmt.Errorf("svn commit: %s: %w", strings.TrimSpace(stderr), err)
	}
	return nil
}

func (s *SVN) commitMsgPath() (string, error) {
	tmp := filepath.Join(s.root, ".svn", "tmp")
	if _, err := os.Stat(filepath.Join(s.root, ".svn")); err != nil {
		return "", fmt.Errorf("%w in %s", ErrNoRepository, s.root)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return "", fmt.Errorf("creating .svn/tmp: %w", err)
	}
	return filepath.Join(tmp, commitMsgFile), nil
}

// SetCommitInput stores the pending commit message in the working copy.
func (s *SVN) SetCommitInput(message string) error {
	path, err := s.commitMsgPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(message), 0o644)
}

// GetCommitInput reads the pending commit message.
func (s *SVN) GetCommitInput() (string, error) {
	path, err := s.commitMsgPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading commit message: %w", err)
	}
	return string(data), nil
}
