// Package scm shells out to version-control CLIs behind a common Provider
// contract: collect pending diffs, commit, and read or write the pending
// commit message. Git and Subversion backends are included; detection order
// for "auto" is git then svn.
package scm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/dshills/quill/internal/simplify"
)

var (
	// ErrNoRepository is returned when no repository is found at the root.
	ErrNoRepository = errors.New("no repository found")
	// ErrNoChanges is returned when a diff command produces no output.
	ErrNoChanges = errors.New("no changes")
	// ErrNoFiles is returned when commit is called with an empty file list.
	ErrNoFiles = errors.New("no files to commit")
)

// Provider is the version-control abstraction interface.
type Provider interface {
	// ID identifies the backend ("git" or "svn").
	ID() string
	// IsAvailable probes for a repository at the workspace root.
	IsAvailable(ctx context.Context) bool
	// Diff collects pending changes, scoped to files when given. The result
	// passes through the diff simplifier when that feature is enabled.
	Diff(ctx context.Context, files ...string) (string, error)
	// Commit records the given files with the message.
	Commit(ctx context.Context, message string, files []string) error
	// SetCommitInput writes the pending commit message.
	SetCommitInput(message string) error
	// GetCommitInput reads the pending commit message.
	GetCommitInput() (string, error)
}

// Notifier surfaces warnings to the user. The ui package implements it.
type Notifier interface {
	Warnf(format string, args ...any)
}

// runner executes a version-control command in dir and returns its output
// streams. Tests substitute a stub.
type runner func(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)

func execRunner(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	return out.String(), errOut.String(), err
}

// Detect resolves the provider for a workspace. With backend "auto", git is
// probed first, then svn.
func Detect(ctx context.Context, backend, root string, simp *simplify.Source, notify Notifier) (Provider, error) {
	switch backend {
	case "git":
		return NewGit(root, simp, notify), nil
	case "svn":
		return NewSVN(root, simp, notify), nil
	case "auto", "":
		for _, p := range []Provider{NewGit(root, simp, notify), NewSVN(root, simp, notify)} {
			if p.IsAvailable(ctx) {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w in %s", ErrNoRepository, root)
	default:
		return nil, fmt.Errorf("unknown scm backend: %s", backend)
	}
}

// simplifyDiff routes diff output through the simplifier and warns once per
// call that the AI sees a compressed diff.
func simplifyDiff(diff string, simp *simplify.Source, notify Notifier) string {
	if simp == nil {
		return diff
	}
	opts := simp.Options()
	if !opts.Enabled {
		return diff
	}
	if notify != nil {
		notify.Warnf("diff simplification is enabled; the AI receives a compressed diff")
	}
	return simplify.Simplify(diff, opts)
}
