package scm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVNDiffNoChanges(t *testing.T) {
	s := NewSVN(t.TempDir(), nil, nil)
	s.run = func(_ context.Context, _, _ string, _ ...string) (string, string, error) {
		return "", "", nil
	}

	_, err := s.Diff(context.Background())
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestSVNDiffScopesToFiles(t *testing.T) {
	var calls []recordedCall
	s := NewSVN(t.TempDir(), nil, nil)
	s.run = func(_ context.Context, _, name string, args ...string) (string, string, error) {
		calls = append(calls, recordedCall{name, args})
		return "Index: a.go\n+x\n", "", nil
	}

	_, err := s.Diff(context.Background(), "a.go")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "svn", calls[0].name)
	assert.Equal(t, []string{"diff", "a.go"}, calls[0].args)
}

func TestSVNCommit(t *testing.T) {
	var calls []recordedCall
	s := NewSVN(t.TempDir(), nil, nil)
	s.run = func(_ context.Context, _, name string, args ...string) (string, string, error) {
		calls = append(calls, recordedCall{name, args})
		return "", "", nil
	}

	assert.ErrorIs(t, s.Commit(context.Background(), "msg", nil), ErrNoFiles)

	require.NoError(t, s.Commit(context.Background(), "fix: typo", []string{"a.go", "b.go"}))
	last := calls[len(calls)-1]
	assert.Equal(t, []string{"commit", "-m", "fix: typo", "a.go", "b.go"}, last.args)
}

func TestSVNCommitInputRoundTrip(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".svn"), 0o755))

	s := NewSVN(root, nil, nil)
	require.NoError(t, s.SetCommitInput("docs: update readme"))

	msg, err := s.GetCommitInput()
	require.NoError(t, err)
	assert.Equal(t, "docs: update readme", msg)
}

func TestSVNCommitInputWithoutWorkingCopy(t *testing.T) {
	s := NewSVN(t.TempDir(), nil, nil)
	assert.ErrorIs(t, s.SetCommitInput("x"), ErrNoRepository)
}
