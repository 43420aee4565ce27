package testutils

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flowfile"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFlowFile writes defs to dir/name in the format implied by the extension
// and returns the file path.
func WriteFlowFile(t *testing.T, dir, name string, defs []domain.Definition) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, flowfile.Write(path, defs), "Failed to write flow file")
	return path
}

// SampleFlow returns a small flow whose media card has no next node.
func SampleFlow() []domain.Definition {
	return []domain.Definition{
		{"id": "welcome", "type": "send-message", "name": "Welcome", "message": "Hi!", "next_id": "photo"},
		{"id": "photo", "type": "send-media-message", "name": "Photo", "message": "Look", "media_url": "", "next_id": nil},
		{"id": "bye", "type": "end", "name": "Bye"},
	}
}
