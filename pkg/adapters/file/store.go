package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flowfile"
)

// Store implements ports.FlowStore on the local filesystem.
// Each flow is one document named <flowID>.<ext> in the base directory.
type Store struct {
	BasePath string
	Format   flowfile.Format
}

// Option configures the Store.
type Option func(*Store)

// WithFormat selects the encoding of newly written flows. Defaults to JSON.
func WithFormat(format flowfile.Format) Option {
	return func(s *Store) {
		s.Format = format
	}
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".cardflow/flows".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".cardflow", "flows")
	}
	s := &Store{BasePath: basePath, Format: flowfile.FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ext() string {
	if s.Format == flowfile.FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// find returns the existing document of flowID, whatever its extension.
func (s *Store) find(flowID string) (string, bool) {
	for _, ext := range flowfile.Extensions {
		path := filepath.Join(s.BasePath, flowID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Save writes the flow, replacing any document of the same id.
func (s *Store) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	target := filepath.Join(s.BasePath, flowID+s.ext())
	data, err := flowfile.Marshal(s.Format, defs)
	if err != nil {
		return err
	}

	// Write next to the target and rename, so readers never see a partial file.
	tmp, err := os.CreateTemp(s.BasePath, "."+flowID+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp flow file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write flow file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write flow file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace flow file: %w", err)
	}

	// Drop copies stored under another extension.
	for _, ext := range flowfile.Extensions {
		if other := filepath.Join(s.BasePath, flowID+ext); other != target {
			_ = os.Remove(other)
		}
	}
	return nil
}

// Load reads the flow document.
func (s *Store) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return nil, err
	}
	path, ok := s.find(flowID)
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	defs, err := flowfile.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, err
	}
	return defs, nil
}

// Delete removes the flow document.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	for _, ext := range flowfile.Extensions {
		err := os.Remove(filepath.Join(s.BasePath, flowID+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete flow file: %w", err)
		}
	}
	return nil
}

// List returns the ids of every flow document in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	seen := make(map[string]bool)
	flows := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !flowfile.IsFlowFile(name) {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if !seen[id] {
			seen[id] = true
			flows = append(flows, id)
		}
	}
	sort.Strings(flows)
	return flows, nil
}
