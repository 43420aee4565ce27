// Package loam stores flows as documents in a Loam repository: one Markdown
// document per flow, with the card definitions in its frontmatter and a
// readable card index as its body.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

// Store implements ports.FlowStore on top of Loam.
type Store struct {
	repo  core.Repository
	typed *loam.TypedRepository[FlowMetadata]
}

// New initializes (or opens) a Loam repository at path.
func New(path string, opts ...loam.Option) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	opts = append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return NewFromRepo(repo), nil
}

// NewFromRepo wraps an initialized repository.
func NewFromRepo(repo core.Repository) *Store {
	return &Store{
		repo:  repo,
		typed: loam.NewTypedRepository[FlowMetadata](repo),
	}
}

// Save writes the flow document.
func (s *Store) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	cards := make([]map[string]any, len(defs))
	for i, def := range defs {
		cards[i] = map[string]any(def.Clone())
	}

	err := s.typed.Save(ctx, &loam.DocumentModel[FlowMetadata]{
		ID:      flowID,
		Content: summary(flowID, defs),
		Data: FlowMetadata{
			ID:    flowID,
			Title: flowID,
			Cards: cards,
		},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", flowID, err)
	}
	return nil
}

// summary renders the document body: one line per card.
func summary(flowID string, defs []domain.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", flowID)
	for _, def := range defs {
		name := def.Name()
		if name == "" {
			name = def.ID()
		}
		fmt.Fprintf(&b, "- %s (%s)", name, def.Type())
		if next := def.Ref(domain.FieldNextID); next != "" {
			fmt.Fprintf(&b, " -> %s", next)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Load reads the flow document.
func (s *Store) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return nil, err
	}
	doc, err := s.typed.Get(ctx, flowID)
	if err != nil {
		// Loam reports missing documents with an untyped error.
		return nil, fmt.Errorf("%w: %v", domain.ErrFlowNotFound, err)
	}

	defs := make([]domain.Definition, len(doc.Data.Cards))
	for i, c := range doc.Data.Cards {
		defs[i] = domain.Definition(c)
	}
	return defs, nil
}

// Delete removes the flow document. Missing flows are ignored.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	if _, err := s.typed.Get(ctx, flowID); err != nil {
		return nil
	}
	if err := s.repo.Delete(ctx, flowID); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", flowID, err)
	}
	return nil
}

// List returns the ids of the stored flows.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	flows := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := doc.Data.ID
		if id == "" {
			id = trimExtension(doc.ID)
		}
		flows = append(flows, id)
	}
	sort.Strings(flows)
	return flows, nil
}

func trimExtension(id string) string {
	return strings.TrimSuffix(id, filepath.Ext(id))
}
