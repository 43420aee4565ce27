package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flowfile"
	"github.com/aretw0/cardflow/pkg/session"
)

// ErrNoStore is returned when a flow id is given but no store is configured.
var ErrNoStore = errors.New("no flow store configured")

// Target is a flow the commands read and edit: a flow file or a stored flow.
type Target interface {
	Name() string
	View(ctx context.Context, fn func(context.Context, *cardflow.Editor) error) error
	Edit(ctx context.Context, fn func(context.Context, *cardflow.Editor) error) (*domain.FlowDiff, error)
}

// ResolveTarget returns a file target when ref is an existing flow file and a
// store target otherwise.
func ResolveTarget(ref string, mgr *session.Manager, opts ...cardflow.Option) (Target, error) {
	if flowfile.IsFlowFile(ref) {
		if _, err := os.Stat(ref); err == nil {
			return &FileTarget{Path: ref, Options: opts}, nil
		}
	}
	if mgr == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrNoStore)
	}
	return &StoreTarget{FlowID: ref, Sessions: mgr}, nil
}

// FileTarget edits a flow file in place.
type FileTarget struct {
	Path    string
	Options []cardflow.Option
}

func (t *FileTarget) Name() string { return t.Path }

func (t *FileTarget) open() (*cardflow.Editor, error) {
	defs, err := flowfile.Read(t.Path)
	if err != nil {
		return nil, err
	}
	return cardflow.Open(defs, append([]cardflow.Option{cardflow.WithFlowID(t.Path)}, t.Options...)...), nil
}

func (t *FileTarget) View(ctx context.Context, fn func(context.Context, *cardflow.Editor) error) error {
	ed, err := t.open()
	if err != nil {
		return err
	}
	return fn(ctx, ed)
}

// Edit rewrites the file only when fn changed the flow.
func (t *FileTarget) Edit(ctx context.Context, fn func(context.Context, *cardflow.Editor) error) (*domain.FlowDiff, error) {
	ed, err := t.open()
	if err != nil {
		return nil, err
	}
	if n := len(ed.Graph().LoadIssues()); n > 0 {
		return nil, fmt.Errorf("%s: %d skipped: %w", t.Path, n, domain.ErrMalformedFlow)
	}
	before := ed.Graph().Snapshot()
	if err := fn(ctx, ed); err != nil {
		return nil, err
	}
	after := ed.Graph().Definitions()
	diff := domain.DiffFlows(t.Path, before, after)
	if diff == nil {
		return nil, nil
	}
	if err := flowfile.Write(t.Path, after); err != nil {
		return nil, err
	}
	return diff, nil
}

// StoreTarget edits a flow held by a session manager.
type StoreTarget struct {
	FlowID   string
	Sessions *session.Manager
}

func (t *StoreTarget) Name() string { return t.FlowID }

func (t *StoreTarget) View(ctx context.Context, fn func(context.Context, *cardflow.Editor) error) error {
	return t.Sessions.View(ctx, t.FlowID, fn)
}

func (t *StoreTarget) Edit(ctx context.Context, fn func(context.Context, *cardflow.Editor) error) (*domain.FlowDiff, error) {
	return t.Sessions.Edit(ctx, t.FlowID, fn)
}
