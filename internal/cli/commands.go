package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/internal/presentation/graph"
	"github.com/aretw0/cardflow/internal/presentation/tui"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/dsl"
	"github.com/aretw0/cardflow/pkg/flowfile"
	"github.com/aretw0/cardflow/pkg/registry"
	"github.com/aretw0/cardflow/pkg/session"
)

// ErrIssuesFound is returned by Validate when the flow has issues.
var ErrIssuesFound = errors.New("flow has issues")

// App runs the CLI operations, writing human output to Out.
type App struct {
	Out    io.Writer
	Logger *slog.Logger
	// Styled renders markdown reports and colors when Out is a terminal.
	Styled   bool
	Registry *registry.Registry
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.NewNop()
	}
	return a.Logger
}

func (a *App) registry() *registry.Registry {
	if a.Registry == nil {
		return registry.Default()
	}
	return a.Registry
}

// Validate prints every issue of the flow. When entry is set, cards that
// cannot be reached from it are listed too.
func (a *App) Validate(ctx context.Context, t Target, entry string) error {
	var issues []domain.Issue
	var unreachable []string

	err := t.View(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		issues = ed.Issues()
		if entry == "" {
			return nil
		}
		cards, err := ed.Graph().Unreachable(entry)
		if err != nil {
			return err
		}
		for _, c := range cards {
			unreachable = append(unreachable, describe(c))
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.logger().Debug("flow validated", "flow", t.Name(), "issues", len(issues), "unreachable", len(unreachable))

	if a.Styled {
		out, err := tui.NewRenderer()(tui.IssueReport(t.Name(), issues))
		if err != nil {
			return err
		}
		fmt.Fprint(a.Out, out)
	} else {
		fmt.Fprint(a.Out, tui.PlainIssues(issues))
	}
	for _, u := range unreachable {
		fmt.Fprintf(a.Out, "Unreachable: %s\n", u)
	}

	if len(issues) > 0 {
		return fmt.Errorf("%s: %d issue(s): %w", t.Name(), len(issues), ErrIssuesFound)
	}
	if a.Styled {
		fmt.Fprintln(a.Out, tui.Status(true, "Flow is valid! ✅"))
	} else {
		fmt.Fprintln(a.Out, "Flow is valid! ✅")
	}
	return nil
}

// Graph prints the flow as a Mermaid flowchart. focus highlights a card's edges.
func (a *App) Graph(ctx context.Context, t Target, focus string, markIssues bool) error {
	return t.View(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		var overlay *graph.GraphOverlay
		if focus != "" || markIssues {
			overlay = &graph.GraphOverlay{Focus: focus}
			if markIssues {
				overlay.Issues = ed.Issues()
			}
		}
		fmt.Fprint(a.Out, graph.GenerateMermaid(ed.Graph().Cards(), overlay))
		return nil
	})
}

// Edges prints the cards a card points to and the cards pointing to it.
func (a *App) Edges(ctx context.Context, t Target, cardID string) error {
	return t.View(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		c := ed.Graph().Lookup(cardID)
		if c == nil {
			return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
		}
		out, in := ed.Edges(cardID)
		fmt.Fprintf(a.Out, "%s\n", describe(c))
		fmt.Fprintln(a.Out, "Outgoing:")
		for _, o := range out {
			fmt.Fprintf(a.Out, "  -> %s\n", describe(o))
		}
		fmt.Fprintln(a.Out, "Incoming:")
		for _, i := range in {
			fmt.Fprintf(a.Out, "  <- %s\n", describe(i))
		}
		return nil
	})
}

// Search prints the cards matching query.
func (a *App) Search(ctx context.Context, t Target, query string) error {
	return t.View(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		for _, c := range ed.Graph().Search(query) {
			fmt.Fprintln(a.Out, describe(c))
		}
		return nil
	})
}

// Rename repoints every reference to oldID at newID.
func (a *App) Rename(ctx context.Context, t Target, oldID, newID string) error {
	var n int
	_, err := t.Edit(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		n = ed.RenameReference(ctx, oldID, newID)
		return nil
	})
	if err != nil {
		return err
	}
	printSystemMessage(a.Out, "Updated %d card(s).", n)
	return nil
}

// AddCard appends a card of cardType with default contents and prints its id.
func (a *App) AddCard(ctx context.Context, t Target, cardType, name string) error {
	var id string
	_, err := t.Edit(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		c, err := ed.AddCard(ctx, cardType, name)
		if err != nil {
			return err
		}
		id = c.ID()
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, id)
	return nil
}

// RemoveCard deletes a card. References to it are left dangling.
func (a *App) RemoveCard(ctx context.Context, t Target, cardID string) error {
	var dangling int
	_, err := t.Edit(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		dangling = len(ed.Graph().Incoming(cardID))
		if !ed.RemoveCard(ctx, cardID) {
			return fmt.Errorf("card %q: %w", cardID, domain.ErrCardNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	printSystemMessage(a.Out, "Removed %s; %d card(s) still point to it.", cardID, dangling)
	return nil
}

// Link points a reference field of a card at dest and prints the card's issues.
func (a *App) Link(ctx context.Context, t Target, cardID, field, dest string) error {
	if field == "" {
		field = domain.FieldNextID
	}
	var issues []domain.Issue
	_, err := t.Edit(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		var err error
		issues, err = ed.OnReferencePicked(ctx, cardID, field, dest)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprint(a.Out, tui.PlainIssues(issues))
	return nil
}

// SetField changes a plain field. With asJSON the raw value is decoded as
// JSON, otherwise it is stored as a string.
func (a *App) SetField(ctx context.Context, t Target, cardID, field, raw string, asJSON bool) error {
	var value any = raw
	if asJSON {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("invalid JSON value: %w", err)
		}
	}
	var issues []domain.Issue
	_, err := t.Edit(ctx, func(ctx context.Context, ed *cardflow.Editor) error {
		if err := ed.OnFieldChange(ctx, cardID, field, value); err != nil {
			return err
		}
		issues = ed.Graph().Lookup(cardID).Validate()
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprint(a.Out, tui.PlainIssues(issues))
	return nil
}

// Types prints the registered card types and their palette labels.
func (a *App) Types() {
	reg := a.registry()
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tLABEL")
	for _, t := range reg.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\n", t, reg.Label(t))
	}
	tw.Flush()
}

// Starter returns a new flow: a welcome message leading to an end card.
func (a *App) Starter() ([]domain.Definition, error) {
	return dsl.NewWithRegistry(a.registry()).
		Message("welcome", "Hi! This is a new flow.").Name("Welcome").Go("end").
		End("end").Name("End").
		Build()
}

// CreateFile writes a starter flow to path. It refuses to overwrite.
func (a *App) CreateFile(path string) error {
	if _, err := flowfile.FormatFor(path); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	defs, err := a.Starter()
	if err != nil {
		return err
	}
	if err := flowfile.Write(path, defs); err != nil {
		return err
	}
	printSystemMessage(a.Out, "Created %s.", path)
	return nil
}

// CreateStored stores a starter flow under flowID.
func (a *App) CreateStored(ctx context.Context, mgr *session.Manager, flowID string) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	defs, err := a.Starter()
	if err != nil {
		return err
	}
	if err := mgr.Create(ctx, flowID, defs); err != nil {
		return err
	}
	printSystemMessage(a.Out, "Created flow %s.", flowID)
	return nil
}

// Import copies a flow file into the store under flowID, replacing any previous version.
func (a *App) Import(ctx context.Context, mgr *session.Manager, path, flowID string) error {
	defs, err := flowfile.Read(path)
	if err != nil {
		return err
	}
	if err := mgr.Save(ctx, flowID, defs); err != nil {
		return err
	}
	printSystemMessage(a.Out, "Imported %d card(s) into %s.", len(defs), flowID)
	return nil
}

// Export writes a stored flow to a flow file.
func (a *App) Export(ctx context.Context, mgr *session.Manager, flowID, path string) error {
	defs, err := mgr.Load(ctx, flowID)
	if err != nil {
		return err
	}
	if err := flowfile.Write(path, defs); err != nil {
		return err
	}
	printSystemMessage(a.Out, "Exported %s to %s.", flowID, path)
	return nil
}

// List prints the ids of the stored flows.
func (a *App) List(ctx context.Context, mgr *session.Manager) error {
	ids, err := mgr.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(a.Out, id)
	}
	return nil
}
