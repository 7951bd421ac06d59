package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/newsletter-funnels/internal/core"
)

// Drop target aliases accepted by the drag and drop verbs
const (
	targetTimeline = "timeline"
	targetOutside  = "-"
)

// ErrUnknownVerb is returned for a script line whose verb is not recognised
var ErrUnknownVerb = errors.New("unknown verb")

// Script drives a FunnelComposer from line based commands, one command per line.
// Blank lines and lines starting with '#' are skipped.
type Script struct {
	Composer *core.FunnelComposer
	Funnels  core.FunnelRepository
	Printer  *Printer
	Logger   *zap.Logger

	// Funnel is the record being edited; nil until the first submit of a new funnel
	Funnel *core.Funnel

	Now   func() time.Time
	NewID func() string
}

// Run executes every line of r, stopping at the first failing line
func (s *Script) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Exec(ctx, scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// Exec executes a single command line
func (s *Script) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	verb := strings.Fields(line)[0]
	rest := strings.TrimSpace(line[len(verb):])
	args := strings.Fields(rest)

	switch verb {
	case "filter":
		return s.filter(args, rest)
	case "append":
		if err := wantArgs(verb, args, 1); err != nil {
			return err
		}
		s.Composer.Append(args[0])
	case "insert":
		if err := wantArgs(verb, args, 2); err != nil {
			return err
		}
		s.Composer.InsertBefore(args[0], args[1])
	case "remove":
		if err := wantArgs(verb, args, 1); err != nil {
			return err
		}
		s.Composer.Remove(args[0])
	case "move":
		if err := wantArgs(verb, args, 2); err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("move: invalid position %q", args[1])
		}
		s.Composer.Move(args[0], index)
	case "drag":
		return s.drag(args)
	case "over":
		if err := wantArgs(verb, args, 1); err != nil {
			return err
		}
		if target, ok := s.Composer.DragOver(dropTarget(args[0])); ok {
			s.Printer.Note("hovering %s", target)
		}
	case "drop":
		if err := wantArgs(verb, args, 1); err != nil {
			return err
		}
		s.drop(args[0])
	case "cancel":
		s.Composer.CancelDrag()
	case "clear":
		s.Composer.Clear()
	case "name":
		_, description, color := s.Composer.Details()
		s.Composer.SetDetails(rest, description, color)
	case "description":
		name, _, color := s.Composer.Details()
		s.Composer.SetDetails(name, rest, color)
	case "color":
		name, description, _ := s.Composer.Details()
		s.Composer.SetDetails(name, description, rest)
	case "pool":
		s.Printer.Pool(s.Composer.State().AvailableItems)
	case "show":
		s.Printer.Details(s.Composer.Details())
		s.Printer.Timeline(s.Composer.State())
	case "submit":
		return s.submit(ctx)
	default:
		return fmt.Errorf("%w %q", ErrUnknownVerb, verb)
	}
	return nil
}

func (s *Script) filter(args []string, rest string) error {
	if len(args) == 0 {
		return errors.New("filter: expected text, sender, category or reset")
	}

	criteria := s.Composer.State().Criteria
	value := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	switch args[0] {
	case "text":
		criteria.Text = value
	case "sender":
		criteria.SenderEmail = value
	case "category":
		criteria.Category = value
	case "reset":
		criteria = core.FilterCriteria{SenderEmail: core.FilterAll, Category: core.FilterAll}
	default:
		return fmt.Errorf("filter: unknown field %q", args[0])
	}
	s.Composer.SetFilterCriteria(criteria)
	return nil
}

// drag starts a gesture on an item; with a target it also drops it there.
// A second drag while one is in flight is ignored like any other stray gesture.
func (s *Script) drag(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("drag: expected <id> [target]")
	}
	if !s.Composer.StartDrag(args[0]) {
		if active := s.Composer.State().ActiveID; active != "" {
			s.Printer.Note("drag of %s ignored: %s already in flight", args[0], active)
		} else {
			s.Printer.Note("drag of %s ignored", args[0])
		}
		return nil
	}
	if len(args) == 2 {
		s.drop(args[1])
	}
	return nil
}

func (s *Script) drop(target string) {
	active := s.Composer.State().ActiveID
	action := s.Composer.Drop(dropTarget(target))
	if action == core.DropNone {
		s.Printer.Note("dropped %s: no change", active)
		return
	}
	s.Printer.Note("dropped %s: %s", active, action)
}

func (s *Script) submit(ctx context.Context) error {
	draft, err := s.Composer.Submit()
	if err != nil {
		return err
	}

	now := s.now()
	funnel := &core.Funnel{FunnelDraft: *draft, UpdatedAt: now}
	if s.Funnel != nil {
		funnel.ID = s.Funnel.ID
		funnel.CreatedAt = s.Funnel.CreatedAt
	} else {
		funnel.ID = s.newID()
		funnel.CreatedAt = now
	}

	if err := s.Funnels.SaveFunnel(ctx, funnel); err != nil {
		return fmt.Errorf("failed to save funnel: %w", err)
	}
	s.Funnel = funnel

	if s.Logger != nil {
		s.Logger.Info("Funnel saved", zap.String("id", funnel.ID), zap.String("name", funnel.Name))
	}
	_, _ = fmt.Fprintf(s.Printer.Out, "Saved funnel %s (%s)\n", bold.Sprint(funnel.Name), funnel.ID)
	return nil
}

func (s *Script) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Script) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func dropTarget(arg string) string {
	switch arg {
	case targetTimeline:
		return core.TimelineDropZone
	case targetOutside:
		return ""
	default:
		return arg
	}
}

func wantArgs(verb string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", verb, n, len(args))
	}
	return nil
}
