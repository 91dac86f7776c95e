package pagescmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/commands"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

const (
	rebuildTreeMessageType = "cmsnav.pages.tree.rebuild"
	movePageMessageType    = "cmsnav.pages.move"
)

// Invalidator drops cached fragments once the page tree changed.
type Invalidator func(ctx context.Context) error

// RebuildTreeCommand renumbers the nested set of a site.
type RebuildTreeCommand struct {
	SiteID uuid.UUID `json:"site_id"`
}

func (RebuildTreeCommand) Type() string { return rebuildTreeMessageType }

func (m RebuildTreeCommand) Validate() error {
	if m.SiteID == uuid.Nil {
		return validation.Errors{
			"site_id": validation.NewError("cmsnav.pages.tree.site_id_required", "site_id is required"),
		}
	}
	return nil
}

// MovePageCommand places a page under a new parent. A nil parent makes it
// a root.
type MovePageCommand struct {
	PageID   uuid.UUID  `json:"page_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Position int        `json:"position"`
}

func (MovePageCommand) Type() string { return movePageMessageType }

func (m MovePageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("cmsnav.pages.move.page_id_required", "page_id is required")
	}
	if m.ParentID != nil && *m.ParentID == m.PageID {
		errs["parent_id"] = validation.NewError("cmsnav.pages.move.parent_invalid", "a page cannot be its own parent")
	}
	if err := validation.Validate(m.Position, validation.Min(0)); err != nil {
		errs["position"] = err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RebuildTreeHandler struct {
	inner *commands.Handler[RebuildTreeCommand]
}

func NewRebuildTreeHandler(service pages.Service, invalidate Invalidator, logger interfaces.Logger, opts ...commands.HandlerOption[RebuildTreeCommand]) *RebuildTreeHandler {
	baseLogger := commands.LoggerOrNoOp(logger)

	exec := func(ctx context.Context, msg RebuildTreeCommand) error {
		if err := service.RebuildTree(ctx, msg.SiteID); err != nil {
			return err
		}
		return runInvalidate(ctx, invalidate)
	}

	handlerOpts := []commands.HandlerOption[RebuildTreeCommand]{
		commands.WithLogger[RebuildTreeCommand](baseLogger),
		commands.WithOperation[RebuildTreeCommand]("pages.tree.rebuild"),
		commands.WithMessageFields(func(msg RebuildTreeCommand) map[string]any {
			return map[string]any{"site_id": msg.SiteID}
		}),
		commands.WithObserver(commands.LogReports[RebuildTreeCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RebuildTreeHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

func (h *RebuildTreeHandler) Execute(ctx context.Context, msg RebuildTreeCommand) error {
	return h.inner.Execute(ctx, msg)
}

type MovePageHandler struct {
	inner *commands.Handler[MovePageCommand]
}

func NewMovePageHandler(service pages.Service, invalidate Invalidator, logger interfaces.Logger, opts ...commands.HandlerOption[MovePageCommand]) *MovePageHandler {
	baseLogger := commands.LoggerOrNoOp(logger)

	exec := func(ctx context.Context, msg MovePageCommand) error {
		if _, err := service.Move(ctx, pages.MovePageRequest{
			ID:       msg.PageID,
			ParentID: msg.ParentID,
			Position: msg.Position,
		}); err != nil {
			return err
		}
		return runInvalidate(ctx, invalidate)
	}

	handlerOpts := []commands.HandlerOption[MovePageCommand]{
		commands.WithLogger[MovePageCommand](baseLogger),
		commands.WithOperation[MovePageCommand]("pages.move"),
		commands.WithMessageFields(func(msg MovePageCommand) map[string]any {
			fields := map[string]any{"page_id": msg.PageID, "position": msg.Position}
			if msg.ParentID != nil {
				fields["parent_id"] = *msg.ParentID
			}
			return fields
		}),
		commands.WithObserver(commands.LogReports[MovePageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &MovePageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

func (h *RebuildTreeHandler) CLIHandler() any {
	return h
}

func (h *RebuildTreeHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"pages", "tree", "rebuild"},
		Group:       "pages",
		Description: "Renumber the page tree of a site",
	}
}

func (h *MovePageHandler) Execute(ctx context.Context, msg MovePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (h *MovePageHandler) CLIHandler() any {
	return h
}

func (h *MovePageHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"pages", "move"},
		Group:       "pages",
		Description: "Move a page under a new parent",
	}
}

func runInvalidate(ctx context.Context, invalidate Invalidator) error {
	if invalidate == nil {
		return nil
	}
	return invalidate(ctx)
}
