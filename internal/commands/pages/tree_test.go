package pagescmd

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/pkg/testsupport"
)

func seededService(t *testing.T) (pages.Service, *testsupport.Tree) {
	t.Helper()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := pages.NewService(pages.NewMemoryPageRepository(), pages.WithClock(func() time.Time { return fixed }))
	tree, err := testsupport.SeedTree(context.Background(), svc)
	if err != nil {
		t.Fatalf("seed tree: %v", err)
	}
	return svc, tree
}

func TestMovePageHandlerMovesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, tree := seededService(t)
	invalidations := 0
	handler := NewMovePageHandler(svc, func(context.Context) error {
		invalidations++
		return nil
	}, logging.NoOp())

	parent := tree.ID("team")
	if err := handler.Execute(ctx, MovePageCommand{PageID: tree.ID("history"), ParentID: &parent}); err != nil {
		t.Fatalf("execute move: %v", err)
	}
	if invalidations != 1 {
		t.Fatalf("expected one invalidation, got %d", invalidations)
	}

	history, err := tree.Page(ctx, "history")
	if err != nil {
		t.Fatalf("reload history: %v", err)
	}
	ancestors, err := svc.Ancestors(ctx, history)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(ancestors) != 3 || ancestors[2].ID != parent {
		t.Fatalf("expected history below team, got %d ancestors", len(ancestors))
	}
}

func TestMovePageHandlerRejectsCycles(t *testing.T) {
	svc, tree := seededService(t)
	handler := NewMovePageHandler(svc, nil, logging.NoOp())

	parent := tree.ID("people")
	err := handler.Execute(context.Background(), MovePageCommand{PageID: tree.ID("about"), ParentID: &parent})
	if !errors.Is(err, pages.ErrPageParentCycle) {
		t.Fatalf("expected ErrPageParentCycle, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestMovePageCommandValidation(t *testing.T) {
	id := uuid.New()
	cases := []MovePageCommand{
		{},
		{PageID: id, ParentID: &id},
		{PageID: id, Position: -1},
	}
	for _, msg := range cases {
		if err := msg.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", msg)
		}
	}
	if err := (MovePageCommand{PageID: id}).Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}
}

func TestRebuildTreeHandler(t *testing.T) {
	ctx := context.Background()
	svc, _ := seededService(t)
	invalidateErr := errors.New("cache down")
	handler := NewRebuildTreeHandler(svc, func(context.Context) error { return invalidateErr }, logging.NoOp())

	if err := handler.Execute(ctx, RebuildTreeCommand{SiteID: testsupport.SiteID}); !errors.Is(err, invalidateErr) {
		t.Fatalf("expected invalidation error to surface, got %v", err)
	}

	err := NewRebuildTreeHandler(svc, nil, logging.NoOp()).Execute(ctx, RebuildTreeCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}
