package tags

import (
	"context"

	"github.com/goliatone/go-cms-nav/internal/menus"
	"github.com/goliatone/go-cms-nav/internal/requests"
)

// ShowMenu renders the navigation of req.
func (l *Library) ShowMenu(ctx context.Context, req *requests.Request, opts menus.MenuOptions) (Context, error) {
	menu, err := l.menus.Menu(ctx, l.prepare(req), opts)
	if err != nil {
		l.logger.Error("tags.show_menu.failed", "error", err)
		return Context(menu.Context()), err
	}
	return Context(menu.Context()), nil
}

// ShowMenuBelowID renders the navigation below the page carrying rootID.
func (l *Library) ShowMenuBelowID(ctx context.Context, req *requests.Request, rootID string, opts menus.MenuOptions) (Context, error) {
	opts.RootID = rootID
	return l.ShowMenu(ctx, req, opts)
}

// ShowSubMenu renders the children of the current page, levels deep.
func (l *Library) ShowSubMenu(ctx context.Context, req *requests.Request, levels int, template string) (Context, error) {
	menu, err := l.menus.SubMenu(ctx, l.prepare(req), levels, template)
	if err != nil {
		l.logger.Error("tags.show_sub_menu.failed", "error", err)
	}
	return Context(menu.Context()), err
}

// ShowBreadcrumb renders the path from the home page to the current page.
func (l *Library) ShowBreadcrumb(ctx context.Context, req *requests.Request, startLevel int, template string) (Context, error) {
	crumb, err := l.menus.Breadcrumb(ctx, l.prepare(req), startLevel, template)
	if err != nil {
		l.logger.Error("tags.show_breadcrumb.failed", "error", err)
	}
	return Context(crumb.Context()), err
}
