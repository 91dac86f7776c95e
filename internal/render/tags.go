package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-cms-nav/internal/menus"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/internal/tags"
)

const (
	inclusionTemplate = "cms/dummy.html"
	contentTemplate   = "cms/content.html"
	filterTemplate    = "admin/filter.html"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerTags installs the navigation tags into pongo2. pongo2 keeps tags
// per process; the engine instance is looked up from the template set.
func registerTags() error {
	registerOnce.Do(func() {
		parsers := []struct {
			name   string
			parser pongo2.TagParser
		}{
			{"show_menu", expressionTag("show_menu", 0, 7, showMenu)},
			{"show_menu_below_id", expressionTag("show_menu_below_id", 1, 7, showMenuBelowID)},
			{"show_sub_menu", expressionTag("show_sub_menu", 0, 2, showSubMenu)},
			{"show_breadcrumb", expressionTag("show_breadcrumb", 0, 2, showBreadcrumb)},
			{"page_id_url", expressionTag("page_id_url", 1, 2, pageIDURL)},
			{"page_language_url", expressionTag("page_language_url", 1, 1, pageLanguageURL)},
			{"language_chooser", expressionTag("language_chooser", 0, 1, languageChooser)},
			{"show_placeholder_by_id", expressionTag("show_placeholder_by_id", 2, 3, showPlaceholderByID)},
			{"clean_admin_list_filter", expressionTag("clean_admin_list_filter", 2, 2, cleanAdminListFilter)},
			{"placeholder", placeholderTag},
			{"page_attribute", pageAttributeTag},
		}
		for _, entry := range parsers {
			if err := pongo2.RegisterTag(entry.name, entry.parser); err != nil {
				registerErr = errors.Join(registerErr, err)
			}
		}
		if !pongo2.FilterExists("has_permission") {
			if err := pongo2.RegisterFilter("has_permission", hasPermissionFilter); err != nil {
				registerErr = errors.Join(registerErr, err)
			}
		}
	})
	return registerErr
}

// call is one execution of a navigation tag.
type call struct {
	ctx    context.Context
	req    *requests.Request
	engine *Engine
	exec   *pongo2.ExecutionContext
	args   []*pongo2.Value
	writer pongo2.TemplateWriter
}

func (c *call) library() *tags.Library {
	return c.engine.library
}

func (c *call) arg(i int) *pongo2.Value {
	if i < len(c.args) {
		return c.args[i]
	}
	return nil
}

func (c *call) intArg(i, fallback int) int {
	v := c.arg(i)
	if v == nil || v.IsNil() {
		return fallback
	}
	return v.Integer()
}

func (c *call) stringArg(i int, fallback string) string {
	v := c.arg(i)
	if v == nil || v.IsNil() {
		return fallback
	}
	if s := strings.TrimSpace(v.String()); s != "" {
		return s
	}
	return fallback
}

func (c *call) nodeArg(i int) *menus.Node {
	v := c.arg(i)
	if v == nil || v.IsNil() {
		return nil
	}
	node, _ := v.Interface().(*menus.Node)
	return node
}

// values flattens the template context for plugins rendering below a tag.
func (c *call) values() map[string]any {
	out := make(map[string]any, len(c.exec.Public)+len(c.exec.Private))
	for key, value := range c.exec.Public {
		out[key] = value
	}
	for key, value := range c.exec.Private {
		out[key] = value
	}
	delete(out, engineKey)
	return out
}

// include renders an inclusion template with the tag result and the
// request, so nested tags keep working.
func (c *call) include(name string, result tags.Context) error {
	values := pongo2.Context{
		requestKey: c.req,
		contextKey: c.ctx,
	}
	for key, value := range result {
		values[key] = value
	}
	tpl, err := c.engine.set.FromCache(name)
	if err != nil {
		return err
	}
	return tpl.ExecuteWriter(values, c.writer)
}

type tagFunc func(c *call) error

type tagNode struct {
	name  string
	token *pongo2.Token
	args  []pongo2.IEvaluator
	run   tagFunc
}

func (n *tagNode) Execute(exec *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	engine, ok := exec.Public[engineKey].(*Engine)
	if !ok {
		return exec.Error(fmt.Sprintf("%s: template set has no navigation engine", n.name), n.token)
	}
	req := requestFrom(exec)
	if req == nil {
		return nil
	}
	args := make([]*pongo2.Value, 0, len(n.args))
	for _, expr := range n.args {
		value, err := expr.Evaluate(exec)
		if err != nil {
			return err
		}
		args = append(args, value)
	}
	c := &call{
		ctx:    contextFrom(exec),
		req:    req,
		engine: engine,
		exec:   exec,
		args:   args,
		writer: writer,
	}
	if err := n.run(c); err != nil {
		var perr *pongo2.Error
		if errors.As(err, &perr) {
			return perr
		}
		return exec.OrigError(err, n.token)
	}
	return nil
}

// expressionTag parses between min and max positional expressions.
func expressionTag(name string, min, max int, run tagFunc) pongo2.TagParser {
	return func(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
		node := &tagNode{name: name, token: start, run: run}
		for arguments.Remaining() > 0 {
			expr, err := arguments.ParseExpression()
			if err != nil {
				return nil, err
			}
			node.args = append(node.args, expr)
		}
		if len(node.args) < min || len(node.args) > max {
			return nil, arguments.Error(fmt.Sprintf("'%s' takes between %d and %d arguments", name, min, max), start)
		}
		return node, nil
	}
}

func placeholderTag(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	parsed, err := tags.ParsePlaceholderArgs(rawBits(start, arguments))
	if err != nil {
		return nil, arguments.Error(err.Error(), start)
	}
	return &tagNode{name: start.Val, token: start, run: func(c *call) error {
		html, err := c.library().Placeholder(c.ctx, c.req, parsed.Name, c.values())
		if err != nil {
			return err
		}
		_, err = c.writer.WriteString(html)
		return err
	}}, nil
}

func pageAttributeTag(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	name, err := tags.ParsePageAttributeArgs(rawBits(start, arguments))
	if err != nil {
		return nil, arguments.Error(err.Error(), start)
	}
	return &tagNode{name: start.Val, token: start, run: func(c *call) error {
		value := c.library().PageAttribute(c.ctx, c.req, name)
		if c.exec.Autoescape {
			escaped, perr := pongo2.ApplyFilter("escape", pongo2.AsValue(value), nil)
			if perr != nil {
				return perr
			}
			value = escaped.String()
		}
		_, err := c.writer.WriteString(value)
		return err
	}}, nil
}

// rawBits returns the tag name and its argument tokens as written.
func rawBits(start *pongo2.Token, arguments *pongo2.Parser) []string {
	bits := []string{start.Val}
	for i := 0; i < arguments.Count(); i++ {
		bits = append(bits, arguments.Get(i).Val)
	}
	return bits
}

func showMenu(c *call) error {
	opts := menuOptions(c, 0)
	opts.NextPage = c.nodeArg(5)
	opts.RootID = c.stringArg(6, "")
	result, err := c.library().ShowMenu(c.ctx, c.req, opts)
	if err != nil {
		return err
	}
	return c.include(inclusionTemplate, result)
}

func showMenuBelowID(c *call) error {
	opts := menuOptions(c, 1)
	opts.NextPage = c.nodeArg(6)
	result, err := c.library().ShowMenuBelowID(c.ctx, c.req, c.stringArg(0, ""), opts)
	if err != nil {
		return err
	}
	return c.include(inclusionTemplate, result)
}

// menuOptions reads from_level, to_level, extra_inactive, extra_active
// and template starting at argument offset.
func menuOptions(c *call, offset int) menus.MenuOptions {
	defaults := menus.DefaultMenuOptions()
	return menus.MenuOptions{
		FromLevel:     c.intArg(offset, defaults.FromLevel),
		ToLevel:       c.intArg(offset+1, defaults.ToLevel),
		ExtraInactive: c.intArg(offset+2, defaults.ExtraInactive),
		ExtraActive:   c.intArg(offset+3, defaults.ExtraActive),
		Template:      c.stringArg(offset+4, defaults.Template),
	}
}

func showSubMenu(c *call) error {
	result, err := c.library().ShowSubMenu(c.ctx, c.req, c.intArg(0, menus.DefaultToLevel), c.stringArg(1, ""))
	if err != nil {
		return err
	}
	return c.include(inclusionTemplate, result)
}

func showBreadcrumb(c *call) error {
	result, err := c.library().ShowBreadcrumb(c.ctx, c.req, c.intArg(0, 0), c.stringArg(1, ""))
	if err != nil {
		return err
	}
	return c.include(inclusionTemplate, result)
}

func pageIDURL(c *call) error {
	result, err := c.library().PageIDURL(c.ctx, c.req, c.stringArg(0, ""), c.stringArg(1, ""))
	if err != nil {
		return err
	}
	return c.include(contentTemplate, result)
}

func pageLanguageURL(c *call) error {
	result, err := c.library().PageLanguageURL(c.ctx, c.req, c.stringArg(0, ""))
	if err != nil {
		return err
	}
	return c.include(contentTemplate, result)
}

func languageChooser(c *call) error {
	result, err := c.library().LanguageChooser(c.ctx, c.req, c.stringArg(0, ""))
	if err != nil {
		return err
	}
	return c.include(inclusionTemplate, result)
}

func showPlaceholderByID(c *call) error {
	result, err := c.library().ShowPlaceholderByID(c.ctx, c.req, c.stringArg(0, ""), c.stringArg(1, ""), c.stringArg(2, ""), c.values())
	if err != nil {
		return err
	}
	return c.include(contentTemplate, result)
}

func cleanAdminListFilter(c *call) error {
	var choices []tags.FilterChoice
	if v := c.arg(1); v != nil && !v.IsNil() {
		choices, _ = v.Interface().([]tags.FilterChoice)
	}
	return c.include(filterTemplate, tags.CleanAdminListFilter(c.stringArg(0, ""), choices))
}

// hasPermissionFilter implements {{ page|has_permission:request }}.
func hasPermissionFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	page, _ := in.Interface().(*pages.Page)
	req, _ := param.Interface().(*requests.Request)
	return pongo2.AsValue(tags.CanChangePage(context.Background(), page, req)), nil
}

func requestFrom(exec *pongo2.ExecutionContext) *requests.Request {
	if req, ok := exec.Private[requestKey].(*requests.Request); ok {
		return req
	}
	req, _ := exec.Public[requestKey].(*requests.Request)
	return req
}

func contextFrom(exec *pongo2.ExecutionContext) context.Context {
	if ctx, ok := exec.Public[contextKey].(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}
