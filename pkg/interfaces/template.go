package interfaces

import "io"

// TemplateRenderer renders a named template or inline template source. When
// out writers are given the output is also written to them. The snippet
// plugin renders through it.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderString(source string, data any, out ...io.Writer) (string, error)
}
