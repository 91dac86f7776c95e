// Package markdown renders Markdown bodies with goldmark and splits page
// documents into frontmatter and body.
package markdown
