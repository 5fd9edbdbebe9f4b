// Package snippet parses markdown snippet bundles into expansion
// definitions.
//
// A bundle is a markdown file with one snippet per H2 header. The
// snippet body is the first fenced code block under the header; the
// fence's info string names the tool that interprets the body. Metadata
// is supplied either as HTML comments (<!-- expand: :sig -->) or as a
// fenced ```metadata block containing JSON, which is validated against
// a schema.
package snippet

import (
	"fmt"
)

// Tools whose bodies are pasted verbatim. Any other tool currently
// degrades to verbatim as well; true execution is not implemented.
const (
	ToolPaste    = "paste"
	ToolType     = "type"
	ToolTemplate = "template"
)

// Snippet is one parsed snippet definition.
type Snippet struct {
	// Name comes from the H2 header.
	Name string

	// Group comes from the enclosing H1 header, if any.
	Group string

	// Trigger is the text-expansion trigger. Empty when the snippet
	// does not declare one; such snippets are ignored by the engine.
	Trigger string

	// Description is optional free text.
	Description string

	// Tool is the code fence info string (paste, type, template, ...).
	Tool string

	// Body is the raw, unexpanded replacement text.
	Body string

	// Metadata holds any extra comment metadata key/value pairs.
	Metadata map[string]string

	// Source locates the snippet for diagnostics and reload
	// bookkeeping.
	Source SourceRef
}

// IsVerbatim reports whether the snippet's tool pastes the body as-is.
func (s *Snippet) IsVerbatim() bool {
	return IsVerbatimTool(s.Tool)
}

// IsVerbatimTool reports whether a tool tag pastes its body verbatim.
func IsVerbatimTool(tool string) bool {
	switch tool {
	case ToolPaste, ToolType, ToolTemplate, "":
		return true
	}
	return false
}

// ContentID returns the identifier the engine registers the snippet
// under: the source file plus the snippet name as an anchor.
func (s *Snippet) ContentID() string {
	return s.Source.String()
}

// SourceRef locates a snippet within its originating file.
type SourceRef struct {
	// File is the path of the markdown bundle. Empty for snippets
	// registered programmatically.
	File string

	// Anchor is the snippet name within the file.
	Anchor string
}

func (r SourceRef) String() string {
	if r.File == "" {
		return "manual:" + r.Anchor
	}
	return r.File + "#" + r.Anchor
}

// ValidationError describes a snippet that could not be parsed.
type ValidationError struct {
	File    string
	Snippet string
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	s := e.File
	if e.Line > 0 {
		s = fmt.Sprintf("%s:%d", s, e.Line)
	}
	if e.Snippet != "" {
		s = fmt.Sprintf("%s [%s]", s, e.Snippet)
	}
	return fmt.Sprintf("%s: %s", s, e.Message)
}
