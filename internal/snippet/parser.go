package snippet

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	h1Re      = regexp.MustCompile(`^#\s+(.+?)\s*$`)
	h2Re      = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	commentRe = regexp.MustCompile(`^<!--\s*([A-Za-z_][A-Za-z0-9_-]*)\s*:\s*(.*?)\s*-->\s*$`)
	fenceRe   = regexp.MustCompile("^```+\\s*([A-Za-z0-9_-]*)\\s*$")
)

// ParseResult holds the snippets parsed from one bundle plus any
// per-snippet validation errors. A bad snippet never aborts the rest of
// the file.
type ParseResult struct {
	Snippets []Snippet
	Errors   []*ValidationError
}

// ParseFile parses a markdown bundle from disk. The returned error is
// non-nil only when the file cannot be read.
func ParseFile(path string) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, err
	}
	defer f.Close()
	return Parse(f, path), nil
}

// Parse parses a markdown bundle. path is used for SourceRefs and
// error reporting only.
func Parse(r io.Reader, path string) ParseResult {
	p := &parser{path: path}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		p.consume(scanner.Text(), line)
	}
	if err := scanner.Err(); err != nil {
		p.result.Errors = append(p.result.Errors, &ValidationError{
			File:    path,
			Message: "read error: " + err.Error(),
		})
	}

	p.flush()
	return p.result
}

// parser is the line-by-line bundle parser state machine.
type parser struct {
	path   string
	result ParseResult

	group   string
	current *Snippet
	curLine int

	inFence    bool
	fenceInfo  string
	fenceLines []string
	fenceStart int
	bodySeen   bool
}

func (p *parser) consume(line string, n int) {
	if p.inFence {
		if isClosingFence(line) {
			p.closeFence()
			return
		}
		p.fenceLines = append(p.fenceLines, line)
		return
	}

	if m := fenceRe.FindStringSubmatch(line); m != nil {
		p.inFence = true
		p.fenceInfo = m[1]
		p.fenceLines = nil
		p.fenceStart = n
		return
	}

	if m := h2Re.FindStringSubmatch(line); m != nil {
		p.flush()
		p.current = &Snippet{
			Name:     m[1],
			Group:    p.group,
			Metadata: make(map[string]string),
			Source:   SourceRef{File: p.path, Anchor: m[1]},
		}
		p.curLine = n
		p.bodySeen = false
		return
	}

	if m := h1Re.FindStringSubmatch(line); m != nil {
		p.group = m[1]
		return
	}

	if m := commentRe.FindStringSubmatch(line); m != nil && p.current != nil {
		p.setMetadata(m[1], m[2])
		return
	}
}

// closeFence attaches a completed fenced block to the current snippet.
func (p *parser) closeFence() {
	info := p.fenceInfo
	content := strings.Join(p.fenceLines, "\n")
	p.inFence = false

	if p.current == nil {
		return
	}

	if info == "metadata" {
		meta, err := parseMetadataBlock(content)
		if err != nil {
			p.result.Errors = append(p.result.Errors, &ValidationError{
				File:    p.path,
				Snippet: p.current.Name,
				Line:    p.fenceStart,
				Message: err.Error(),
			})
			return
		}
		for k, v := range meta {
			p.setMetadata(k, v)
		}
		return
	}

	// The first non-metadata fence is the snippet body.
	if !p.bodySeen {
		p.current.Tool = info
		p.current.Body = content
		p.bodySeen = true
	}
}

// isClosingFence reports whether a line is a bare backtick fence.
func isClosingFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	for _, r := range trimmed {
		if r != '`' {
			return false
		}
	}
	return true
}

func (p *parser) setMetadata(key, value string) {
	switch key {
	case "expand", "keyword":
		p.current.Trigger = value
	case "description":
		p.current.Description = value
	case "tool":
		if !p.bodySeen {
			p.current.Tool = value
		}
	default:
		p.current.Metadata[key] = value
	}
}

// flush finalizes the current snippet, recording a validation error
// for expansion snippets with no body.
func (p *parser) flush() {
	if p.inFence {
		// Unterminated fence at end of snippet or file.
		p.closeFence()
	}
	if p.current == nil {
		return
	}
	if p.current.Trigger != "" && !p.bodySeen {
		p.result.Errors = append(p.result.Errors, &ValidationError{
			File:    p.path,
			Snippet: p.current.Name,
			Line:    p.curLine,
			Message: "expansion snippet has no code block body",
		})
		p.current = nil
		return
	}
	p.result.Snippets = append(p.result.Snippets, *p.current)
	p.current = nil
}
