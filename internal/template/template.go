// Package template substitutes variables in snippet bodies.
//
// Two interchangeable syntaxes are recognized: ${variable} and
// {{variable}}. Built-in variables cover the current date and time in
// several formats; callers can supply custom variables through a
// Context. Unrecognized placeholders are left untouched, so input and
// output are always plain text.
package template

import (
	"strconv"
	"strings"
	"time"
)

// Context carries custom variable values and controls whether built-in
// variables are evaluated.
type Context struct {
	vars     map[string]string
	builtins bool
	now      func() time.Time
}

// NewContext returns a Context with built-in evaluation enabled.
func NewContext() *Context {
	return &Context{
		vars:     make(map[string]string),
		builtins: true,
		now:      time.Now,
	}
}

// CustomOnly returns a Context that evaluates only custom variables.
func CustomOnly() *Context {
	ctx := NewContext()
	ctx.builtins = false
	return ctx
}

// Set adds a custom variable value. Custom values shadow built-ins of
// the same name.
func (c *Context) Set(name, value string) *Context {
	c.vars[name] = value
	return c
}

// WithClock overrides the time source, for tests.
func (c *Context) WithClock(now func() time.Time) *Context {
	c.now = now
	return c
}

// Substitute replaces variables in content using built-in values.
func Substitute(content string) string {
	return SubstituteWithContext(content, NewContext())
}

// SubstituteWithContext replaces variables in content using the given
// context.
func SubstituteWithContext(content string, ctx *Context) string {
	if !strings.ContainsAny(content, "${") {
		return content
	}

	values := make(map[string]string)
	if ctx.builtins {
		builtinValues(ctx.now(), values)
	}
	for name, value := range ctx.vars {
		values[name] = value
	}

	for name, value := range values {
		content = strings.ReplaceAll(content, "${"+name+"}", value)
		content = strings.ReplaceAll(content, "{{"+name+"}}", value)
	}
	return content
}

// HasVariables reports whether content contains any placeholder
// markers. Useful to skip substitution entirely.
func HasVariables(content string) bool {
	return strings.Contains(content, "${") || strings.Contains(content, "{{")
}

// builtinValues fills values with the built-in variables evaluated at
// the given instant.
func builtinValues(now time.Time, values map[string]string) {
	values["date"] = now.Format("2006-01-02")
	values["time"] = now.Format("15:04:05")
	values["datetime"] = now.Format("2006-01-02 15:04:05")
	values["timestamp"] = strconv.FormatInt(now.Unix(), 10)
	values["date_short"] = now.Format("01/02/2006")
	values["date_long"] = now.Format("January 2, 2006")
	values["time_12h"] = now.Format("3:04 PM")
	values["day"] = now.Weekday().String()
	values["month"] = now.Month().String()
	values["year"] = strconv.Itoa(now.Year())
}
