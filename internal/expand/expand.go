// Package expand coordinates the text-expansion pipeline: it owns the
// trigger registry and its content store, feeds keystrokes from the
// keyboard hook to the matcher, and dispatches expansion workers when
// triggers fire.
//
// Control flow: hook callback -> Engine.handleKeyEvent -> matcher
// (synchronous check) -> on match, a detached worker performs the
// delete+paste side effect. The callback itself never sleeps and never
// touches the injector.
package expand

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"expandd/internal/history"
	"expandd/internal/hook"
	"expandd/internal/injector"
	"expandd/internal/matcher"
	"expandd/internal/snippet"
	"expandd/internal/template"
)

// Config tunes the engine.
type Config struct {
	// MaxBufferSize is the matcher's rolling buffer capacity in
	// characters.
	MaxBufferSize int

	// SettleDelay is the pause after a match before synthetic edits
	// begin, letting the triggering keystroke land in the target
	// application.
	SettleDelay time.Duration

	// PasteDelay is the pause between deleting the trigger and
	// pasting the replacement.
	PasteDelay time.Duration
}

// DefaultConfig returns the default engine tuning.
func DefaultConfig() Config {
	return Config{
		MaxBufferSize: matcher.DefaultMaxBufferSize,
		SettleDelay:   50 * time.Millisecond,
		PasteDelay:    50 * time.Millisecond,
	}
}

// Content is the resolved payload for a registered trigger.
type Content struct {
	// Trigger is a redundant copy of the trigger text, for logging.
	Trigger string

	// Name is the snippet's display name.
	Name string

	// Body is the raw, unexpanded replacement text.
	Body string

	// Tool tags how Body is interpreted. Non-verbatim tools currently
	// degrade to verbatim.
	Tool string

	// Source locates the originating definition, for diagnostics and
	// incremental reload.
	Source snippet.SourceRef
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithHistory attaches an expansion log. Recording failures are logged
// and never interrupt matching.
func WithHistory(store *history.Store) Option {
	return func(e *Engine) { e.history = store }
}

// WithSubstituter replaces the template substitution function.
func WithSubstituter(fn func(string) string) Option {
	return func(e *Engine) { e.substitute = fn }
}

// Engine is the expansion coordinator.
type Engine struct {
	cfg        Config
	hook       hook.Hook
	injector   injector.Injector
	history    *history.Store
	substitute func(string) string

	matcher *matcher.Matcher

	// contentMu guards contents; held only for single map operations,
	// never across a sleep or an injection call.
	contentMu sync.Mutex
	contents  map[string]Content

	// sourceMu guards sources: file path -> set of triggers the file
	// currently contributes.
	sourceMu sync.Mutex
	sources  map[string]map[string]bool

	// lifecycleMu guards enabled and hook start/stop.
	lifecycleMu sync.Mutex
	enabled     bool
}

// New creates an Engine over the given hook and injector.
func New(cfg Config, kb hook.Hook, inj injector.Injector, opts ...Option) *Engine {
	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = matcher.DefaultMaxBufferSize
	}

	e := &Engine{
		cfg:        cfg,
		hook:       kb,
		injector:   inj,
		substitute: template.Substitute,
		matcher:    matcher.WithBufferSize(cfg.MaxBufferSize),
		contents:   make(map[string]Content),
		sources:    make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadFromSources registers every snippet from src that declares an
// expansion trigger. Snippets without a trigger are skipped silently;
// source-level read failures were already skipped and logged inside
// Load. Returns the number of triggers registered.
func (e *Engine) LoadFromSources(src snippet.Source) (int, error) {
	snippets, err := src.Load()
	if err != nil {
		return 0, fmt.Errorf("load snippet sources: %w", err)
	}

	count := 0
	for _, s := range snippets {
		if s.Trigger == "" {
			continue
		}
		e.registerSnippet(s)
		count++
	}

	slog.Info("loaded expansion triggers", "count", count)
	return count, nil
}

// RegisterManual registers a trigger that has no source file.
func (e *Engine) RegisterManual(trigger, name, body, tool string) {
	if trigger == "" {
		slog.Debug("ignoring empty manual trigger")
		return
	}
	e.registerSnippet(snippet.Snippet{
		Name:    name,
		Trigger: trigger,
		Body:    body,
		Tool:    tool,
		Source:  snippet.SourceRef{Anchor: name},
	})
}

// registerSnippet installs a snippet in the content store, the
// matcher, and (for file-backed snippets) the source index, keeping
// all three in lock-step.
func (e *Engine) registerSnippet(s snippet.Snippet) {
	content := Content{
		Trigger: s.Trigger,
		Name:    s.Name,
		Body:    s.Body,
		Tool:    s.Tool,
		Source:  s.Source,
	}

	e.contentMu.Lock()
	e.contents[s.Trigger] = content
	e.contentMu.Unlock()

	e.matcher.Register(s.Trigger, s.ContentID())

	if s.Source.File != "" {
		e.sourceMu.Lock()
		set := e.sources[s.Source.File]
		if set == nil {
			set = make(map[string]bool)
			e.sources[s.Source.File] = set
		}
		set[s.Trigger] = true
		e.sourceMu.Unlock()
	}

	slog.Info("registered expansion trigger",
		"trigger", s.Trigger, "name", s.Name, "tool", s.Tool)
}

// Unregister removes a trigger from the matcher and the content store.
// It reports whether the trigger was registered.
func (e *Engine) Unregister(trigger string) bool {
	e.contentMu.Lock()
	_, ok := e.contents[trigger]
	delete(e.contents, trigger)
	e.contentMu.Unlock()

	e.matcher.Unregister(trigger)
	return ok
}

// ApplySourceDiff applies an incremental reload for one source file:
// removed triggers are unregistered, added snippets are registered,
// and the file's tracked trigger set is updated. The file-watch
// collaborator calls this whenever a bundle changes, so edits never
// require a full reload.
func (e *Engine) ApplySourceDiff(file string, added []snippet.Snippet, removed []string) {
	for _, trigger := range removed {
		e.Unregister(trigger)

		e.sourceMu.Lock()
		if set := e.sources[file]; set != nil {
			delete(set, trigger)
			if len(set) == 0 {
				delete(e.sources, file)
			}
		}
		e.sourceMu.Unlock()
	}

	for _, s := range added {
		if s.Trigger == "" {
			continue
		}
		e.registerSnippet(s)
	}

	slog.Info("applied source diff",
		"file", file, "added", len(added), "removed", len(removed))
}

// SourceTriggers returns the triggers currently contributed by a
// source file, sorted.
func (e *Engine) SourceTriggers(file string) []string {
	e.sourceMu.Lock()
	defer e.sourceMu.Unlock()

	set := e.sources[file]
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ClearAll removes every registered trigger, its content, and all
// source bookkeeping.
func (e *Engine) ClearAll() {
	e.contentMu.Lock()
	e.contents = make(map[string]Content)
	e.contentMu.Unlock()

	e.sourceMu.Lock()
	e.sources = make(map[string]map[string]bool)
	e.sourceMu.Unlock()

	e.matcher.ClearTriggers()
}

// HasTrigger reports whether a trigger is registered.
func (e *Engine) HasTrigger(trigger string) bool {
	return e.matcher.Has(trigger)
}

// TriggerCount returns the number of registered triggers.
func (e *Engine) TriggerCount() int {
	return e.matcher.Count()
}

// List returns all registered contents, sorted by trigger.
func (e *Engine) List() []Content {
	e.contentMu.Lock()
	out := make([]Content, 0, len(e.contents))
	for _, c := range e.contents {
		out = append(out, c)
	}
	e.contentMu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Trigger < out[j].Trigger })
	return out
}

// Buffer returns the matcher's current buffer, for diagnostics and
// tests.
func (e *Engine) Buffer() string {
	return e.matcher.Buffer()
}

// Enable installs the keyboard hook and starts matching. It is
// idempotent: enabling an enabled engine succeeds immediately. Hook
// startup failures (missing permission, install failure) are returned
// to the caller and never retried automatically.
func (e *Engine) Enable() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.enabled {
		slog.Debug("expansion engine already enabled")
		return nil
	}

	if e.matcher.Count() == 0 {
		slog.Warn("no expansion triggers registered, matching will be ineffective")
	}

	if err := e.hook.Start(e.handleKeyEvent); err != nil {
		return fmt.Errorf("start keyboard hook: %w", err)
	}

	e.enabled = true
	slog.Info("expansion engine enabled", "triggers", e.matcher.Count())
	return nil
}

// Disable tears down the keyboard hook and clears the matcher buffer.
func (e *Engine) Disable() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if !e.enabled {
		return
	}

	e.hook.Stop()
	e.matcher.ClearBuffer()
	e.enabled = false
	slog.Info("expansion engine disabled")
}

// Enabled reports whether the engine is matching.
func (e *Engine) Enabled() bool {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	return e.enabled
}

// handleKeyEvent is the hot path, invoked serially by the hook for
// every keyboard event. It must return quickly: it performs one
// matcher check per character and hands any match to a detached
// worker.
func (e *Engine) handleKeyEvent(ev hook.KeyEvent) {
	// Events with an action modifier held are keyboard shortcuts, not
	// typed text. They neither feed the matcher nor clear the buffer.
	if ev.HasActionModifier() {
		return
	}

	for _, r := range ev.Character {
		match, ok := e.matcher.ProcessKeystroke(r)
		if !ok {
			continue
		}

		e.contentMu.Lock()
		content, found := e.contents[match.Trigger]
		e.contentMu.Unlock()

		if !found {
			// Consistency gap: the trigger was unregistered between
			// the matcher check and the content lookup, e.g. by an
			// in-flight source diff.
			slog.Warn("matched trigger has no content", "trigger", match.Trigger)
			// Off the hot path: history recording does disk I/O.
			go e.record(history.Entry{
				Trigger:   match.Trigger,
				ContentID: match.ContentID,
				Outcome:   history.OutcomeMissingContent,
			})
			continue
		}

		slog.Debug("trigger matched, dispatching expansion",
			"trigger", match.Trigger, "chars_to_delete", match.CharsToDelete)
		go e.expandWorker(content, match.CharsToDelete)
	}
}

// expandWorker performs one expansion off the hot path: settle, then
// delete the typed trigger, then paste the substituted replacement.
//
// Delete must succeed before paste is attempted; a failed delete
// aborts the expansion so text is never duplicated. A failed paste is
// terminal for this attempt only and is not rolled back. Workers are
// detached and unordered: if two triggers fire in rapid succession
// their delete/paste sequences may interleave in the target
// application.
func (e *Engine) expandWorker(c Content, deleteCount int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("expansion worker panicked", "trigger", c.Trigger, "panic", r)
		}
	}()

	time.Sleep(e.cfg.SettleDelay)

	body := c.Body
	if !snippet.IsVerbatimTool(c.Tool) {
		slog.Info("tool not yet supported for expansion, using raw body",
			"tool", c.Tool, "name", c.Name)
	}

	replacement := e.substitute(body)

	if err := e.injector.DeleteChars(deleteCount); err != nil {
		slog.Error("failed to delete trigger characters",
			"trigger", c.Trigger, "chars", deleteCount, "error", err)
		e.record(history.Entry{
			Trigger:     c.Trigger,
			SnippetName: c.Name,
			ContentID:   c.Source.String(),
			Outcome:     history.OutcomeDeleteFailed,
		})
		return
	}

	time.Sleep(e.cfg.PasteDelay)

	if err := e.injector.PasteText(replacement); err != nil {
		slog.Error("failed to paste replacement text",
			"trigger", c.Trigger, "error", err)
		e.record(history.Entry{
			Trigger:     c.Trigger,
			SnippetName: c.Name,
			ContentID:   c.Source.String(),
			Outcome:     history.OutcomePasteFailed,
		})
		return
	}

	slog.Info("expansion completed",
		"trigger", c.Trigger, "name", c.Name, "replacement_len", len(replacement))
	e.record(history.Entry{
		Trigger:        c.Trigger,
		SnippetName:    c.Name,
		ContentID:      c.Source.String(),
		ReplacementLen: len(replacement),
		Outcome:        history.OutcomeOK,
	})
}

// record appends to the expansion log, if one is attached.
func (e *Engine) record(entry history.Entry) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(entry); err != nil {
		slog.Warn("failed to record expansion history", "error", err)
	}
}
