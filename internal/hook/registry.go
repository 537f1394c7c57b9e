package hook

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/wagiedev/agentbridge/internal/errors"
)

// Invocation is one hook request from the assistant process.
type Invocation struct {
	// CallbackID selects a single callback. When empty the callbacks are
	// resolved from the event name and matcher.
	CallbackID string
	Input      map[string]any
	ToolUseID  *string
}

// Registry maps hook events to their matchers and callbacks.
// It is built once and never modified, so it is safe for concurrent use.
type Registry struct {
	callbacks map[string]Callback
	events    map[Event][]entry
}

type entry struct {
	pattern *string
	names   []string // nil matches every subject
	timeout *float64
	ids     []string
}

// NewRegistry validates the hook configuration and assigns callback ids.
// Ids are assigned in event-name order so the wire configuration is stable.
func NewRegistry(hooks map[Event][]*Matcher) (*Registry, error) {
	r := &Registry{
		callbacks: make(map[string]Callback),
		events:    make(map[Event][]entry, len(hooks)),
	}

	next := 0

	for _, event := range slices.Sorted(maps.Keys(hooks)) {
		for i, m := range hooks[event] {
			if m == nil {
				return nil, fmt.Errorf("%s matcher %d is nil", event, i)
			}

			names, err := splitPattern(m.Matcher)
			if err != nil {
				return nil, fmt.Errorf("%s matcher %d: %w", event, i, err)
			}

			if len(m.Hooks) == 0 {
				return nil, fmt.Errorf("%s matcher %d has no callbacks", event, i)
			}

			e := entry{pattern: m.Matcher, names: names, timeout: m.Timeout}

			for j, cb := range m.Hooks {
				if cb == nil {
					return nil, fmt.Errorf("%s matcher %d callback %d is nil", event, i, j)
				}

				id := fmt.Sprintf("hook_%d", next)
				next++

				r.callbacks[id] = cb
				e.ids = append(e.ids, id)
			}

			r.events[event] = append(r.events[event], e)
		}
	}

	return r, nil
}

// splitPattern parses a pipe-separated list of subject names.
func splitPattern(pattern *string) ([]string, error) {
	if pattern == nil || *pattern == "" || *pattern == "*" {
		return nil, nil
	}

	var names []string

	for name := range strings.SplitSeq(*pattern, "|") {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("matcher %q has an empty alternative", *pattern)
		}

		names = append(names, name)
	}

	return names, nil
}

func (e *entry) matches(subject string) bool {
	return e.names == nil || slices.Contains(e.names, subject)
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.callbacks)
}

// Wire returns the hook configuration sent in the initialize handshake:
// event name -> [{matcher, hookCallbackIds, timeout}].
func (r *Registry) Wire() map[string]any {
	config := make(map[string]any)

	if r == nil {
		return config
	}

	for event, entries := range r.events {
		matchers := make([]map[string]any, 0, len(entries))

		for _, e := range entries {
			m := map[string]any{
				"matcher":         e.pattern,
				"hookCallbackIds": slices.Clone(e.ids),
			}

			if e.timeout != nil {
				m["timeout"] = *e.timeout
			}

			matchers = append(matchers, m)
		}

		config[string(event)] = matchers
	}

	return config
}

// Resolve returns the callbacks registered for event whose matcher accepts
// subject, in registration order.
func (r *Registry) Resolve(event Event, subject string) []string {
	if r == nil {
		return nil
	}

	var ids []string

	for _, e := range r.events[event] {
		if e.matches(subject) {
			ids = append(ids, e.ids...)
		}
	}

	return ids
}

// Dispatch runs the callbacks selected by inv and returns the encoded output.
//
// Callbacks run in order. The first output that blocks ends the chain and is
// returned; otherwise the last output is returned. When nothing matches the
// error wraps errors.ErrNoHandler.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) (map[string]any, error) {
	input, err := ParseInput(inv.Input)
	if err != nil {
		return nil, err
	}

	var ids []string

	if inv.CallbackID != "" {
		if _, ok := r.lookup(inv.CallbackID); ok {
			ids = []string{inv.CallbackID}
		}
	} else {
		ids = r.Resolve(input.EventName(), subject(inv.Input))
	}

	if len(ids) == 0 {
		if inv.CallbackID != "" {
			return nil, fmt.Errorf("%w for hook callback %q", errors.ErrNoHandler, inv.CallbackID)
		}

		return nil, fmt.Errorf("%w for hook event %s", errors.ErrNoHandler, input.EventName())
	}

	var last JSONOutput

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cb, _ := r.lookup(id)

		output, err := cb(ctx, input, inv.ToolUseID, &Context{CallbackID: id, Event: input.EventName()})
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", id, err)
		}

		last = output

		if sync, ok := output.(*SyncJSONOutput); ok && sync.Blocks() {
			break
		}
	}

	return Encode(last)
}

func (r *Registry) lookup(id string) (Callback, bool) {
	if r == nil {
		return nil, false
	}

	cb, ok := r.callbacks[id]

	return cb, ok
}
