package agentbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockProcess plays the assistant process behind a Transport. User turns are
// answered in order by a worker goroutine running turn; control requests
// from the session are answered inline.
type mockProcess struct {
	t *testing.T

	ctx    context.Context
	cancel context.CancelFunc

	launch  *Launch
	records chan map[string]any
	errs    chan error
	prompts chan string

	mu         sync.Mutex
	eof        bool
	inputEnded bool
	closes     int
	sent       []map[string]any

	pendingMu sync.Mutex
	pending   map[string]chan map[string]any
	nextID    atomic.Int64

	initResult    map[string]any
	controlErrors map[string]string

	// turn answers one user prompt. The default echoes it back.
	turn func(m *mockProcess, prompt string)
}

var _ Transport = (*mockProcess)(nil)

func newMockProcess(t *testing.T) *mockProcess {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	return &mockProcess{
		t:             t,
		ctx:           ctx,
		cancel:        cancel,
		records:       make(chan map[string]any, 128),
		errs:          make(chan error, 1),
		prompts:       make(chan string, 16),
		pending:       make(map[string]chan map[string]any),
		initResult:    map[string]any{"commands": []any{"/help", "/clear"}},
		controlErrors: map[string]string{},
		turn:          echoTurn,
	}
}

func echoTurn(m *mockProcess, prompt string) {
	m.emit(assistantRecord("echo: "+prompt), resultRecord("echo: "+prompt))
}

// factory returns a transport factory that remembers the launch parameters.
func (m *mockProcess) factory() func(*Launch) (Transport, error) {
	return func(launch *Launch) (Transport, error) {
		m.mu.Lock()
		m.launch = launch
		m.mu.Unlock()

		return m, nil
	}
}

func (m *mockProcess) launched() *Launch {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.launch
}

func (m *mockProcess) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	launch := m.launched()

	go func() {
		if launch != nil && launch.Prompt != "" {
			m.turn(m, launch.Prompt)
		}

		for prompt := range m.prompts {
			m.turn(m, prompt)
		}

		m.finish()
	}()

	return nil
}

func (m *mockProcess) Records(context.Context) (<-chan map[string]any, <-chan error) {
	return m.records, m.errs
}

func (m *mockProcess) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	m.mu.Lock()
	m.sent = append(m.sent, record)

	if m.inputEnded {
		m.mu.Unlock()

		return ErrInputClosed
	}

	if record["type"] == "user" {
		body, _ := record["message"].(map[string]any)
		text, _ := body["content"].(string)
		m.prompts <- text
	}

	m.mu.Unlock()

	switch record["type"] {
	case "control_request":
		m.answer(record)

	case "control_response":
		body, _ := record["response"].(map[string]any)
		id, _ := body["request_id"].(string)

		m.pendingMu.Lock()
		ch, ok := m.pending[id]
		delete(m.pending, id)
		m.pendingMu.Unlock()

		if ok {
			ch <- body
		}
	}

	return nil
}

func (m *mockProcess) answer(record map[string]any) {
	id, _ := record["request_id"].(string)
	body, _ := record["request"].(map[string]any)
	subtype, _ := body["subtype"].(string)

	if msg, ok := m.controlErrors[subtype]; ok {
		m.emit(map[string]any{
			"type":     "control_response",
			"response": map[string]any{"subtype": "error", "request_id": id, "error": msg},
		})

		return
	}

	var result map[string]any
	if subtype == "initialize" {
		result = m.initResult
	}

	m.emit(map[string]any{
		"type":     "control_response",
		"response": map[string]any{"subtype": "success", "request_id": id, "response": result},
	})
}

func (m *mockProcess) EndInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.inputEnded {
		m.inputEnded = true
		close(m.prompts)
	}

	return nil
}

func (m *mockProcess) Close() error {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closes++

	if !m.inputEnded {
		m.inputEnded = true
		close(m.prompts)
	}

	if !m.eof {
		m.eof = true
		close(m.records)
	}

	return nil
}

// emit queues inbound records; after end of stream they are dropped.
func (m *mockProcess) emit(records ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range records {
		if m.eof {
			return
		}

		select {
		case m.records <- record:
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *mockProcess) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.eof {
		m.eof = true
		close(m.records)
	}
}

// request sends a control request to the session and waits for its reply.
func (m *mockProcess) request(subtype string, payload map[string]any) map[string]any {
	id := fmt.Sprintf("cli_%d", m.nextID.Add(1))
	ch := make(chan map[string]any, 1)

	m.pendingMu.Lock()
	m.pending[id] = ch
	m.pendingMu.Unlock()

	body := map[string]any{"subtype": subtype}
	maps.Copy(body, payload)

	m.emit(map[string]any{"type": "control_request", "request_id": id, "request": body})

	select {
	case resp := <-ch:
		return resp
	case <-m.ctx.Done():
		return nil
	case <-time.After(2 * time.Second):
		m.t.Errorf("no response to %s request %s", subtype, id)

		return nil
	}
}

func (m *mockProcess) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closes
}

// sentControl returns the subtypes of control requests sent by the session.
func (m *mockProcess) sentControl() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var subtypes []string

	for _, record := range m.sent {
		if record["type"] != "control_request" {
			continue
		}

		body, _ := record["request"].(map[string]any)
		subtype, _ := body["subtype"].(string)
		subtypes = append(subtypes, subtype)
	}

	return subtypes
}

func assistantRecord(text string) map[string]any {
	return map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []any{map[string]any{"type": "text", "text": text}},
			"model":   "claude-sonnet-4-5",
		},
	}
}

func resultRecord(result string) map[string]any {
	return map[string]any{
		"type":            "result",
		"subtype":         "success",
		"duration_ms":     float64(12),
		"duration_api_ms": float64(9),
		"is_error":        false,
		"num_turns":       float64(1),
		"session_id":      "sess-1",
		"result":          result,
	}
}

// collect drains seq with a deadline and returns the messages and the
// final error, if any.
func collect(t *testing.T, seq func(func(Message, error) bool)) ([]Message, error) {
	t.Helper()

	type outcome struct {
		msgs []Message
		err  error
	}

	done := make(chan outcome, 1)

	go func() {
		var out outcome

		for msg, err := range seq {
			if err != nil {
				out.err = err

				break
			}

			out.msgs = append(out.msgs, msg)
		}

		done <- out
	}()

	select {
	case out := <-done:
		return out.msgs, out.err
	case <-time.After(5 * time.Second):
		t.Fatal("message sequence did not end")

		return nil, nil
	}
}

func texts(msgs []Message) []string {
	var out []string

	for _, msg := range msgs {
		switch m := msg.(type) {
		case *AssistantMessage:
			out = append(out, m.Content.String())
		case *ResultMessage:
			out = append(out, "result")
		}
	}

	return out
}
