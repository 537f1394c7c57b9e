package engine

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/wagiedev/agentbridge/internal/config"
)

// fakeProcess is a scripted assistant process behind config.Transport.
// It answers the initialize handshake itself and hands every other record
// it receives to the test's hooks.
type fakeProcess struct {
	mu         sync.Mutex
	records    chan map[string]any
	errs       chan error
	sent       chan map[string]any
	connected  bool
	inputEnded bool
	eof        bool
	closes     int

	initResult map[string]any
	initError  string

	onInput    func(f *fakeProcess, record map[string]any)
	onControl  func(f *fakeProcess, record map[string]any)
	onEndInput func(f *fakeProcess)
}

var _ config.Transport = (*fakeProcess)(nil)

func newFakeProcess() *fakeProcess {
	return &fakeProcess{
		records:    make(chan map[string]any, 64),
		errs:       make(chan error, 1),
		sent:       make(chan map[string]any, 64),
		initResult: map[string]any{"commands": []any{"/help"}},
	}
}

func (f *fakeProcess) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connected = true

	return nil
}

func (f *fakeProcess) Records(context.Context) (<-chan map[string]any, <-chan error) {
	return f.records, f.errs
}

func (f *fakeProcess) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	f.sent <- record

	switch record["type"] {
	case "control_request":
		body, _ := record["request"].(map[string]any)
		if body["subtype"] == "initialize" {
			f.answerInitialize(record)

			return nil
		}

		if f.onControl != nil {
			f.onControl(f, record)
		}
	case "control_response":
		if f.onControl != nil {
			f.onControl(f, record)
		}
	case "user":
		if f.onInput != nil {
			f.onInput(f, record)
		}
	}

	return nil
}

func (f *fakeProcess) answerInitialize(record map[string]any) {
	id, _ := record["request_id"].(string)

	if f.initError != "" {
		f.emit(errorResponseRecord(id, f.initError))

		return
	}

	f.emit(successResponseRecord(id, f.initResult))
}

func (f *fakeProcess) EndInput() error {
	f.mu.Lock()
	f.inputEnded = true
	onEndInput := f.onEndInput
	f.mu.Unlock()

	if onEndInput != nil {
		onEndInput(f)
	}

	return nil
}

func (f *fakeProcess) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closes++

	if !f.eof {
		f.eof = true
		close(f.records)
	}

	return nil
}

// emit queues inbound records. Records after end of stream are dropped.
func (f *fakeProcess) emit(records ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range records {
		if f.eof {
			return
		}

		f.records <- record
	}
}

// finish ends the inbound stream.
func (f *fakeProcess) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.eof {
		f.eof = true
		close(f.records)
	}
}

func (f *fakeProcess) inputWasEnded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.inputEnded
}

func (f *fakeProcess) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closes
}

// nextSent returns the next record sent whose type matches.
func (f *fakeProcess) nextSent(t *testing.T, recordType string) map[string]any {
	t.Helper()

	timeout := time.After(2 * time.Second)

	for {
		select {
		case record := <-f.sent:
			if record["type"] == recordType {
				return record
			}
		case <-timeout:
			t.Fatalf("timed out waiting for a sent %s record", recordType)

			return nil
		}
	}
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

func resultRecord() map[string]any {
	return map[string]any{
		"type":            "result",
		"subtype":         "success",
		"duration_ms":     float64(10),
		"duration_api_ms": float64(8),
		"is_error":        false,
		"num_turns":       float64(1),
		"session_id":      "sess-1",
		"result":          "pong",
	}
}

func controlRequestRecord(id, subtype string, payload map[string]any) map[string]any {
	body := map[string]any{"subtype": subtype}
	maps.Copy(body, payload)

	return map[string]any{"type": "control_request", "request_id": id, "request": body}
}

func successResponseRecord(id string, result map[string]any) map[string]any {
	return map[string]any{
		"type": "control_response",
		"response": map[string]any{
			"subtype":    "success",
			"request_id": id,
			"response":   result,
		},
	}
}

func errorResponseRecord(id, msg string) map[string]any {
	return map[string]any{
		"type": "control_response",
		"response": map[string]any{
			"subtype":    "error",
			"request_id": id,
			"error":      msg,
		},
	}
}

// responseBody extracts the body of a sent control response.
func responseBody(record map[string]any) map[string]any {
	body, _ := record["response"].(map[string]any)

	return body
}
