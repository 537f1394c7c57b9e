package agentbridge

import (
	"context"
	"iter"

	"github.com/wagiedev/agentbridge/internal/config"
	"github.com/wagiedev/agentbridge/internal/engine"
)

// requiresStreaming reports whether the options install handlers the
// assistant process can only reach over a streaming session.
func requiresStreaming(options *Options) bool {
	return len(options.Hooks) > 0 || options.CanUseTool != nil || len(options.ToolServers) > 0
}

// Query runs a one-shot prompt and returns an iterator over the reply.
//
//	for msg, err := range agentbridge.Query(ctx, "What is 2+2?",
//	    agentbridge.WithTransportFactory(spawn),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if result, ok := msg.(*agentbridge.ResultMessage); ok {
//	        fmt.Println(result.Result)
//	    }
//	}
//
// Messages are yielded in arrival order. Setup failures, parse failures and
// transport failures are yielded as the final element. Breaking out of the
// loop closes the session.
//
// When hooks, a permission callback or tool servers are configured the
// prompt is sent as a single streamed record, since the assistant process
// can only issue control requests in streaming mode. Query therefore never
// reports the *ConfigError that a fixed prompt combined with a permission
// callback raises at the engine level. Other option conflicts, such as a
// permission callback together with WithPermissionPromptToolName, are still
// yielded as a *ConfigError before any I/O.
func Query(ctx context.Context, prompt string, opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		options := applyOptions(opts)

		p := config.TextPrompt(prompt)
		if requiresStreaming(options) {
			p = config.StreamPrompt(SingleMessage(prompt))
		}

		runSession(ctx, options, p, yield)
	}
}

// QueryStream is Query with a streamed prompt. Records are sent in order as
// the iterator yields them; input is ended once it is exhausted and, when
// handlers are configured, the first result has arrived.
//
//	records := agentbridge.MessagesFromSlice([]agentbridge.InputRecord{
//	    agentbridge.NewUserInput("Read main.go"),
//	    agentbridge.NewUserInput("Now summarize it"),
//	})
//
//	for msg, err := range agentbridge.QueryStream(ctx, records, opts...) {
//	    // ...
//	}
func QueryStream(ctx context.Context, records iter.Seq[InputRecord], opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		runSession(ctx, applyOptions(opts), config.StreamPrompt(records), yield)
	}
}

func runSession(ctx context.Context, options *Options, prompt Prompt, yield func(Message, error) bool) {
	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	log = log.With("component", "query")

	e, err := engine.New(options, prompt)
	if err != nil {
		yield(nil, err)

		return
	}

	defer func() {
		if err := e.Close(); err != nil {
			log.Warn("Failed to close session", "engine_id", e.ID(), "error", err)
		}
	}()

	if err := e.Connect(ctx); err != nil {
		yield(nil, err)

		return
	}

	log.Debug("Reading messages", "engine_id", e.ID())

	for msg, err := range e.Messages(ctx) {
		if !yield(msg, err) || err != nil {
			return
		}
	}
}
