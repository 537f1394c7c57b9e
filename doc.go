// Package agentbridge drives a long-lived assistant process over a
// bidirectional channel of newline-delimited JSON records.
//
// Conversation records flow from the process to the caller as validated,
// typed messages. Control requests flow both ways: the process asks the
// caller to run hooks, approve tool use or execute in-process tools, and the
// caller can interrupt the process or change its permission mode and model.
//
// The package does not find or launch the assistant binary. Supply a
// Transport with WithTransport, or a factory with WithTransportFactory that
// builds one from the resolved launch parameters, for example with
// NewProcessTransport over an *exec.Cmd.
//
// # Basic Usage
//
// For one-shot prompts, use Query:
//
//	spawn := func(launch *agentbridge.Launch) (agentbridge.Transport, error) {
//	    cmd := exec.Command("assistant", buildArgs(launch)...)
//	    return agentbridge.NewProcessTransport(cmd), nil
//	}
//
//	for msg, err := range agentbridge.Query(ctx, "What is 2+2?",
//	    agentbridge.WithTransportFactory(spawn),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    switch m := msg.(type) {
//	    case *agentbridge.AssistantMessage:
//	        fmt.Println(m.Content.String())
//	    case *agentbridge.ResultMessage:
//	        fmt.Printf("Completed in %dms\n", m.DurationMs)
//	    }
//	}
//
// # Interactive Sessions
//
// For multi-turn conversations, use NewClient or the WithClient helper:
//
//	err := agentbridge.WithClient(ctx, func(c agentbridge.Client) error {
//	    if err := c.Query(ctx, "Hello"); err != nil {
//	        return err
//	    }
//	    for msg, err := range c.ReceiveResponse(ctx) {
//	        if err != nil {
//	            return err
//	        }
//	        // process message...
//	    }
//	    return nil
//	},
//	    agentbridge.WithTransportFactory(spawn),
//	    agentbridge.WithLogger(slog.Default()),
//	)
//
// # Callbacks
//
// WithHooks, WithCanUseTool and WithToolServer install handlers for requests
// from the assistant process. They need a streaming session, which Client
// and QueryStream always use and Query switches to automatically. Handlers
// run concurrently; a slow handler never delays conversation messages.
//
// # Error Handling
//
// Configuration mistakes are reported before any I/O as *ConfigError.
// A record that fails validation ends the session with *MessageParseError,
// and an abnormal process exit ends it with *ProcessError:
//
//	for msg, err := range agentbridge.Query(ctx, prompt, opts...) {
//	    if procErr, ok := errors.AsType[*agentbridge.ProcessError](err); ok {
//	        log.Fatalf("assistant exited with code %d: %s", procErr.ExitCode, procErr.Stderr)
//	    }
//	    // ...
//	}
package agentbridge
