package agentbridge

import (
	"context"
	"fmt"
)

// WithClient starts a client, runs fn with it and closes it afterwards.
//
// fn's error is returned as is. A failure to close is logged to the
// configured logger and does not override fn's error.
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
//	)
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log := applyOptions(opts).Logger
	if log == nil {
		log = NopLogger()
	}

	client := NewClient()
	if err := client.Start(ctx, opts...); err != nil {
		return fmt.Errorf("start client: %w", err)
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("Failed to close client", "error", closeErr)
		}
	}()

	return fn(client)
}
