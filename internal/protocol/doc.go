// Package protocol implements the control channel shared with the assistant
// process.
//
// A Controller reads inbound records from a transport and splits them in
// two: control traffic is handled here, every other record is handed to the
// caller's deliver function in arrival order. Outbound control requests are
// correlated with their responses by request id, and each id is resolved at
// most once. Inbound control requests run on their own goroutine so a slow
// handler never holds up the conversation stream.
//
// Example usage:
//
//	ctrl := protocol.NewController(log, transport)
//	protocol.NewHandlers(log, hooks, canUseTool, tools).Register(ctrl)
//
//	go ctrl.Run(ctx, deliver)
//
//	payload, err := ctrl.SendRequest(ctx, "interrupt", nil)
package protocol
