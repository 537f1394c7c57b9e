package agentbridge

import (
	"iter"

	"github.com/wagiedev/agentbridge/internal/message"
)

// MessagesFromSlice creates an input stream from a slice of records.
func MessagesFromSlice(records []InputRecord) iter.Seq[InputRecord] {
	return func(yield func(InputRecord) bool) {
		for _, record := range records {
			if !yield(record) {
				return
			}
		}
	}
}

// MessagesFromChannel creates an input stream from a channel.
// The stream ends when the channel is closed.
func MessagesFromChannel(ch <-chan InputRecord) iter.Seq[InputRecord] {
	return func(yield func(InputRecord) bool) {
		for record := range ch {
			if !yield(record) {
				return
			}
		}
	}
}

// SingleMessage creates an input stream with one user record.
func SingleMessage(content string) iter.Seq[InputRecord] {
	return MessagesFromSlice([]InputRecord{NewUserInput(content)})
}

// NewUserInput creates a user record carrying text.
func NewUserInput(content string) InputRecord {
	return message.NewUserInput(content)
}

// NewUserBlocksInput creates a user record carrying content blocks.
func NewUserBlocksInput(blocks ...ContentBlock) InputRecord {
	return message.NewUserBlocksInput(blocks...)
}
