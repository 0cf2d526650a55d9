// Package chat defines the interface to the remote generative-language
// service and a pull-based stream of response chunks.
package chat

import "context"

// Part is one piece of message content: text, or inline binary data
// when Data is non-nil.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// DataPart builds an inline binary content part.
func DataPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Chunk is one streamed piece of the model's response.
type Chunk struct {
	Text string
}

// Stream exposes a streaming response interface.
type Stream interface {
	Next() bool
	Chunk() Chunk
	Err() error
	Close() error
}

// Session is a stateful conversation with the remote service. It is
// constructed once with a model identifier and a fixed system
// instruction; SendMessageStream submits content parts and yields the
// response incrementally.
type Session interface {
	SendMessageStream(ctx context.Context, parts ...Part) (Stream, error)
}

// Event is a single streaming event for channel-based consumers.
// Exactly one terminal event is sent: Done true, with Err set on
// failure.
type Event struct {
	Delta string
	Err   error
	Done  bool
}

// Events drains a stream into a channel of events, closing the stream
// when done. The consuming loop processes one event fully before the
// next is delivered, which keeps chunk ordering strict.
func Events(stream Stream) <-chan Event {
	ch := make(chan Event, 8)
	go func() {
		defer close(ch)
		defer stream.Close()

		for stream.Next() {
			if delta := stream.Chunk().Text; delta != "" {
				ch <- Event{Delta: delta}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- Event{Err: err, Done: true}
			return
		}
		ch <- Event{Done: true}
	}()
	return ch
}
