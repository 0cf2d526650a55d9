// Package session orchestrates one chat send: it renders the user's
// message, consumes the pending attachment, streams the model response
// into a single growing transcript entry, and guarantees the loading
// state is released on every exit path.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"gemchat/pkg/attachment"
	"gemchat/pkg/chat"
	"gemchat/pkg/transcript"
)

// State is the controller's position in the send lifecycle.
type State int32

const (
	StateIdle State = iota
	StateSending
	StateStreaming
)

// ErrEmptyMessage is returned when a send carries neither text nor an
// attachment; nothing is rendered in that case.
var ErrEmptyMessage = errors.New("message is empty")

// ErrNoSession is rendered as a transcript error when the chat session
// could not be constructed (missing API key).
var ErrNoSession = errors.New("chat session is not initialized: missing API key")

// Notifier receives UI events as a send progresses. The web surface
// forwards them over SSE; tests record them. Done is delivered exactly
// once per send, after success and after failure alike.
type Notifier interface {
	UserMessage(html string)
	AIUpdate(html string)
	Error(html string)
	Done()
}

// Controller owns the mutable chat state: the attachment slot, the
// transcript, and the loading flag. It is the sole mutator of all
// three during a send.
type Controller struct {
	chat        chat.Session
	transcript  *transcript.Transcript
	attachments *attachment.Manager
	notifier    Notifier
	state       atomic.Int32
}

// NewController creates a controller. chatSession may be nil when the
// API key is missing; sends then fail at the send boundary with
// ErrNoSession. notifier may be nil.
func NewController(chatSession chat.Session, tr *transcript.Transcript, attachments *attachment.Manager, notifier Notifier) *Controller {
	return &Controller{
		chat:        chatSession,
		transcript:  tr,
		attachments: attachments,
		notifier:    notifier,
	}
}

// SetNotifier replaces the controller's notifier. Call before the
// first send; the field is not synchronized against in-flight sends.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// Transcript returns the controller's transcript.
func (c *Controller) Transcript() *transcript.Transcript {
	return c.transcript
}

// Attachments returns the controller's attachment manager.
func (c *Controller) Attachments() *attachment.Manager {
	return c.attachments
}

// State returns the current lifecycle state. The value is advisory:
// the UI disables its input during Sending/Streaming, but overlapping
// sends are not locked out here.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Busy reports whether a send is in flight.
func (c *Controller) Busy() bool {
	return c.State() != StateIdle
}

// Send runs one complete send. Empty text with a pending attachment
// synthesizes a default message naming the file. All failures are
// rendered as transcript error entries; the returned error mirrors
// what was rendered so callers can log it.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	pending, hasPending := c.attachments.Current()
	if text == "" {
		if !hasPending {
			return ErrEmptyMessage
		}
		text = "Analyze this file: " + pending.Name
	}

	c.state.Store(int32(StateSending))
	defer c.state.Store(int32(StateIdle))
	defer c.notifyDone()

	userEntry := c.transcript.Append(text, transcript.SenderUser)
	c.notifyUser(userEntry.HTML())

	// Consumed exactly once, before the network call; a retried send
	// cannot reuse stale data.
	file, hasFile := c.attachments.Take()

	if c.chat == nil {
		return c.fail(ErrNoSession)
	}

	parts := make([]chat.Part, 0, 2)
	if hasFile {
		raw, err := file.Bytes()
		if err != nil {
			return c.fail(err)
		}
		parts = append(parts, chat.DataPart(file.MIMEType, raw))
	}
	parts = append(parts, chat.TextPart(text))

	slog.Info("send_start",
		"text_length", len(text),
		"has_attachment", hasFile,
	)

	stream, err := c.chat.SendMessageStream(ctx, parts...)
	if err != nil {
		return c.fail(err)
	}

	c.state.Store(int32(StateStreaming))

	// The buffer is scoped to this send. The full buffer is
	// re-rendered on every chunk: a formatting marker opened earlier
	// may complete in a later chunk.
	var buffer strings.Builder
	var aiEntry *transcript.Entry

	for ev := range chat.Events(stream) {
		if ev.Err != nil {
			return c.fail(ev.Err)
		}
		if ev.Done {
			break
		}
		buffer.WriteString(ev.Delta)
		if aiEntry == nil {
			aiEntry = c.transcript.Append("", transcript.SenderAI)
		}
		aiEntry.SetText(buffer.String())
		c.notifyAI(aiEntry.HTML())
	}

	slog.Info("send_done", "response_length", buffer.Len())
	return nil
}

// fail renders the failure as a transcript error entry. The deferred
// Done in Send releases the loading state afterwards.
func (c *Controller) fail(err error) error {
	slog.Error("send_error", "error", err)
	entry := c.transcript.Append(err.Error(), transcript.SenderError)
	c.notifyError(entry.HTML())
	return err
}

func (c *Controller) notifyUser(html string) {
	if c.notifier != nil {
		c.notifier.UserMessage(html)
	}
}

func (c *Controller) notifyAI(html string) {
	if c.notifier != nil {
		c.notifier.AIUpdate(html)
	}
}

func (c *Controller) notifyError(html string) {
	if c.notifier != nil {
		c.notifier.Error(html)
	}
}

func (c *Controller) notifyDone() {
	if c.notifier != nil {
		c.notifier.Done()
	}
}
