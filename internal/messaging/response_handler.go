package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// defaultProcessTimeout bounds how long one inbound message may take,
// including the LLM extraction call.
const defaultProcessTimeout = 30 * time.Second

// errorMessage is sent when handling an inbound message fails entirely.
const errorMessage = "⚠️ We hit a problem processing your message. Please try again in a moment."

// ConversationHandler turns one inbound message into a reply. Implemented by
// the flow manager.
type ConversationHandler interface {
	HandleMessage(ctx context.Context, phone, text string) (string, error)
}

// ResponseHandler consumes the messaging service's response channel and runs
// each inbound message through the conversation handler, one goroutine per
// message so a slow LLM call never blocks other users.
type ResponseHandler struct {
	msgService Service
	handler    ConversationHandler
}

// NewResponseHandler creates a ResponseHandler bridging a messaging service
// and a conversation handler.
func NewResponseHandler(msgService Service, handler ConversationHandler) *ResponseHandler {
	return &ResponseHandler{msgService: msgService, handler: handler}
}

// Start consumes responses until the channel closes or the context ends.
func (rh *ResponseHandler) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				slog.Debug("ResponseHandler stopping, context cancelled")
				return
			case response, ok := <-rh.msgService.Responses():
				if !ok {
					slog.Debug("ResponseHandler stopping, response channel closed")
					return
				}
				go func() {
					if err := rh.processResponse(ctx, response.From, response.Body); err != nil {
						slog.Error("ResponseHandler failed to process response", "error", err, "from", response.From)
					}
				}()
			}
		}
	}()
}

// processResponse handles one inbound message end to end: canonicalize the
// sender, run the conversation, send the reply.
func (rh *ResponseHandler) processResponse(ctx context.Context, from, body string) error {
	canonicalFrom, err := rh.msgService.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", from, err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultProcessTimeout)
	defer cancel()

	reply, err := rh.handler.HandleMessage(ctx, canonicalFrom, body)
	if err != nil {
		slog.Error("ResponseHandler conversation failed", "error", err, "from", canonicalFrom)
		if sendErr := rh.msgService.SendMessage(ctx, canonicalFrom, errorMessage); sendErr != nil {
			slog.Error("ResponseHandler failed to send error message", "error", sendErr, "from", canonicalFrom)
		}
		return fmt.Errorf("conversation failed: %w", err)
	}
	if reply == "" {
		return nil
	}

	if err := rh.msgService.SendMessage(ctx, canonicalFrom, reply); err != nil {
		return fmt.Errorf("failed to send reply to %s: %w", canonicalFrom, err)
	}
	slog.Debug("ResponseHandler reply sent", "from", canonicalFrom, "reply_length", len(reply))
	return nil
}
