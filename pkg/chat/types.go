package chat

import "context"

// SendResult carries the local message identity created by a send. Every
// forwarded marketplace message gets one of these ids, and correlation
// records key off it.
type SendResult struct {
	MessageID int64
}

// Client is the outbound chat surface: sending a message to a chat-platform
// conversation yields a new local message identity.
type Client interface {
	SendText(ctx context.Context, chatID int64, text string) (*SendResult, error)
}

// ReplyEvent is produced by the chat surface when an operator answers a
// previously forwarded message.
type ReplyEvent struct {
	MessageID        int64  `json:"messageId"`
	ReplyToMessageID int64  `json:"replyToMessageId"`
	ChatUserID       int64  `json:"chatUserId"`
	Text             string `json:"text"`
}

// ReplyHandler consumes reply events. Errors are the handler's to surface to
// the operator; the event source only logs them.
type ReplyHandler func(ctx context.Context, event ReplyEvent) error
