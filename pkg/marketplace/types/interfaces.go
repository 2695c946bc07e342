package types

import "context"

// Client is the marketplace messenger capability surface the relay consumes.
// The relay depends on this interface only; the wire protocol lives in the
// implementing client.
type Client interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) (*TokenResponse, error)
	GetSelf(ctx context.Context, token string) (*SelfInfo, error)
	ListUnreadConversations(ctx context.Context, token, remoteUserID string) ([]Conversation, error)
	ListMessages(ctx context.Context, token, remoteUserID, conversationID string) ([]Message, error)
	SendMessage(ctx context.Context, token, remoteUserID, conversationID, text string) (*SendMessageResponse, error)
	MarkRead(ctx context.Context, token, remoteUserID, conversationID string) error
}
