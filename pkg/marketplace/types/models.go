package types

// TokenResponse is the marketplace token endpoint response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// SelfInfo describes the authenticated marketplace account
type SelfInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// PublicProfile is the counterparty's public profile reference
type PublicProfile struct {
	URL string `json:"url"`
}

// ConversationUser is a participant in a marketplace conversation
type ConversationUser struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	PublicProfile *PublicProfile `json:"public_user_profile,omitempty"`
}

// Conversation summarizes one marketplace chat
type Conversation struct {
	ID    string             `json:"id"`
	Users []ConversationUser `json:"users"`
}

// ListConversationsResponse wraps the conversation listing
type ListConversationsResponse struct {
	Chats []Conversation `json:"chats"`
}

// MessageAuthor identifies the message author when the API provides one
type MessageAuthor struct {
	ID string `json:"id"`
}

// MessageContent holds the message payload
type MessageContent struct {
	Text string `json:"text"`
}

// Message is one marketplace chat message. Created is unix seconds.
type Message struct {
	ID      string         `json:"id"`
	Author  *MessageAuthor `json:"author,omitempty"`
	Content MessageContent `json:"content"`
	Created int64          `json:"created"`
	IsRead  bool           `json:"isRead"`
}

// ListMessagesResponse wraps the message listing
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// SendMessageResponse is the send endpoint response. A missing ID means the
// send was not confirmed and must not be correlated.
type SendMessageResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}
