package models

import "time"

// Account links one operator's chat-platform identity to a marketplace
// identity. RemoteUserID is resolved lazily after the first successful
// authentication; DeliveryChatID is set once the operator confirms where
// forwarded messages should land.
type Account struct {
	ID             int64     `db:"id"`
	ChatUserID     int64     `db:"chat_user_id"`
	ClientID       string    `db:"client_id"`
	ClientSecret   string    `db:"client_secret"`
	RemoteUserID   string    `db:"remote_user_id"`
	DeliveryChatID int64     `db:"delivery_chat_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Ready reports whether the account can be processed by the reconciler:
// the marketplace identity is resolved and a delivery destination is set.
func (a *Account) Ready() bool {
	return a.RemoteUserID != "" && a.DeliveryChatID != 0
}
