package models

import "time"

// CorrelationRecord is the durable link between one chat-surface message and
// one marketplace message. LocalMsgID is globally unique; records are
// append-only and removed only by the retention sweeper.
type CorrelationRecord struct {
	ID           int64     `db:"id"`
	LocalMsgID   int64     `db:"local_msg_id"`
	RemoteChatID string    `db:"remote_chat_id"`
	RemoteUserID string    `db:"remote_user_id"`
	AccountID    int64     `db:"account_id"`
	RemoteMsgID  *string   `db:"remote_msg_id"`
	CreatedAt    time.Time `db:"created_at"`
}
