package database

// Account queries
const (
	InsertAccountQuery = `
		INSERT INTO accounts (chat_user_id, client_id, client_secret)
		VALUES (?, ?, ?)
	`

	SelectAccountByIDQuery = `
		SELECT id, chat_user_id, client_id, client_secret,
		       remote_user_id, delivery_chat_id, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`

	SelectAccountByChatUserIDQuery = `
		SELECT id, chat_user_id, client_id, client_secret,
		       remote_user_id, delivery_chat_id, created_at, updated_at
		FROM accounts
		WHERE chat_user_id = ?
	`

	SelectAllAccountsQuery = `
		SELECT id, chat_user_id, client_id, client_secret,
		       remote_user_id, delivery_chat_id, created_at, updated_at
		FROM accounts
		ORDER BY id
	`

	UpdateAccountRemoteUserIDQuery = `
		UPDATE accounts
		SET remote_user_id = ?
		WHERE id = ?
	`

	UpdateAccountDeliveryChatIDQuery = `
		UPDATE accounts
		SET delivery_chat_id = ?
		WHERE id = ?
	`

	DeleteAccountQuery = `
		DELETE FROM accounts
		WHERE chat_user_id = ?
	`
)

// Correlation queries
const (
	InsertCorrelationQuery = `
		INSERT INTO message_links (
			local_msg_id, remote_chat_id, remote_user_id, account_id, remote_msg_id
		) VALUES (?, ?, ?, ?, ?)
	`

	SelectCorrelationByLocalMsgIDQuery = `
		SELECT id, local_msg_id, remote_chat_id, remote_user_id,
		       account_id, remote_msg_id, created_at
		FROM message_links
		WHERE local_msg_id = ?
	`

	SelectLatestCorrelationByRemoteChatIDQuery = `
		SELECT id, local_msg_id, remote_chat_id, remote_user_id,
		       account_id, remote_msg_id, created_at
		FROM message_links
		WHERE remote_chat_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	CountCorrelationsQuery = `
		SELECT COUNT(*) FROM message_links
	`

	// Oldest-first by insertion order; the sweeper keeps the newest `ceiling`
	// records and removes everything older.
	DeleteOldestCorrelationsQuery = `
		DELETE FROM message_links
		WHERE id IN (
			SELECT id FROM message_links
			ORDER BY id ASC
			LIMIT ?
		)
	`
)
