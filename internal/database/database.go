package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"avigram/internal/errors"
	"avigram/internal/migrations"
	"avigram/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(migrations.GetInitialSchema()); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Account operations

// GetOrCreateAccount returns the account registered for the given chat user,
// creating it with the supplied credentials when absent.
func (d *Database) GetOrCreateAccount(ctx context.Context, chatUserID int64, clientID, clientSecret string) (*models.Account, error) {
	account, err := d.GetAccountByChatUserID(ctx, chatUserID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	encryptedSecret, err := d.encryptor.EncryptIfEnabled(clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt client secret: %w", err)
	}

	err = retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, InsertAccountQuery, chatUserID, clientID, encryptedSecret)
		return execErr
	}, "insert account")
	if err != nil {
		return nil, errors.NewDatabaseError("insert account", err)
	}

	return d.GetAccountByChatUserID(ctx, chatUserID)
}

func (d *Database) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	return d.scanAccount(d.db.QueryRowContext(ctx, SelectAccountByIDQuery, id))
}

func (d *Database) GetAccountByChatUserID(ctx context.Context, chatUserID int64) (*models.Account, error) {
	return d.scanAccount(d.db.QueryRowContext(ctx, SelectAccountByChatUserIDQuery, chatUserID))
}

// ListAccounts returns every registered account, ready or not. The
// reconciler filters on readiness itself so it can resolve missing remote
// identities along the way.
func (d *Database) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := d.db.QueryContext(ctx, SelectAllAccountsQuery)
	if err != nil {
		return nil, errors.NewDatabaseError("list accounts", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := d.scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("list accounts", err)
	}

	return accounts, nil
}

func (d *Database) SetAccountRemoteUserID(ctx context.Context, accountID int64, remoteUserID string) error {
	err := retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, UpdateAccountRemoteUserIDQuery, remoteUserID, accountID)
		return execErr
	}, "update account remote user id")
	if err != nil {
		return errors.NewDatabaseError("update account remote user id", err)
	}
	return nil
}

func (d *Database) SetAccountDeliveryChatID(ctx context.Context, accountID int64, deliveryChatID int64) error {
	err := retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, UpdateAccountDeliveryChatIDQuery, deliveryChatID, accountID)
		return execErr
	}, "update account delivery chat id")
	if err != nil {
		return errors.NewDatabaseError("update account delivery chat id", err)
	}
	return nil
}

// DeleteAccount removes an account by chat user id. Correlation records are
// left in place; the sweeper reclaims them by age.
func (d *Database) DeleteAccount(ctx context.Context, chatUserID int64) error {
	err := retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, DeleteAccountQuery, chatUserID)
		return execErr
	}, "delete account")
	if err != nil {
		return errors.NewDatabaseError("delete account", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (d *Database) scanAccount(row *sql.Row) (*models.Account, error) {
	account, err := d.scanAccountFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return account, err
}

func (d *Database) scanAccountRow(rows *sql.Rows) (*models.Account, error) {
	return d.scanAccountFrom(rows)
}

func (d *Database) scanAccountFrom(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	var encryptedSecret string
	var remoteUserID sql.NullString
	var deliveryChatID sql.NullInt64

	err := row.Scan(
		&account.ID,
		&account.ChatUserID,
		&account.ClientID,
		&encryptedSecret,
		&remoteUserID,
		&deliveryChatID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.NewDatabaseError("scan account", err)
	}

	account.ClientSecret, err = d.encryptor.DecryptIfEnabled(encryptedSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt client secret: %w", err)
	}

	if remoteUserID.Valid {
		account.RemoteUserID = remoteUserID.String
	}
	if deliveryChatID.Valid {
		account.DeliveryChatID = deliveryChatID.Int64
	}

	return account, nil
}

// Correlation operations

// SaveCorrelation appends a correlation record. A UNIQUE violation on the
// local message id is reported as a DuplicateCorrelationError so callers can
// treat repeated relay attempts as idempotent.
func (d *Database) SaveCorrelation(ctx context.Context, record *models.CorrelationRecord) error {
	_, err := d.db.ExecContext(ctx, InsertCorrelationQuery,
		record.LocalMsgID,
		record.RemoteChatID,
		record.RemoteUserID,
		record.AccountID,
		record.RemoteMsgID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return errors.NewDuplicateCorrelationError(record.LocalMsgID, err)
		}
		return errors.NewDatabaseError("save correlation", err)
	}

	return nil
}

func (d *Database) GetCorrelationByLocalMsgID(ctx context.Context, localMsgID int64) (*models.CorrelationRecord, error) {
	return d.scanCorrelation(d.db.QueryRowContext(ctx, SelectCorrelationByLocalMsgIDQuery, localMsgID))
}

func (d *Database) GetLatestCorrelationByRemoteChatID(ctx context.Context, remoteChatID string) (*models.CorrelationRecord, error) {
	return d.scanCorrelation(d.db.QueryRowContext(ctx, SelectLatestCorrelationByRemoteChatIDQuery, remoteChatID))
}

func (d *Database) CountCorrelations(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, CountCorrelationsQuery).Scan(&count); err != nil {
		return 0, errors.NewDatabaseError("count correlations", err)
	}
	return count, nil
}

// TrimCorrelations deletes the oldest records beyond the retention ceiling
// and returns how many were removed. Count and delete run in one
// transaction so a concurrent insert cannot make the sweep remove too much.
func (d *Database) TrimCorrelations(ctx context.Context, ceiling int64) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewDatabaseError("begin trim", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int64
	if err := tx.QueryRowContext(ctx, CountCorrelationsQuery).Scan(&count); err != nil {
		return 0, errors.NewDatabaseError("count correlations", err)
	}

	excess := count - ceiling
	if excess <= 0 {
		return 0, tx.Commit()
	}

	result, err := tx.ExecContext(ctx, DeleteOldestCorrelationsQuery, excess)
	if err != nil {
		return 0, errors.NewDatabaseError("trim correlations", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("trim correlations", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewDatabaseError("commit trim", err)
	}

	return removed, nil
}

func (d *Database) scanCorrelation(row *sql.Row) (*models.CorrelationRecord, error) {
	record := &models.CorrelationRecord{}
	var remoteMsgID sql.NullString

	err := row.Scan(
		&record.ID,
		&record.LocalMsgID,
		&record.RemoteChatID,
		&record.RemoteUserID,
		&record.AccountID,
		&remoteMsgID,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("scan correlation", err)
	}

	if remoteMsgID.Valid {
		record.RemoteMsgID = &remoteMsgID.String
	}

	return record, nil
}
