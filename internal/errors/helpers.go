package errors

import "fmt"

// Common error creators for frequent use cases

// NewAuthError creates a credential acquisition error. These are recoverable:
// callers skip the current cycle and retry on the next one.
func NewAuthError(clientID string, err error) *AppError {
	return WrapRetryable(err, ErrCodeAuth, "token acquisition failed").
		WithContext("client_id", clientID)
}

// NewGatewayError creates a transient marketplace API error
func NewGatewayError(operation string, err error) *AppError {
	return WrapRetryable(err, ErrCodeGateway, fmt.Sprintf("gateway %s failed", operation)).
		WithContext("operation", operation)
}

// NewUnlinkedReplyError indicates a reply that references a message with no
// correlation record. Permanent for that event; surfaced to the operator.
func NewUnlinkedReplyError(localMsgID int64) *AppError {
	return New(ErrCodeUnlinkedReply, "no correlation record for replied-to message").
		WithContext("local_msg_id", localMsgID)
}

// NewAccountNotFoundError indicates an orphaned correlation record
func NewAccountNotFoundError(accountID int64) *AppError {
	return New(ErrCodeAccountNotFound, "account referenced by correlation no longer exists").
		WithContext("account_id", accountID)
}

// NewDuplicateCorrelationError indicates a uniqueness violation on a
// correlation write. Non-fatal: callers treat it as idempotent success.
func NewDuplicateCorrelationError(localMsgID int64, err error) *AppError {
	return Wrap(err, ErrCodeDuplicateCorrelation, "correlation record already exists").
		WithContext("local_msg_id", localMsgID)
}

// NewDatabaseError creates a database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation)
}
