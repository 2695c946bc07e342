package service

import (
	"context"
	"fmt"

	"avigram/internal/errors"
	"avigram/internal/models"
	"avigram/internal/tracing"
	"avigram/pkg/marketplace/types"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ReplyRequest describes one operator reply coming off the chat surface.
type ReplyRequest struct {
	// LocalMessageID is the reply message's own chat-surface identity.
	LocalMessageID int64
	// ReplyToMessageID is the previously forwarded message being answered.
	ReplyToMessageID int64
	Text             string
}

// RelayResult is the outcome of a successful relay.
type RelayResult struct {
	RemoteMsgID string
	// Duplicate marks a repeated relay attempt that was absorbed
	// idempotently.
	Duplicate bool
}

// ReplyRelay routes operator replies back to the marketplace conversation
// the original message came from.
type ReplyRelay struct {
	store   Store
	gateway types.Client
	creds   *CredentialCache
	logger  *logrus.Logger
}

func NewReplyRelay(store Store, gateway types.Client, creds *CredentialCache, logger *logrus.Logger) *ReplyRelay {
	return &ReplyRelay{
		store:   store,
		gateway: gateway,
		creds:   creds,
		logger:  logger,
	}
}

// Relay resolves the correlation for the replied-to message, sends the reply
// to the marketplace, and records a correlation for the reply itself. A
// correlation record is written only once the gateway has confirmed a remote
// message identity; an unconfirmed response yields a failure with no record.
func (rr *ReplyRelay) Relay(ctx context.Context, req ReplyRequest) (*RelayResult, error) {
	ctx, span := tracing.StartSpan(ctx, "relay.reply",
		attribute.Int64("reply.local_msg_id", req.LocalMessageID))
	defer span.End()

	link, err := rr.store.GetCorrelationByLocalMsgID(ctx, req.ReplyToMessageID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	if link == nil {
		return nil, errors.NewUnlinkedReplyError(req.ReplyToMessageID)
	}

	account, err := rr.store.GetAccountByID(ctx, link.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.NewAccountNotFoundError(link.AccountID)
	}

	token, err := rr.creds.Acquire(ctx, account.ClientID, account.ClientSecret)
	if err != nil {
		return nil, err
	}

	resp, err := rr.gateway.SendMessage(ctx, token, account.RemoteUserID, link.RemoteChatID, req.Text)
	if err != nil {
		return nil, errors.NewGatewayError("send", err)
	}
	if resp.ID == "" || resp.Error != "" {
		return nil, errors.NewGatewayError("send",
			fmt.Errorf("unconfirmed send response: id=%q error=%q", resp.ID, resp.Error))
	}

	remoteMsgID := resp.ID
	record := &models.CorrelationRecord{
		LocalMsgID:   req.LocalMessageID,
		RemoteChatID: link.RemoteChatID,
		RemoteUserID: account.RemoteUserID,
		AccountID:    account.ID,
		RemoteMsgID:  &remoteMsgID,
	}

	if err := rr.store.SaveCorrelation(ctx, record); err != nil {
		if errors.IsCode(err, errors.ErrCodeDuplicateCorrelation) {
			// Duplicate delivery of the same reply event; the earlier
			// attempt already wrote the durable record.
			rr.logger.WithField("localMsgId", req.LocalMessageID).
				Warn("Correlation for reply already exists, treating as duplicate relay")
			return &RelayResult{RemoteMsgID: resp.ID, Duplicate: true}, nil
		}

		// The remote send is committed and cannot be rolled back; the
		// missing local record is logged and the send still reported as
		// success.
		rr.logger.WithError(err).WithField("localMsgId", req.LocalMessageID).
			Error("Failed to save correlation for relayed reply")
	}

	rr.logger.WithFields(logrus.Fields{
		"localMsgId":  req.LocalMessageID,
		"remoteMsgId": resp.ID,
		"chatId":      link.RemoteChatID,
	}).Info("Relayed reply to marketplace")

	return &RelayResult{RemoteMsgID: resp.ID}, nil
}
