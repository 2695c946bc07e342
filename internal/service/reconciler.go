package service

import (
	"context"
	"time"

	"avigram/internal/errors"
	"avigram/internal/models"
	"avigram/internal/tracing"
	"avigram/pkg/chat"
	"avigram/pkg/marketplace/types"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Store is the persistence surface the relay services depend on.
type Store interface {
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	SetAccountRemoteUserID(ctx context.Context, accountID int64, remoteUserID string) error
	SaveCorrelation(ctx context.Context, record *models.CorrelationRecord) error
	GetCorrelationByLocalMsgID(ctx context.Context, localMsgID int64) (*models.CorrelationRecord, error)
	TrimCorrelations(ctx context.Context, ceiling int64) (int64, error)
}

// Reconciler pulls unread marketplace conversations for every ready account,
// forwards the newest unread message of each to the operator's chat, and
// records the correlation. One execution of ProcessTick is one
// reconciliation tick.
type Reconciler struct {
	store      Store
	gateway    types.Client
	chatClient chat.Client
	creds      *CredentialCache
	logger     *logrus.Logger
}

func NewReconciler(store Store, gateway types.Client, chatClient chat.Client, creds *CredentialCache, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		gateway:    gateway,
		chatClient: chatClient,
		creds:      creds,
		logger:     logger,
	}
}

// ProcessTick runs one reconciliation pass over all registered accounts,
// strictly sequentially. Per-account failures are logged and never abort the
// tick; only a failure to enumerate accounts is returned to the caller.
func (r *Reconciler) ProcessTick(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "reconciler.tick")
	defer span.End()

	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return err
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := r.processAccount(ctx, account); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"accountId":  account.ID,
				"chatUserId": account.ChatUserID,
			}).Error("Account processing failed, continuing with next account")
		}
	}

	return nil
}

func (r *Reconciler) processAccount(ctx context.Context, account *models.Account) error {
	ctx, span := tracing.StartSpan(ctx, "reconciler.account",
		attribute.Int64("account.id", account.ID))
	defer span.End()

	token, err := r.creds.Acquire(ctx, account.ClientID, account.ClientSecret)
	if err != nil {
		return err
	}

	// The marketplace identity is resolved lazily on the first successful
	// authentication and persisted for later ticks.
	if account.RemoteUserID == "" {
		self, err := r.gateway.GetSelf(ctx, token)
		if err != nil {
			return errors.NewGatewayError("self", err)
		}
		if err := r.store.SetAccountRemoteUserID(ctx, account.ID, self.ID); err != nil {
			return err
		}
		account.RemoteUserID = self.ID
	}

	if !account.Ready() {
		r.logger.WithField("accountId", account.ID).Debug("Account has no delivery destination yet, skipping")
		return nil
	}

	conversations, err := r.gateway.ListUnreadConversations(ctx, token, account.RemoteUserID)
	if err != nil {
		return errors.NewGatewayError("list conversations", err)
	}
	if len(conversations) == 0 {
		return nil
	}

	for _, conversation := range conversations {
		if err := r.processConversation(ctx, token, account, conversation); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"accountId":      account.ID,
				"conversationId": conversation.ID,
			}).Error("Conversation processing failed, continuing with next conversation")
		}
	}

	return nil
}

// processConversation forwards the single newest unread message of one
// conversation and records its correlation. Mark-read runs regardless of the
// correlation write outcome: the forward has already reached the operator
// and must not be re-sent next tick.
func (r *Reconciler) processConversation(ctx context.Context, token string, account *models.Account, conversation types.Conversation) error {
	messages, err := r.gateway.ListMessages(ctx, token, account.RemoteUserID, conversation.ID)
	if err != nil {
		return errors.NewGatewayError("list messages", err)
	}

	candidate := SelectForwardCandidate(messages)
	if candidate == nil {
		return nil
	}

	senderID := ResolveSenderIdentity(candidate, conversation.Users, account.RemoteUserID)
	senderName := ResolveSenderName(senderID, conversation.Users, account.RemoteUserID)

	text := FormatForwardText(
		senderName,
		candidate.Content.Text,
		time.Unix(candidate.Created, 0),
		counterpartProfileURL(conversation.Users, account.RemoteUserID),
	)

	sent, err := r.chatClient.SendText(ctx, account.DeliveryChatID, text)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeChatAPI, "forward to chat surface failed")
	}

	remoteMsgID := candidate.ID
	record := &models.CorrelationRecord{
		LocalMsgID:   sent.MessageID,
		RemoteChatID: conversation.ID,
		RemoteUserID: senderID,
		AccountID:    account.ID,
		RemoteMsgID:  &remoteMsgID,
	}

	if err := r.store.SaveCorrelation(ctx, record); err != nil {
		// The forward is already delivered; the record failure only costs
		// replyability for this message.
		r.logger.WithError(err).WithFields(logrus.Fields{
			"localMsgId":     sent.MessageID,
			"conversationId": conversation.ID,
		}).Error("Failed to save correlation for forwarded message")
	}

	if err := r.gateway.MarkRead(ctx, token, account.RemoteUserID, conversation.ID); err != nil {
		r.logger.WithError(err).WithField("conversationId", conversation.ID).
			Warn("Failed to mark conversation read")
	}

	r.logger.WithFields(logrus.Fields{
		"accountId":      account.ID,
		"conversationId": conversation.ID,
		"localMsgId":     sent.MessageID,
	}).Info("Forwarded marketplace message")

	return nil
}
