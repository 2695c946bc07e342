package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"avigram/internal/models"
	"avigram/pkg/chat"
	"avigram/pkg/marketplace/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func readyAccount() *models.Account {
	return &models.Account{
		ID:             1,
		ChatUserID:     4242,
		ClientID:       "client-1",
		ClientSecret:   "secret-1",
		RemoteUserID:   "me",
		DeliveryChatID: 4242,
	}
}

func authOK(gateway *mockGateway) {
	gateway.On("Authenticate", mock.Anything, "client-1", "secret-1").
		Return(&types.TokenResponse{AccessToken: "tok", ExpiresIn: 3600}, nil)
}

func TestReconciler_ProcessTick_ForwardsNewestUnread(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	account := readyAccount()
	store.On("ListAccounts", mock.Anything).Return([]*models.Account{account}, nil)
	authOK(gateway)

	conversation := types.Conversation{
		ID: "conv-c",
		Users: []types.ConversationUser{
			{ID: "me", Name: "Operator"},
			{ID: "buyer", Name: "Alice", PublicProfile: &types.PublicProfile{URL: "https://example.com/alice"}},
		},
	}
	gateway.On("ListUnreadConversations", mock.Anything, "tok", "me").
		Return([]types.Conversation{conversation}, nil)

	created := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC).Unix()
	gateway.On("ListMessages", mock.Anything, "tok", "me", "conv-c").
		Return([]types.Message{
			{ID: "m-old", Author: &types.MessageAuthor{ID: "buyer"}, Content: types.MessageContent{Text: "Hello"}, IsRead: true},
			{ID: "m-new", Author: &types.MessageAuthor{ID: "buyer"}, Content: types.MessageContent{Text: "Hi"}, Created: created},
		}, nil)

	chatClient.On("SendText", mock.Anything, int64(4242), mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "Alice") && strings.Contains(text, "Hi")
	})).Return(&chat.SendResult{MessageID: 555}, nil)

	store.On("SaveCorrelation", mock.Anything, mock.MatchedBy(func(record *models.CorrelationRecord) bool {
		return record.LocalMsgID == 555 &&
			record.RemoteChatID == "conv-c" &&
			record.RemoteUserID == "buyer" &&
			record.AccountID == 1 &&
			record.RemoteMsgID != nil && *record.RemoteMsgID == "m-new"
	})).Return(nil)

	gateway.On("MarkRead", mock.Anything, "tok", "me", "conv-c").Return(nil)

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)

	gateway.AssertNumberOfCalls(t, "Authenticate", 1)
	chatClient.AssertNumberOfCalls(t, "SendText", 1)
	store.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestReconciler_ProcessTick_ResolvesRemoteIdentityLazily(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	account := readyAccount()
	account.RemoteUserID = ""
	store.On("ListAccounts", mock.Anything).Return([]*models.Account{account}, nil)
	authOK(gateway)

	gateway.On("GetSelf", mock.Anything, "tok").Return(&types.SelfInfo{ID: "me", Name: "Operator"}, nil)
	store.On("SetAccountRemoteUserID", mock.Anything, int64(1), "me").Return(nil)
	gateway.On("ListUnreadConversations", mock.Anything, "tok", "me").
		Return([]types.Conversation{}, nil)

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)

	store.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestReconciler_ProcessTick_SkipsAccountWithoutDeliveryChat(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	account := readyAccount()
	account.DeliveryChatID = 0
	store.On("ListAccounts", mock.Anything).Return([]*models.Account{account}, nil)
	authOK(gateway)

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)

	gateway.AssertNotCalled(t, "ListUnreadConversations", mock.Anything, mock.Anything, mock.Anything)
	chatClient.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciler_ProcessTick_AuthFailureDoesNotAbortTick(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	broken := &models.Account{ID: 1, ChatUserID: 1, ClientID: "bad", ClientSecret: "bad", RemoteUserID: "u1", DeliveryChatID: 10}
	healthy := readyAccount()
	healthy.ID = 2
	store.On("ListAccounts", mock.Anything).Return([]*models.Account{broken, healthy}, nil)

	gateway.On("Authenticate", mock.Anything, "bad", "bad").
		Return(nil, errors.New("invalid_client"))
	authOK(gateway)
	gateway.On("ListUnreadConversations", mock.Anything, "tok", "me").
		Return([]types.Conversation{}, nil)

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)

	// The healthy account is still processed after the broken one fails.
	gateway.AssertCalled(t, "ListUnreadConversations", mock.Anything, "tok", "me")
}

func TestReconciler_ProcessTick_ListAccountsFailure(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	store.On("ListAccounts", mock.Anything).Return(nil, errors.New("database is locked"))

	err := reconciler.ProcessTick(context.Background())
	assert.Error(t, err)
}

func TestReconciler_ProcessTick_ConversationFailureIsolated(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	store.On("ListAccounts", mock.Anything).Return([]*models.Account{readyAccount()}, nil)
	authOK(gateway)

	convA := types.Conversation{ID: "conv-a", Users: []types.ConversationUser{{ID: "me"}, {ID: "buyer", Name: "Alice"}}}
	convB := types.Conversation{ID: "conv-b", Users: []types.ConversationUser{{ID: "me"}, {ID: "buyer", Name: "Alice"}}}
	gateway.On("ListUnreadConversations", mock.Anything, "tok", "me").
		Return([]types.Conversation{convA, convB}, nil)

	gateway.On("ListMessages", mock.Anything, "tok", "me", "conv-a").
		Return(nil, errors.New("timeout"))
	gateway.On("ListMessages", mock.Anything, "tok", "me", "conv-b").
		Return([]types.Message{{ID: "m1", Author: &types.MessageAuthor{ID: "buyer"}, Content: types.MessageContent{Text: "Hi"}}}, nil)

	chatClient.On("SendText", mock.Anything, int64(4242), mock.Anything).
		Return(&chat.SendResult{MessageID: 900}, nil)
	store.On("SaveCorrelation", mock.Anything, mock.Anything).Return(nil)
	gateway.On("MarkRead", mock.Anything, "tok", "me", "conv-b").Return(nil)

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)

	chatClient.AssertNumberOfCalls(t, "SendText", 1)
}

func TestReconciler_ProcessTick_MarkReadFailureIsBestEffort(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	store.On("ListAccounts", mock.Anything).Return([]*models.Account{readyAccount()}, nil)
	authOK(gateway)

	conversation := types.Conversation{ID: "conv-c", Users: []types.ConversationUser{{ID: "me"}, {ID: "buyer", Name: "Alice"}}}
	gateway.On("ListUnreadConversations", mock.Anything, "tok", "me").
		Return([]types.Conversation{conversation}, nil)
	gateway.On("ListMessages", mock.Anything, "tok", "me", "conv-c").
		Return([]types.Message{{ID: "m1", Author: &types.MessageAuthor{ID: "buyer"}, Content: types.MessageContent{Text: "Hi"}}}, nil)
	chatClient.On("SendText", mock.Anything, int64(4242), mock.Anything).
		Return(&chat.SendResult{MessageID: 700}, nil)
	store.On("SaveCorrelation", mock.Anything, mock.Anything).Return(nil)
	gateway.On("MarkRead", mock.Anything, "tok", "me", "conv-c").
		Return(errors.New("service unavailable"))

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReconciler_ProcessTick_CorrelationFailureDoesNotBlockMarkRead(t *testing.T) {
	store := &mockStore{}
	gateway := &mockGateway{}
	chatClient := &mockChatClient{}
	reconciler := NewReconciler(store, gateway, chatClient, NewCredentialCache(gateway, testLogger()), testLogger())

	store.On("ListAccounts", mock.Anything).Return([]*models.Account{readyAccount()}, nil)
	authOK(gateway)

	conversation := types.Conversation{ID: "conv-c", Users: []types.ConversationUser{{ID: "me"}, {ID: "buyer", Name: "Alice"}}}
	gateway.On("ListUnreadConversations", mock.Anything, "tok", "me").
		Return([]types.Conversation{conversation}, nil)
	gateway.On("ListMessages", mock.Anything, "tok", "me", "conv-c").
		Return([]types.Message{{ID: "m1", Author: &types.MessageAuthor{ID: "buyer"}, Content: types.MessageContent{Text: "Hi"}}}, nil)
	chatClient.On("SendText", mock.Anything, int64(4242), mock.Anything).
		Return(&chat.SendResult{MessageID: 800}, nil)
	store.On("SaveCorrelation", mock.Anything, mock.Anything).Return(errors.New("disk I/O error"))
	gateway.On("MarkRead", mock.Anything, "tok", "me", "conv-c").Return(nil)

	err := reconciler.ProcessTick(context.Background())
	require.NoError(t, err)

	// The conversation is still marked read so the forward is not repeated.
	gateway.AssertCalled(t, "MarkRead", mock.Anything, "tok", "me", "conv-c")
}
