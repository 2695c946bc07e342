package service

import (
	"context"

	"avigram/internal/models"
	"avigram/pkg/chat"
	"avigram/pkg/marketplace/types"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *mockStore) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockStore) SetAccountRemoteUserID(ctx context.Context, accountID int64, remoteUserID string) error {
	args := m.Called(ctx, accountID, remoteUserID)
	return args.Error(0)
}

func (m *mockStore) SaveCorrelation(ctx context.Context, record *models.CorrelationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockStore) GetCorrelationByLocalMsgID(ctx context.Context, localMsgID int64) (*models.CorrelationRecord, error) {
	args := m.Called(ctx, localMsgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CorrelationRecord), args.Error(1)
}

func (m *mockStore) TrimCorrelations(ctx context.Context, ceiling int64) (int64, error) {
	args := m.Called(ctx, ceiling)
	return args.Get(0).(int64), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Authenticate(ctx context.Context, clientID, clientSecret string) (*types.TokenResponse, error) {
	args := m.Called(ctx, clientID, clientSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenResponse), args.Error(1)
}

func (m *mockGateway) GetSelf(ctx context.Context, token string) (*types.SelfInfo, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SelfInfo), args.Error(1)
}

func (m *mockGateway) ListUnreadConversations(ctx context.Context, token, remoteUserID string) ([]types.Conversation, error) {
	args := m.Called(ctx, token, remoteUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Conversation), args.Error(1)
}

func (m *mockGateway) ListMessages(ctx context.Context, token, remoteUserID, conversationID string) ([]types.Message, error) {
	args := m.Called(ctx, token, remoteUserID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Message), args.Error(1)
}

func (m *mockGateway) SendMessage(ctx context.Context, token, remoteUserID, conversationID, text string) (*types.SendMessageResponse, error) {
	args := m.Called(ctx, token, remoteUserID, conversationID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SendMessageResponse), args.Error(1)
}

func (m *mockGateway) MarkRead(ctx context.Context, token, remoteUserID, conversationID string) error {
	args := m.Called(ctx, token, remoteUserID, conversationID)
	return args.Error(0)
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) SendText(ctx context.Context, chatID int64, text string) (*chat.SendResult, error) {
	args := m.Called(ctx, chatID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.SendResult), args.Error(1)
}
