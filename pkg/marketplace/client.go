package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"avigram/pkg/marketplace/types"

	"github.com/sirupsen/logrus"
)

// MarketplaceClient talks to the marketplace messenger HTTP API. The token
// endpoint can live on a different host than the messenger endpoints, so it
// is configured separately.
type MarketplaceClient struct {
	baseURL  string
	tokenURL string
	client   *http.Client
	logger   *logrus.Logger
}

func NewClient(baseURL, tokenURL string, httpClient *http.Client) types.Client {
	return NewClientWithLogger(baseURL, tokenURL, httpClient, nil)
}

func NewClientWithLogger(baseURL, tokenURL string, httpClient *http.Client, logger *logrus.Logger) types.Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	if tokenURL == "" {
		tokenURL = baseURL + "/token/"
	}

	return &MarketplaceClient{
		baseURL:  baseURL,
		tokenURL: tokenURL,
		client:   httpClient,
		logger:   logger,
	}
}

func (c *MarketplaceClient) Authenticate(ctx context.Context, clientID, clientSecret string) (*types.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token endpoint error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result types.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint response missing access_token")
	}

	return &result, nil
}

func (c *MarketplaceClient) GetSelf(ctx context.Context, token string) (*types.SelfInfo, error) {
	endpoint := fmt.Sprintf("%s/core/v1/accounts/self", c.baseURL)

	var result types.SelfInfo
	if err := c.getJSON(ctx, endpoint, token, &result); err != nil {
		return nil, err
	}

	if result.ID == "" {
		return nil, fmt.Errorf("self endpoint response missing account id")
	}

	return &result, nil
}

func (c *MarketplaceClient) ListUnreadConversations(ctx context.Context, token, remoteUserID string) ([]types.Conversation, error) {
	endpoint := fmt.Sprintf("%s/messenger/v2/accounts/%s/chats?unread_only=true",
		c.baseURL, url.PathEscape(remoteUserID))

	c.logger.WithField("remoteUserId", remoteUserID).Debug("Listing unread conversations")

	var result types.ListConversationsResponse
	if err := c.getJSON(ctx, endpoint, token, &result); err != nil {
		return nil, err
	}

	return result.Chats, nil
}

func (c *MarketplaceClient) ListMessages(ctx context.Context, token, remoteUserID, conversationID string) ([]types.Message, error) {
	endpoint := fmt.Sprintf("%s/messenger/v3/accounts/%s/chats/%s/messages/",
		c.baseURL, url.PathEscape(remoteUserID), url.PathEscape(conversationID))

	var result types.ListMessagesResponse
	if err := c.getJSON(ctx, endpoint, token, &result); err != nil {
		return nil, err
	}

	return result.Messages, nil
}

func (c *MarketplaceClient) SendMessage(ctx context.Context, token, remoteUserID, conversationID, text string) (*types.SendMessageResponse, error) {
	endpoint := fmt.Sprintf("%s/messenger/v1/accounts/%s/chats/%s/messages",
		c.baseURL, url.PathEscape(remoteUserID), url.PathEscape(conversationID))

	payload := map[string]interface{}{
		"message": map[string]string{"text": text},
		"type":    "text",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("marketplace API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result types.SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

func (c *MarketplaceClient) MarkRead(ctx context.Context, token, remoteUserID, conversationID string) error {
	endpoint := fmt.Sprintf("%s/messenger/v1/accounts/%s/chats/%s/read",
		c.baseURL, url.PathEscape(remoteUserID), url.PathEscape(conversationID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("marketplace API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

func (c *MarketplaceClient) getJSON(ctx context.Context, endpoint, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("marketplace API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
