package service

import (
	"testing"
	"time"

	"avigram/pkg/marketplace/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectForwardCandidate(t *testing.T) {
	tests := []struct {
		name     string
		messages []types.Message
		wantID   string
	}{
		{
			name:     "empty list",
			messages: nil,
			wantID:   "",
		},
		{
			name: "all read",
			messages: []types.Message{
				{ID: "m1", IsRead: true},
				{ID: "m2", IsRead: true},
			},
			wantID: "",
		},
		{
			name: "single unread",
			messages: []types.Message{
				{ID: "m1", IsRead: true},
				{ID: "m2", IsRead: false},
			},
			wantID: "m2",
		},
		{
			name: "newest unread wins over older unread",
			messages: []types.Message{
				{ID: "m1", IsRead: false},
				{ID: "m2", IsRead: false},
				{ID: "m3", IsRead: false},
			},
			wantID: "m3",
		},
		{
			name: "read tail does not hide earlier unread",
			messages: []types.Message{
				{ID: "m1", IsRead: false},
				{ID: "m2", IsRead: true},
			},
			wantID: "m1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectForwardCandidate(tt.messages)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestResolveSenderIdentity(t *testing.T) {
	participants := []types.ConversationUser{
		{ID: "me", Name: "Operator"},
		{ID: "buyer", Name: "Alice"},
	}

	tests := []struct {
		name string
		msg  types.Message
		want string
	}{
		{
			name: "author field wins",
			msg:  types.Message{Author: &types.MessageAuthor{ID: "buyer"}},
			want: "buyer",
		},
		{
			name: "missing author falls back to counterpart",
			msg:  types.Message{},
			want: "buyer",
		},
		{
			name: "empty author id falls back to counterpart",
			msg:  types.Message{Author: &types.MessageAuthor{ID: ""}},
			want: "buyer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSenderIdentity(&tt.msg, participants, "me")
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no counterpart falls back to own identity", func(t *testing.T) {
		only := []types.ConversationUser{{ID: "me", Name: "Operator"}}
		got := ResolveSenderIdentity(&types.Message{}, only, "me")
		assert.Equal(t, "me", got)
	})
}

func TestResolveSenderName(t *testing.T) {
	participants := []types.ConversationUser{
		{ID: "me", Name: "Operator"},
		{ID: "buyer", Name: "Alice"},
		{ID: "ghost"},
	}

	assert.Equal(t, "Alice", ResolveSenderName("buyer", participants, "me"))
	assert.Equal(t, "Operator", ResolveSenderName("me", participants, "me"))
	assert.Equal(t, "Unknown sender", ResolveSenderName("ghost", participants, "me"))
	assert.Equal(t, "Unknown sender", ResolveSenderName("stranger", participants, "me"))
	assert.Equal(t, "You", ResolveSenderName("me", nil, "me"))
}

func TestCounterpartProfileURL(t *testing.T) {
	participants := []types.ConversationUser{
		{ID: "me"},
		{ID: "buyer", PublicProfile: &types.PublicProfile{URL: "https://example.com/buyer"}},
	}

	assert.Equal(t, "https://example.com/buyer", counterpartProfileURL(participants, "me"))
	assert.Equal(t, "", counterpartProfileURL([]types.ConversationUser{{ID: "me"}}, "me"))
	assert.Equal(t, "", counterpartProfileURL(nil, "me"))
}

func TestFormatForwardText(t *testing.T) {
	created := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	got := FormatForwardText("Alice", "Is it still available?", created, "")
	assert.Contains(t, got, "New message from Alice")
	assert.Contains(t, got, "Is it still available?")
	assert.Contains(t, got, "15.03.2024 09:30")
	assert.NotContains(t, got, "Sender profile")

	got = FormatForwardText("Alice", "Hi", created, "https://example.com/alice")
	assert.Contains(t, got, "[Sender profile](https://example.com/alice)")
}
