package service

import (
	"fmt"
	"time"

	"avigram/pkg/marketplace/types"
)

const unknownSenderLabel = "Unknown sender"

// SelectForwardCandidate returns the single most recent unread message from
// a conversation's message list, or nil when everything is read. The list is
// ordered oldest to newest; the scan runs newest to oldest and stops at the
// first unread message. Forwarding only one message per conversation per
// tick is a deliberate throughput cap, not an oversight.
func SelectForwardCandidate(messages []types.Message) *types.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		if !messages[i].IsRead {
			return &messages[i]
		}
	}
	return nil
}

// ResolveSenderIdentity determines who authored the message. It prefers the
// message's embedded author field, falls back to the participant that is not
// the operator, and finally falls back to the operator's own identity for
// system messages with no counterpart.
func ResolveSenderIdentity(msg *types.Message, participants []types.ConversationUser, ownRemoteID string) string {
	if msg.Author != nil && msg.Author.ID != "" {
		return msg.Author.ID
	}

	for _, user := range participants {
		if user.ID != ownRemoteID {
			return user.ID
		}
	}

	return ownRemoteID
}

// ResolveSenderName maps a sender identity to a display name from the
// participant list, with a placeholder when the counterpart is unknown.
func ResolveSenderName(senderID string, participants []types.ConversationUser, ownRemoteID string) string {
	for _, user := range participants {
		if user.ID == senderID && user.Name != "" {
			return user.Name
		}
	}

	if senderID == ownRemoteID {
		return "You"
	}
	return unknownSenderLabel
}

// counterpartProfileURL returns the public profile link of the first
// participant that is not the operator, if the API provided one.
func counterpartProfileURL(participants []types.ConversationUser, ownRemoteID string) string {
	for _, user := range participants {
		if user.ID != ownRemoteID && user.PublicProfile != nil {
			return user.PublicProfile.URL
		}
	}
	return ""
}

// FormatForwardText renders a marketplace message for the chat surface.
func FormatForwardText(senderName, text string, created time.Time, profileURL string) string {
	formatted := fmt.Sprintf("📨 *New message from %s*\n\n💬 _%s_\n\n🕒 %s",
		senderName, text, created.Format("02.01.2006 15:04"))

	if profileURL != "" {
		formatted += fmt.Sprintf("\n👉 [Sender profile](%s)", profileURL)
	}

	return formatted
}
