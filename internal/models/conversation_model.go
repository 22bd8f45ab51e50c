package models

import "time"

// Conversation is the summary record kept per pairwise chat for list views.
// The document ID is the deterministic pair ID (sorted UIDs joined by "_"),
// so it is kept out of the stored document.
//
// The summary fields are last-writer-wins: either participant overwrites them
// on every send, with no coordination beyond the field merge.
type Conversation struct {
	ID           string    `json:"id" firestore:"-"`
	Participants []string  `json:"participants" firestore:"participants"`
	LastMessage  string    `json:"lastMessage" firestore:"lastMessage"`
	LastUpdated  time.Time `json:"lastUpdated" firestore:"lastUpdated"`
}

// OtherParticipant returns the participant that is not self.
// Falls back to an empty string when self is not part of the conversation.
func (c *Conversation) OtherParticipant(self string) string {
	for _, p := range c.Participants {
		if p != self {
			return p
		}
	}
	return ""
}

// ConversationSummary is a Conversation with the other participant's profile
// denormalized in, as list views render the peer's name/photo/presence.
type ConversationSummary struct {
	Conversation
	Peer *User `json:"peer,omitempty" firestore:"-"`
}
