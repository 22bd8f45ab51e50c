package models

import "time"

// Sender identifies the author of a message, denormalized into the message
// document so history renders without a join.
type Sender struct {
	ID   string `json:"id" firestore:"id"`
	Name string `json:"name" firestore:"name"`
}

// Message is a single chat message. Messages are append-only and immutable:
// there is no edit or delete operation anywhere in the system.
// CreatedAt is assigned server-side on write and is the sole ordering key
// within a conversation.
type Message struct {
	ID        string    `json:"id" firestore:"-"` // document ID, auto-generated
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	Sender    Sender    `json:"sender" firestore:"sender"`
}
