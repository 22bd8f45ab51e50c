package models

import "time"

// FriendEdge is a directed contact edge: owner added friend. Adding a friend
// does not imply reciprocity. Stored at users/{owner}/friends/{friend}, so
// FriendUID is both a field and the document ID.
type FriendEdge struct {
	FriendUID string    `json:"uid" firestore:"uid"`
	AddedAt   time.Time `json:"addedAt" firestore:"addedAt"`
}

// Friend pairs a contact edge with the resolved profile for list responses.
type Friend struct {
	User    *User     `json:"user"`
	AddedAt time.Time `json:"addedAt"`
}
