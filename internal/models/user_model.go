package models

import "time"

// User represents a chat user profile.
// The UID (Firebase Auth UID) doubles as the Firestore document ID; it is
// also stored inside the document so membership ("in") queries can match on it.
type User struct {
	UID         string    `json:"uid" firestore:"uid"`
	Name        string    `json:"name" firestore:"name"`
	Email       string    `json:"email,omitempty" firestore:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty" firestore:"phoneNumber,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
	FCMToken    string    `json:"-" firestore:"fcmToken,omitempty"` // device push token, never exposed via API
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
