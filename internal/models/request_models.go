package models

// SendMessageRequest is the request body for sending a chat message.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// UpdateProfileRequest carries partial profile edits. Pointers distinguish
// "not provided" from "clear this field".
type UpdateProfileRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// RegisterFCMTokenRequest registers (or replaces) the caller's device push token.
type RegisterFCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// AddFriendRequest adds a contact edge from the caller to FriendUID.
type AddFriendRequest struct {
	FriendUID string `json:"friendUid" binding:"required"`
}
