package core

import "strings"

// conversationIDSeparator joins the two participant UIDs. Firebase Auth UIDs
// never contain an underscore, which keeps pair IDs collision-free; IDs that
// do are rejected outright.
const conversationIDSeparator = "_"

// ResolveConversationID derives the canonical conversation ID for a pair of
// users: the two UIDs sorted lexicographically and joined with "_". The
// result is invariant under argument order, so both participants always
// address the same conversation document.
//
// Self-conversations are rejected rather than left undefined.
func ResolveConversationID(uidA, uidB string) (string, error) {
	uidA = strings.TrimSpace(uidA)
	uidB = strings.TrimSpace(uidB)
	if uidA == "" || uidB == "" {
		return "", NewValidationError(map[string]string{"uid": "both participant uids are required"})
	}
	if uidA == uidB {
		return "", ErrSelfConversation
	}
	if strings.Contains(uidA, conversationIDSeparator) || strings.Contains(uidB, conversationIDSeparator) {
		return "", NewValidationError(map[string]string{"uid": "uid must not contain '" + conversationIDSeparator + "'"})
	}
	if uidA > uidB {
		uidA, uidB = uidB, uidA
	}
	return uidA + conversationIDSeparator + uidB, nil
}

// ParseConversationID splits a canonical conversation ID back into its two
// participant UIDs, rejecting anything that ResolveConversationID could not
// have produced.
func ParseConversationID(id string) (string, string, error) {
	parts := strings.Split(id, conversationIDSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] >= parts[1] {
		return "", "", NewValidationError(map[string]string{"conversationId": "malformed conversation id"})
	}
	return parts[0], parts[1], nil
}
