package models

import "time"

// PresenceState is a user's transient connectivity state. There are no
// intermediate states ("away" etc.).
type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceOffline PresenceState = "offline"
)

// PresenceRecord is the authoritative presence value for a user. LastChanged
// is always server-assigned, including on ungraceful disconnects, so readers
// can trust it even when a client died without saying goodbye.
type PresenceRecord struct {
	UID         string        `json:"uid"`
	State       PresenceState `json:"state"`
	LastChanged time.Time     `json:"lastChanged"`
}
