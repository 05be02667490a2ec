package models

// Selfie candidate statuses. A candidate only ever moves forward:
// pending -> matched or pending -> expired.
const (
	CandidateStatusPending = "pending"
	CandidateStatusMatched = "matched"
	CandidateStatusExpired = "expired"
)

// Connection statuses
const (
	ConnectionStatusPending = "pending"
	ConnectionStatusActive  = "active"
	ConnectionStatusBlocked = "blocked"
)

// Connection types
const (
	ConnectionTypeVibeMatch = "vibe_match"
)
