package domain

// ArchivedRecord is an extraction record persisted to the opt-in archive.
// The archive is a separate log; it never feeds back into a session ledger.
type ArchivedRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
	ExtractionRecord
}
