package models

// SyncEntry links one local task id to its mirrored tracker item. Once an
// entry exists the sync engine only ever updates the existing item; it
// never creates a second one for the same task id.
type SyncEntry struct {
	IssueNumber int    `json:"externalIssueId"`
	ItemID      string `json:"externalItemId"`
	IssueURL    string `json:"externalUrl"`
}

// SyncMapping is the per-migration mapping document persisted next to the
// task ledger (.sync.json).
type SyncMapping struct {
	LastSyncedAt string               `json:"lastSyncedAt"`
	Tasks        map[string]SyncEntry `json:"tasks"`
}

// NewSyncMapping returns an empty mapping ready for use.
func NewSyncMapping() *SyncMapping {
	return &SyncMapping{Tasks: make(map[string]SyncEntry)}
}
