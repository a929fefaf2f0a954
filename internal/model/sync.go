package model

// SyncStatus is the outcome of publishing one event to the record store.
type SyncStatus string

const (
	SyncStatusCreated SyncStatus = "created"
	SyncStatusUpdated SyncStatus = "updated"
	SyncStatusSkipped SyncStatus = "skipped"
	SyncStatusError   SyncStatus = "error"
)

// SyncResult reports what happened to a single event during publishing.
type SyncResult struct {
	Status  SyncStatus `json:"status"`
	Name    string     `json:"name"`
	Message string     `json:"message"`
	Details string     `json:"details,omitempty"`
}

// Synced reports whether the event was written to the record store.
func (r SyncResult) Synced() bool {
	return r.Status == SyncStatusCreated || r.Status == SyncStatusUpdated
}
