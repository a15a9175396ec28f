package domain

import (
	"encoding/json"
	"time"
)

// HistoryEntry is an immutable snapshot of a definition taken after an
// edit. Entries are append-only and ordered by creation time.
type HistoryEntry struct {
	ID           string          `json:"id"`
	DefinitionID string          `json:"definition_id"`
	Snapshot     json.RawMessage `json:"snapshot"`
	CreatedAt    time.Time       `json:"created_at"`
}
