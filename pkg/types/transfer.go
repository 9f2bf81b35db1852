package types

import (
	"encoding/json"
	"time"
)

// ExportVersion is the only export file version this package reads and writes.
const ExportVersion = 1

// ImportedBoardName replaces a blank board name on import.
const ImportedBoardName = "Imported board"

// ExportFile is the portable, versioned representation of every board.
type ExportFile struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Boards     []ExportEntry `json:"boards"`
}

// ExportEntry is one board with its document. Data holds the parsed document,
// or JSON null when the stored document was not valid JSON.
type ExportEntry struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CollaborationLink *string         `json:"collaboration_link"`
	Thumbnail         *string         `json:"thumbnail"`
	Data              json.RawMessage `json:"data"`
}

// HasData reports whether the entry carries a non-null document.
func (e *ExportEntry) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// ImportResult counts the outcome of an import. Skipped entries are those
// whose board could not be created.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
