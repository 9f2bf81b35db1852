package types

import "time"

// DefaultDocument is the document stored for a board that has never been
// saved: an empty canvas with no editor state.
const DefaultDocument = `{"excalidraw":null,"excalidraw-state":null}`

// Board is a named canvas. Its document lives in a separate blob keyed by ID.
type Board struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CollaborationLink *string   `json:"collaboration_link"`
	Thumbnail         *string   `json:"thumbnail"`
}

// Folder is a named, ordered group of boards shown as one unit in the index.
// A folder with no boards is treated as nonexistent.
type Folder struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Items []Board `json:"items"`
}

// Empty reports whether the folder has no member boards.
func (f *Folder) Empty() bool {
	return len(f.Items) == 0
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
