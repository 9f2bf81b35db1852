package types

// BoardStore is the backend-agnostic board storage API. Callers attach to a
// store, run operations, and detach when done. Every mutating operation is
// atomic: on error nothing is changed.
type BoardStore interface {
	// Attach opens the store described by config, creating it when missing.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach, every
	// operation returns ErrDetached.
	Detach() error

	// GetBoards returns the index with the active board resolved.
	GetBoards() (*Index, error)

	// SetBoardsIndex replaces the whole index and returns it as stored.
	SetBoardsIndex(items []ListItem) (*Index, error)

	CreateBoard(name string) (*Board, error)
	GetBoard(id string) (*Board, error)
	RenameBoard(id, name string) (*Board, error)
	DeleteBoard(id string) error
	DuplicateBoard(id, name string) (*Board, error)
	SetActiveBoard(id string) error
	SetCollaborationLink(id string, link *string) error
	SetThumbnail(id string, thumbnail *string) error

	// SaveDocument stores a board document verbatim.
	SaveDocument(id, document string) error

	// LoadDocument returns the stored document, or DefaultDocument when the
	// board has none.
	LoadDocument(id string) (string, error)
}
