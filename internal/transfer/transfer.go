// Package transfer moves boards between a board store and the portable
// export file.
//
// An export file holds every board reachable from the index together with
// its document. Importing creates new boards from a chosen subset of the
// entries; ids from the file are never reused.
package transfer

import "github.com/mesh-intelligence/easel/pkg/types"

// Store is the subset of the board store that export and import use.
type Store interface {
	GetBoards() (*types.Index, error)
	LoadDocument(id string) (string, error)
	BoardNames() (map[string]string, error)
	ActiveBoardID() (string, error)
	RestoreActiveBoard(id string) error
	CreateBoard(name string) (*types.Board, error)
	SaveDocument(id, document string) error
}
