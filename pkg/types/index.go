package types

import (
	"encoding/json"
	"fmt"
)

// ItemKind tags a ListItem as holding a board or a folder.
type ItemKind string

// Index item kinds. The values are also the item_type column values and the
// "type" discriminator in JSON.
const (
	KindBoard  ItemKind = "board"
	KindFolder ItemKind = "folder"
)

// ListItem is one position of the top-level index. Exactly one of Board and
// Folder is set, selected by Kind.
type ListItem struct {
	Kind   ItemKind
	Board  *Board
	Folder *Folder
}

// BoardItem wraps a board as a top-level index item.
func BoardItem(b Board) ListItem {
	return ListItem{Kind: KindBoard, Board: &b}
}

// FolderItem wraps a folder as a top-level index item.
func FolderItem(f Folder) ListItem {
	return ListItem{Kind: KindFolder, Folder: &f}
}

// ID returns the id of the board or folder held by the item.
func (it ListItem) ID() string {
	switch it.Kind {
	case KindBoard:
		if it.Board != nil {
			return it.Board.ID
		}
	case KindFolder:
		if it.Folder != nil {
			return it.Folder.ID
		}
	}
	return ""
}

type boardItemJSON struct {
	Type ItemKind `json:"type"`
	Board
}

type folderItemJSON struct {
	Type ItemKind `json:"type"`
	Folder
}

// MarshalJSON encodes the item with a "type" discriminator and the board or
// folder fields inline.
func (it ListItem) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case KindBoard:
		if it.Board == nil {
			return nil, fmt.Errorf("board item without board: %w", ErrInvalidIndex)
		}
		return json.Marshal(boardItemJSON{Type: KindBoard, Board: *it.Board})
	case KindFolder:
		if it.Folder == nil {
			return nil, fmt.Errorf("folder item without folder: %w", ErrInvalidIndex)
		}
		f := *it.Folder
		if f.Items == nil {
			f.Items = []Board{}
		}
		return json.Marshal(folderItemJSON{Type: KindFolder, Folder: f})
	default:
		return nil, fmt.Errorf("unknown item kind %q: %w", it.Kind, ErrInvalidIndex)
	}
}

// UnmarshalJSON decodes an item written by MarshalJSON or by the legacy
// index file, which uses the same shape.
func (it *ListItem) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ItemKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decoding index item: %w: %w", ErrMalformedInput, err)
	}

	switch head.Type {
	case KindBoard:
		var b Board
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decoding board item: %w: %w", ErrMalformedInput, err)
		}
		*it = BoardItem(b)
	case KindFolder:
		var f Folder
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decoding folder item: %w: %w", ErrMalformedInput, err)
		}
		*it = FolderItem(f)
	default:
		return fmt.Errorf("unknown index item type %q: %w", head.Type, ErrMalformedInput)
	}
	return nil
}

// Index is the ordered top-level list of boards and folders plus the active
// board. ActiveBoardID is empty when no board is active.
type Index struct {
	Items         []ListItem `json:"items"`
	ActiveBoardID string     `json:"active_board_id"`
}

// indexJSON is the wire form of Index. A missing active board is null.
type indexJSON struct {
	Items         []ListItem `json:"items"`
	ActiveBoardID *string    `json:"active_board_id"`
}

// MarshalJSON writes "active_board_id": null when no board is active.
func (x Index) MarshalJSON() ([]byte, error) {
	out := indexJSON{Items: x.Items}
	if out.Items == nil {
		out.Items = []ListItem{}
	}
	if x.ActiveBoardID != "" {
		out.ActiveBoardID = &x.ActiveBoardID
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a null, empty, or missing active board as none.
func (x *Index) UnmarshalJSON(data []byte) error {
	var in indexJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	x.Items = in.Items
	x.ActiveBoardID = ""
	if in.ActiveBoardID != nil {
		x.ActiveBoardID = *in.ActiveBoardID
	}
	return nil
}

// Contains reports whether the board is reachable from the index, either at
// the top level or inside a folder.
func (x *Index) Contains(boardID string) bool {
	for _, it := range x.Items {
		switch it.Kind {
		case KindBoard:
			if it.Board != nil && it.Board.ID == boardID {
				return true
			}
		case KindFolder:
			if it.Folder == nil {
				continue
			}
			for _, b := range it.Folder.Items {
				if b.ID == boardID {
					return true
				}
			}
		}
	}
	return false
}

// FirstBoardID returns the first reachable board in index order. A folder
// contributes its first member; empty folders are passed over. It returns ""
// when the index holds no boards.
func (x *Index) FirstBoardID() string {
	for _, it := range x.Items {
		switch it.Kind {
		case KindBoard:
			if it.Board != nil {
				return it.Board.ID
			}
		case KindFolder:
			if it.Folder != nil && len(it.Folder.Items) > 0 {
				return it.Folder.Items[0].ID
			}
		}
	}
	return ""
}

// ResolveActive returns candidate if it is reachable, otherwise the first
// reachable board.
func (x *Index) ResolveActive(candidate string) string {
	if candidate != "" && x.Contains(candidate) {
		return candidate
	}
	return x.FirstBoardID()
}

// Normalize resolves ActiveBoardID against the items and reports whether it
// changed.
func (x *Index) Normalize() bool {
	next := x.ResolveActive(x.ActiveBoardID)
	if next == x.ActiveBoardID {
		return false
	}
	x.ActiveBoardID = next
	return true
}

// Boards returns every board in walk order: top-level boards and folder
// contents in index order. A board reachable more than once is returned at
// its first occurrence only.
func (x *Index) Boards() []Board {
	seen := make(map[string]bool)
	var out []Board
	add := func(b Board) {
		if seen[b.ID] {
			return
		}
		seen[b.ID] = true
		out = append(out, b)
	}

	for _, it := range x.Items {
		switch it.Kind {
		case KindBoard:
			if it.Board != nil {
				add(*it.Board)
			}
		case KindFolder:
			if it.Folder == nil {
				continue
			}
			for _, b := range it.Folder.Items {
				add(b)
			}
		}
	}
	return out
}

// ValidateItems checks the structural rules of an item list before it is
// written: every item carries its payload, ids are non-empty, each id appears
// at most once at the top level, and a board belongs to at most one folder.
func ValidateItems(items []ListItem) error {
	topLevel := make(map[string]bool)
	memberOf := make(map[string]string)

	for i, it := range items {
		switch it.Kind {
		case KindBoard:
			if it.Board == nil || it.Board.ID == "" {
				return fmt.Errorf("item %d: board id is empty: %w", i, ErrInvalidIndex)
			}
			if topLevel[it.Board.ID] {
				return fmt.Errorf("item %d: %s listed twice: %w", i, it.Board.ID, ErrInvalidIndex)
			}
			topLevel[it.Board.ID] = true
		case KindFolder:
			if it.Folder == nil || it.Folder.ID == "" {
				return fmt.Errorf("item %d: folder id is empty: %w", i, ErrInvalidIndex)
			}
			if topLevel[it.Folder.ID] {
				return fmt.Errorf("item %d: %s listed twice: %w", i, it.Folder.ID, ErrInvalidIndex)
			}
			topLevel[it.Folder.ID] = true
			for _, b := range it.Folder.Items {
				if b.ID == "" {
					return fmt.Errorf("folder %s: board id is empty: %w", it.Folder.ID, ErrInvalidIndex)
				}
				if other, ok := memberOf[b.ID]; ok {
					if other == it.Folder.ID {
						return fmt.Errorf("board %s listed twice in folder %s: %w", b.ID, other, ErrInvalidIndex)
					}
					return fmt.Errorf("board %s is in folders %s and %s: %w", b.ID, other, it.Folder.ID, ErrInvalidIndex)
				}
				memberOf[b.ID] = it.Folder.ID
			}
		default:
			return fmt.Errorf("item %d: unknown kind %q: %w", i, it.Kind, ErrInvalidIndex)
		}
	}
	return nil
}
