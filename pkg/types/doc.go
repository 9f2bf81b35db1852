// Package types defines the board, folder, and index types shared by the
// storage backend, the export/import layer, and the CLI, together with the
// standard errors they return.
//
// The index is the ordered top-level list of boards and folders. Folders hold
// their own ordered list of boards. The active board is carried on the Index
// value and is recomputed on every read rather than cached.
package types
