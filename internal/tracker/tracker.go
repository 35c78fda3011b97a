// Package tracker defines the narrow interface the sync engine uses to talk
// to an external project board, plus the GitHub implementation. Transport
// failures are returned per call; the sync engine decides what is fatal.
package tracker

import "context"

// Issue identifies a created tracker item.
type Issue struct {
	Number int
	URL    string
	NodeID string
}

// BoardItem is one item currently on the external board.
type BoardItem struct {
	ItemID    string `json:"itemId"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	SourceRef string `json:"sourceRef,omitempty"`
}

// ColumnOption is one single-select status option on the board.
type ColumnOption struct {
	Name     string `json:"name"`
	OptionID string `json:"optionId"`
}

// Client is the external tracker surface consumed by the sync engine.
// Implementations own authentication; callers only interpret errors.
type Client interface {
	// CreateItem creates a tracker item (a repository issue on GitHub).
	CreateItem(ctx context.Context, title, body string, labels []string) (*Issue, error)

	// AddItemToBoard attaches an existing item to the board and returns the
	// board-scoped item id used by MoveItem.
	AddItemToBoard(ctx context.Context, boardID, itemURL string) (string, error)

	// MoveItem sets the item's status field to the given column option.
	MoveItem(ctx context.Context, boardID, itemID, fieldID, optionID string) error

	// ListBoardItems returns the items currently on the board.
	ListBoardItems(ctx context.Context, owner string, boardNumber int) ([]BoardItem, error)

	// CommentOnItem adds a comment to an item.
	CommentOnItem(ctx context.Context, itemNumber int, text string) error

	// CloseItem closes an item. Closing is terminal; this client never
	// reopens items.
	CloseItem(ctx context.Context, itemNumber int) error

	// GetBoardColumns returns the board's status columns and option ids.
	GetBoardColumns(ctx context.Context, boardID string) ([]ColumnOption, error)
}
