package catalog

// Item is a tracked file-system entry. The engine treats items as
// read-only; ownership of the table stays with whatever keeps it up to
// date (the scanner, in this repo).
type Item struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Name       string `json:"name"`
	IsDir      bool   `json:"isDir"`
	Size       int64  `json:"size"` // meaningless when IsDir; stored as NULL
	ModifiedAt int64  `json:"modifiedAt"` // epoch milliseconds
	CreatedAt  int64  `json:"createdAt"`  // epoch milliseconds
}

// TagGroup is a named grouping of tags. Tag text is unique within a
// group but may repeat across groups.
type TagGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Tag is a user-defined label inside a group.
type Tag struct {
	ID      int64  `json:"id"`
	GroupID int64  `json:"groupId"`
	Value   string `json:"value"`
}

// TagRef identifies a resolved tag.
type TagRef struct {
	TagID   int64
	GroupID int64
}
