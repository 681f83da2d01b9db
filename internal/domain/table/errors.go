package table

import "errors"

// Sentinel kinds for table construction errors.
var (
	ErrRaggedColumns   = errors.New("columns have different lengths")
	ErrDuplicateColumn = errors.New("duplicate column name")
)
