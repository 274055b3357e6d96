package cursor

import "errors"

var (
	// ErrMissingDependency is returned when a further page is needed but no
	// fetcher was attached to the cursor.
	ErrMissingDependency = errors.New("cursor: fetcher is not attached")
	// ErrDataGap is returned when the remote reports more records but hands
	// back no records and no way to continue.
	ErrDataGap = errors.New("cursor: remote reported more records but returned none")
	// ErrNoMoreRecords is returned by Next on an exhausted cursor.
	ErrNoMoreRecords = errors.New("cursor: no more records")
)
