package backup

import "errors"

var (
	// ErrUnsupportedVersion means the snapshot's version is outside the
	// range this codec can import.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")

	// ErrCorrupt means the snapshot failed validation. Import checks
	// everything before touching the database, so a corrupt snapshot
	// never destroys existing data.
	ErrCorrupt = errors.New("corrupt snapshot")
)
