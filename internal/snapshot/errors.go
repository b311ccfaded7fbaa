package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Kind classifies snapshot failures.
type Kind int

const (
	KindFailure Kind = iota
	KindBrowserNotFound
	KindPathNotFound
	KindPermissionDenied
	KindLocked
)

func (k Kind) String() string {
	switch k {
	case KindBrowserNotFound:
		return "browser_not_found"
	case KindPathNotFound:
		return "path_not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindLocked:
		return "locked"
	default:
		return "failure"
	}
}

// Error is returned for failures of the snapshot itself, as opposed to
// failures of the work run against it.
type Error struct {
	Kind    Kind
	Browser string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBrowserNotFound:
		return fmt.Sprintf("Could not find %s history", e.Browser)
	case KindPathNotFound:
		return fmt.Sprintf("Could not find %s history at %s", e.Browser, e.Path)
	case KindPermissionDenied:
		return fmt.Sprintf("Permission denied accessing %s history at %s", e.Browser, e.Path)
	case KindLocked:
		return fmt.Sprintf("Unable to access %s history database (locked)", e.Browser)
	default:
		if e.Err != nil {
			return fmt.Sprintf("Failed to open %s history snapshot: %v", e.Browser, e.Err)
		}
		return fmt.Sprintf("Failed to open %s history snapshot", e.Browser)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a snapshot Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

// isLocked reports whether err is SQLite signalling a busy or locked database.
func isLocked(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}
