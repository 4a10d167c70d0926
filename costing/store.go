// store.go - Persistence interface for sheets and versions.
//
// Versions are keyed by (sheet, number) with numbers assigned by the
// lifecycle; the store enforces uniqueness. SaveVersion is guarded by the
// optimistic revision marker: the save succeeds only when the stored
// revision still equals expectedRevision, and bumps it by one.
package costing

import "context"

type Store interface {
	SaveSheet(ctx context.Context, sheet Sheet) error
	GetSheet(ctx context.Context, id SheetID) (Sheet, error)
	ListSheets(ctx context.Context) ([]Sheet, error)

	// CreateVersion inserts a new version with Revision 1. A version
	// with the same (sheet, number) already present returns
	// ErrConcurrentModification.
	CreateVersion(ctx context.Context, v Version) error

	// SaveVersion updates a version if its stored revision equals
	// expectedRevision, then writes expectedRevision+1 into v.Revision.
	// Mismatch returns ErrConcurrentModification.
	SaveVersion(ctx context.Context, v *Version, expectedRevision int64) error

	GetVersion(ctx context.Context, id VersionID) (Version, error)

	// VersionsBySheet returns a sheet's versions ordered by number.
	VersionsBySheet(ctx context.Context, id SheetID) ([]Version, error)
}
