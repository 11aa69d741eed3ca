package repo

import (
	"context"
	"fmt"
)

// RevisionSuffix marks a stamp as coming from a patched build of the upstream checkout.
const RevisionSuffix = "-patched"

// stampLength is the number of revision characters kept in a stamp.
const stampLength = 10

// Revision represents a specific git point-in-time (tag or hash).
type Revision string

func (r Revision) String() string { return string(r) }

// Short returns at most n leading characters of the revision.
func (r Revision) Short(n int) string {
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

// Revisioner reports the revision checked out in a directory.
type Revisioner interface {
	// HeadRevision returns the commit currently checked out in dir.
	HeadRevision(ctx context.Context, dir string) (Revision, error)
}

// Stamp derives the build stamp for the checkout in dir: the first ten characters
// of its HEAD revision followed by RevisionSuffix.
//
// The returned stamp is always usable. When the revision cannot be determined the
// stamp is empty and the error says why; callers treat that error as informational.
func Stamp(ctx context.Context, r Revisioner, dir string) (string, error) {
	rev, err := r.HeadRevision(ctx, dir)
	if err != nil {
		return "", err
	}
	if rev == "" {
		return "", fmt.Errorf("empty revision reported for %s", dir)
	}
	return rev.Short(stampLength) + RevisionSuffix, nil
}
