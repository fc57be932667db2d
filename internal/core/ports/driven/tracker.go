package driven

import (
	"context"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// FingerprintTracker detects document changes by content hash.
type FingerprintTracker interface {
	// Scan enumerates documents under roots and reports those whose
	// fingerprint is new or different, and previously known paths that
	// are gone. The known set is replaced by this enumeration.
	Scan(ctx context.Context, roots []string) (domain.ScanResult, error)

	// Forget drops a path from the known set so the next Scan reports it
	// as changed.
	Forget(path string)

	// Known returns the tracked paths and their last fingerprints.
	Known() map[string]string
}
