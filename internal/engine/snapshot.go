package engine

import (
	"context"
	"log"

	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
)

// Snapshot is a read-through view of the remote store, valid for one
// reconciliation pass.
type Snapshot struct {
	Records []remote.Record
	ByID    map[string]remote.Record
	ByKey   map[string]remote.Record

	// Complete is false when the fetch failed. An incomplete snapshot
	// means "nothing known remotely", never "no remote records exist":
	// classification that would create or archive anything is skipped
	// for the pass.
	Complete bool
}

// FetchSnapshot lists all remote records and indexes them by store key
// and by embedded identifier. Fetch failures degrade to an empty,
// incomplete snapshot instead of propagating.
//
// Records with a missing or malformed identifier are kept in Records and
// ByKey but excluded from ByID, so they are never mis-joined to a local
// marker by position.
func FetchSnapshot(ctx context.Context, store remote.Store, logger *log.Logger) Snapshot {
	snap := Snapshot{
		ByID:  make(map[string]remote.Record),
		ByKey: make(map[string]remote.Record),
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		logger.Printf("WARNING: remote fetch failed, degrading to unknown snapshot: %v", err)
		return snap
	}

	snap.Complete = true
	snap.Records = records

	for _, rec := range records {
		if rec.Key != "" {
			snap.ByKey[rec.Key] = rec
		}
		if !marker.ValidToken(rec.ID) {
			continue
		}
		if _, dup := snap.ByID[rec.ID]; dup {
			// One identifier selects at most one remote record; keep the
			// first and leave the duplicate unmatched.
			logger.Printf("WARNING: duplicate remote records for id %s, ignoring %s", rec.ID, rec.Key)
			continue
		}
		snap.ByID[rec.ID] = rec
	}

	return snap
}
