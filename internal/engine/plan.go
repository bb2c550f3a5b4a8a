// Package engine implements the reconciliation core: diffing extracted
// markers against the local cache and a remote snapshot, classifying each
// into create/update/archive/no-op, and applying the resulting operation
// lists with partial-failure isolation.
package engine

import (
	"sort"

	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
)

// OpKind classifies a planned operation.
type OpKind int

const (
	// OpCreate adds a remote record for a newly stamped local marker.
	OpCreate OpKind = iota
	// OpUpdate rewrites the remote record's observable fields.
	OpUpdate
	// OpArchive soft-deletes the remote record after its local marker
	// disappeared.
	OpArchive
	// OpLocalUpdate rewrites a local line's free text from the remote.
	OpLocalUpdate
	// OpLocalDelete removes a local line whose remote record is archived.
	OpLocalDelete
)

// String returns a human-readable operation name.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpArchive:
		return "archive"
	case OpLocalUpdate:
		return "local-update"
	case OpLocalDelete:
		return "local-delete"
	default:
		return "unknown"
	}
}

// RemoteOp is one planned mutation against the remote store.
type RemoteOp struct {
	Kind      OpKind
	Record    marker.Record
	RemoteKey string // set for update and archive
}

// LocalOp is one planned mutation against a local buffer.
type LocalOp struct {
	Kind    OpKind
	ID      string
	Line    int    // 0-based index computed before any edits apply
	NewText string // full replacement line, set for local-update
}

// PlanPush classifies the push (local -> remote) direction.
//
// Every assigned local record is matched against the remote index by
// identifier: absent means create, field drift means update, otherwise
// no-op. Cached identifiers that vanished from the current extraction are
// classified as archive. Unassigned records are never classified; the
// stamper must have run first.
func PlanPush(local []marker.Record, cached map[string]marker.Record, remoteByID map[string]remote.Record) []RemoteOp {
	var ops []RemoteOp

	present := make(map[string]bool, len(local))
	for _, r := range local {
		if !r.Assigned() {
			continue
		}
		present[r.ID] = true

		rr, ok := remoteByID[r.ID]
		if !ok {
			ops = append(ops, RemoteOp{Kind: OpCreate, Record: r})
			continue
		}
		if pushDiffers(r, rr) {
			ops = append(ops, RemoteOp{Kind: OpUpdate, Record: r, RemoteKey: rr.Key})
		}
	}

	// Cached but now missing: the local marker was removed, so the remote
	// record is archived, never hard-deleted.
	gone := make([]string, 0, len(cached))
	for id := range cached {
		if !present[id] {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)

	for _, id := range gone {
		rr, ok := remoteByID[id]
		if !ok {
			// Nothing remote to archive; the cache entry dies with the
			// wholesale replacement at the end of the pass.
			continue
		}
		if rr.Status == marker.StatusArchived {
			continue
		}
		ops = append(ops, RemoteOp{Kind: OpArchive, Record: cached[id], RemoteKey: rr.Key})
	}

	return ops
}

// pushDiffers reports whether the observable fields drifted. Comparison
// is exact equality; no fuzzy matching. Status is excluded: local status
// is always the synthesized default, and the remote side owns lifecycle
// transitions, so status drift must never trigger a push update.
func pushDiffers(r marker.Record, rr remote.Record) bool {
	return r.Text != rr.Text ||
		r.Kind != rr.Kind ||
		r.File != rr.File ||
		r.Line != rr.Line
}

// PlanPull classifies the pull (remote -> local) direction.
//
// Remote records joined by identifier either delete their local line
// (terminal status) or rewrite its free text (drift). Remote records with
// no local counterpart are ignored: pull never creates local text, since
// identifiers are always minted locally.
func PlanPull(remoteByID map[string]remote.Record, localByID map[string]marker.Record) []LocalOp {
	ids := make([]string, 0, len(remoteByID))
	for id := range remoteByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var ops []LocalOp
	for _, id := range ids {
		rr := remoteByID[id]
		lr, ok := localByID[id]
		if !ok {
			continue
		}

		if rr.Status == marker.StatusArchived {
			ops = append(ops, LocalOp{Kind: OpLocalDelete, ID: id, Line: lr.Line})
			continue
		}
		if rr.Text != lr.Text {
			ops = append(ops, LocalOp{
				Kind:    OpLocalUpdate,
				ID:      id,
				Line:    lr.Line,
				NewText: marker.RewriteText(lr.Raw, rr.Text),
			})
		}
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].Line < ops[j].Line })
	return ops
}
