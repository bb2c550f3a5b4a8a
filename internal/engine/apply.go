package engine

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/nikolaykusch/TODOtoNOTION/internal/buffer"
	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
)

// Failure records one operation that could not be applied. Failures never
// abort the rest of their batch.
type Failure struct {
	Op  OpKind
	ID  string
	Err error
}

// PushResult aggregates the outcome of one push pass over one file.
type PushResult struct {
	File     string
	Stamped  int
	Created  []string
	Updated  []string
	Archived []string
	Failed   []Failure
	Duration time.Duration
}

// Changed reports whether the pass performed any remote mutation.
func (r *PushResult) Changed() bool {
	return len(r.Created)+len(r.Updated)+len(r.Archived) > 0
}

// PullResult aggregates the outcome of one pull pass over one file.
type PullResult struct {
	File     string
	Updated  []string
	Deleted  []string
	Failed   []Failure
	Duration time.Duration
}

// Changed reports whether the pass mutated the buffer.
func (r *PullResult) Changed() bool {
	return len(r.Updated)+len(r.Deleted) > 0
}

// applyRemote executes the remote operation batch sequentially. Each call
// is independent: a failure lands in the Failed bucket and the batch
// continues with the remaining records.
func applyRemote(ctx context.Context, store remote.Store, ops []RemoteOp, result *PushResult, logger *log.Logger) {
	for _, op := range ops {
		switch op.Kind {
		case OpCreate:
			_, err := store.CreateRecord(ctx, fieldsFromRecord(op.Record))
			if err != nil {
				logger.Printf("WARNING: create %s failed: %v", op.Record.ID, err)
				result.Failed = append(result.Failed, Failure{Op: OpCreate, ID: op.Record.ID, Err: err})
				continue
			}
			result.Created = append(result.Created, op.Record.ID)

		case OpUpdate:
			if err := store.UpdateRecord(ctx, op.RemoteKey, fieldsFromRecord(op.Record)); err != nil {
				logger.Printf("WARNING: update %s failed: %v", op.Record.ID, err)
				result.Failed = append(result.Failed, Failure{Op: OpUpdate, ID: op.Record.ID, Err: err})
				continue
			}
			result.Updated = append(result.Updated, op.Record.ID)

		case OpArchive:
			if err := store.ArchiveRecord(ctx, op.RemoteKey); err != nil {
				logger.Printf("WARNING: archive %s failed: %v", op.Record.ID, err)
				result.Failed = append(result.Failed, Failure{Op: OpArchive, ID: op.Record.ID, Err: err})
				continue
			}
			result.Archived = append(result.Archived, op.Record.ID)
		}
	}
}

// applyLocal executes the local operation batch against the buffer.
// Updates go first; deletes follow in descending line order so earlier
// deletes cannot shift the indices of later ones. All indices were
// computed against the pre-edit buffer.
func applyLocal(src buffer.Source, ops []LocalOp, result *PullResult, logger *log.Logger) {
	for _, op := range ops {
		if op.Kind != OpLocalUpdate {
			continue
		}
		if err := src.ReplaceLine(op.Line, op.NewText); err != nil {
			logger.Printf("WARNING: local update of %s failed: %v", op.ID, err)
			result.Failed = append(result.Failed, Failure{Op: OpLocalUpdate, ID: op.ID, Err: err})
			continue
		}
		result.Updated = append(result.Updated, op.ID)
	}

	deletes := make([]LocalOp, 0, len(ops))
	for _, op := range ops {
		if op.Kind == OpLocalDelete {
			deletes = append(deletes, op)
		}
	}
	sort.Slice(deletes, func(i, j int) bool { return deletes[i].Line > deletes[j].Line })

	for _, op := range deletes {
		if err := src.DeleteLine(op.Line); err != nil {
			logger.Printf("WARNING: local delete of %s failed: %v", op.ID, err)
			result.Failed = append(result.Failed, Failure{Op: OpLocalDelete, ID: op.ID, Err: err})
			continue
		}
		result.Deleted = append(result.Deleted, op.ID)
	}
}

func fieldsFromRecord(r marker.Record) remote.Fields {
	return remote.Fields{
		ID:     r.ID,
		Text:   r.Text,
		Kind:   r.Kind,
		Status: r.Status,
		File:   r.File,
		Line:   r.Line,
	}
}
