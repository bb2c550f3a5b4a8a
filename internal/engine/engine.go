package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/nikolaykusch/TODOtoNOTION/internal/buffer"
	"github.com/nikolaykusch/TODOtoNOTION/internal/cache"
	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
	"github.com/nikolaykusch/TODOtoNOTION/internal/remote"
)

// Engine owns the state of a sync session: the remote store handle, the
// local cache, and the save-suppression flags. Nothing here is ambient;
// construct one per session and pass it around explicitly.
type Engine struct {
	store    remote.Store
	cache    *cache.Cache
	suppress *Suppressor
	logger   *log.Logger

	mu        sync.Mutex
	fileLocks map[string]*sync.Mutex
}

// New creates an engine. If logger is nil, a default stderr logger is
// used.
func New(store remote.Store, c *cache.Cache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	if c == nil {
		c = cache.New()
	}
	return &Engine{
		store:     store,
		cache:     c,
		suppress:  NewSuppressor(),
		logger:    logger,
		fileLocks: make(map[string]*sync.Mutex),
	}
}

// Cache exposes the engine's local cache, mainly for status reporting.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Suppressor exposes the save-suppression flags so the save-event handler
// can consume them.
func (e *Engine) Suppressor() *Suppressor {
	return e.suppress
}

// lockFile serializes passes per file. A save-triggered push and a manual
// pull on the same file never interleave.
func (e *Engine) lockFile(key string) func() {
	e.mu.Lock()
	l, ok := e.fileLocks[key]
	if !ok {
		l = &sync.Mutex{}
		e.fileLocks[key] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Push runs one local-authoritative pass over the document: extract,
// stamp missing identifiers, diff against cache and remote snapshot,
// apply remote creates/updates/archives, replace the cache snapshot.
//
// When the remote snapshot cannot be fetched the pass stops after
// stamping and returns an error wrapping remote.ErrUnavailable; nothing
// is classified against an unknown snapshot.
func (e *Engine) Push(ctx context.Context, src buffer.Source) (*PushResult, error) {
	key := src.Key()
	unlock := e.lockFile(key)
	defer unlock()

	start := time.Now()
	result := &PushResult{File: key}

	lines, err := src.ReadLines()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	records := marker.Extract(key, lines)
	e.stamp(src, records, result)

	snap := FetchSnapshot(ctx, e.store, e.logger)
	if !snap.Complete {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("push %s: %w", key, remote.ErrUnavailable)
	}

	ops := PlanPush(records, e.cache.Get(key), snap.ByID)
	applyRemote(ctx, e.store, ops, result, e.logger)

	// Wholesale replacement: entries for lines that moved or disappeared
	// are discarded here, nothing is merged.
	e.cache.Set(key, marker.Index(records))

	result.Duration = time.Since(start)
	if result.Changed() || result.Stamped > 0 {
		e.logger.Printf("push %s: stamped=%d created=%d updated=%d archived=%d failed=%d",
			key, result.Stamped, len(result.Created), len(result.Updated), len(result.Archived), len(result.Failed))
	}
	return result, nil
}

// stamp assigns identifiers to unassigned records and rewrites their
// lines in the buffer. The programmatic save is preceded by arming the
// suppression flag; if the save is rejected, the in-memory assignments
// are discarded so the next pass re-derives them instead of assuming
// they were persisted.
func (e *Engine) stamp(src buffer.Source, records []marker.Record, result *PushResult) {
	var stamped []int
	for i := range records {
		if records[i].Assigned() {
			continue
		}

		id := marker.MintID()
		line := marker.StampLine(records[i].Raw, id)
		if err := src.ReplaceLine(records[i].Line, line); err != nil {
			e.logger.Printf("WARNING: stamping line %d of %s rejected: %v", records[i].Line, src.Key(), err)
			continue
		}
		records[i].ID = id
		records[i].Raw = line
		stamped = append(stamped, i)
	}

	if len(stamped) == 0 {
		return
	}

	e.suppress.Arm(src.Key())
	if err := src.Save(); err != nil {
		e.suppress.Disarm(src.Key())
		e.logger.Printf("WARNING: save of %s rejected, discarding %d identifier assignments: %v",
			src.Key(), len(stamped), err)
		for _, i := range stamped {
			records[i].ID = ""
		}
		return
	}
	result.Stamped = len(stamped)
}

// Pull runs one remote-authoritative pass over the document: archived
// remote records delete their local lines, drifted text rewrites them.
// Pull never creates local lines.
func (e *Engine) Pull(ctx context.Context, src buffer.Source) (*PullResult, error) {
	key := src.Key()
	unlock := e.lockFile(key)
	defer unlock()

	start := time.Now()
	result := &PullResult{File: key}

	lines, err := src.ReadLines()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	localByID := marker.Index(marker.Extract(key, lines))

	snap := FetchSnapshot(ctx, e.store, e.logger)
	if !snap.Complete {
		// An unknown snapshot must never justify deleting local lines.
		result.Duration = time.Since(start)
		return result, fmt.Errorf("pull %s: %w", key, remote.ErrUnavailable)
	}

	ops := PlanPull(snap.ByID, localByID)
	applyLocal(src, ops, result, e.logger)

	if result.Changed() {
		e.suppress.Arm(key)
		if err := src.Save(); err != nil {
			e.suppress.Disarm(key)
			result.Duration = time.Since(start)
			return result, fmt.Errorf("save %s after pull: %w", key, err)
		}
	}

	// Re-extract the post-edit buffer so the cache snapshot matches what
	// is actually on disk now.
	if lines, err := src.ReadLines(); err == nil {
		e.cache.Set(key, marker.Index(marker.Extract(key, lines)))
	}

	result.Duration = time.Since(start)
	if result.Changed() {
		e.logger.Printf("pull %s: updated=%d deleted=%d failed=%d",
			key, len(result.Updated), len(result.Deleted), len(result.Failed))
	}
	return result, nil
}

// IsUnavailable reports whether err stems from an unreachable remote
// store, the one error kind callers treat as a degradation instead of a
// failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, remote.ErrUnavailable)
}
