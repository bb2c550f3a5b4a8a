// Package daemon runs the background sync loop: it watches workspace
// files for saves, debounces the events, and triggers push passes, plus
// a periodic pull pass that applies remote edits and archivals locally.
//
// The central hazard here is the self-write loop: stamping an identifier
// saves the buffer, which raises a file event that looks exactly like a
// user save. The engine arms a one-shot per-file suppression flag before
// each programmatic save; the daemon consumes it on the very next event
// for that file and skips the pass.
package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nikolaykusch/TODOtoNOTION/internal/buffer"
	"github.com/nikolaykusch/TODOtoNOTION/internal/engine"
	"github.com/nikolaykusch/TODOtoNOTION/internal/workspace"
)

// Config holds daemon tuning knobs.
type Config struct {
	// DebounceInterval is how long a file event must sit in the queue
	// before its pass runs. Rapid save bursts coalesce into one pass.
	DebounceInterval time.Duration

	// PullInterval is how often the periodic pull pass runs over the
	// whole workspace. Zero disables pulling.
	PullInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 250 * time.Millisecond,
		PullInterval:     30 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// NewFileLogger builds a daemon logger writing to a size-rotated file.
func NewFileLogger(path string) *log.Logger {
	return log.New(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}, "[daemon] ", log.LstdFlags)
}

// Notifier receives completed pass results, e.g. for the dashboard feed.
type Notifier interface {
	PushCompleted(result *engine.PushResult)
	PullCompleted(result *engine.PullResult)
}

// Daemon orchestrates file watching and sync passes.
type Daemon struct {
	eng        *engine.Engine
	root       string
	extensions map[string]bool
	config     *Config
	notifier   Notifier

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching root for files with the given extensions.
func New(eng *engine.Engine, root string, extensions []string) (*Daemon, error) {
	return NewWithConfig(eng, root, extensions, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(eng *engine.Engine, root string, extensions []string, config *Config) (*Daemon, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		eng:         eng,
		root:        root,
		extensions:  extSet,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// SetNotifier attaches a pass-result listener. Must be called before
// Start.
func (d *Daemon) SetNotifier(n Notifier) {
	d.notifier = n
}

// Start runs the daemon: an initial push pass over the whole workspace,
// then event-driven pushes and periodic pulls. Blocks until ctx is
// cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting sync daemon")

	// Watches go live before the initial pass so the save events it
	// generates reach the suppression check.
	if err := d.watchTree(); err != nil {
		return fmt.Errorf("failed to watch workspace: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.root)

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.pullLoop()

	if err := d.fullPush(); err != nil {
		d.config.Logger.Printf("WARNING: initial push incomplete: %v", err)
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()
	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}
	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// fullPush runs a push pass over every tracked file.
func (d *Daemon) fullPush() error {
	files, err := workspace.Scan(d.root, extSlice(d.extensions))
	if err != nil {
		return err
	}

	d.config.Logger.Printf("Initial push over %d files", len(files))
	for _, path := range files {
		d.pushFile(path)
	}
	return nil
}

// watchTree registers every directory under root with the watcher.
// fsnotify watches are not recursive.
func (d *Daemon) watchTree() error {
	return filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if workspace.Skipped(entry.Name()) {
			return filepath.SkipDir
		}
		return d.watcher.Add(path)
	})
}

// watchFileEvents receives fsnotify events, consumes suppression flags
// for the engine's own saves, and queues genuine user saves.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// New directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !workspace.Skipped(filepath.Base(event.Name)) {
						_ = d.watcher.Add(event.Name)
					}
					continue
				}
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !d.extensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			if d.eng.Suppressor().Consume(event.Name) {
				d.config.Logger.Printf("Suppressed own save: %s", event.Name)
				continue
			}

			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the debounce queue.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	d.changeQueue[path] = time.Now()
	d.changeQueueMu.Unlock()
}

// processChangeQueue drains the debounce queue on a ticker.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges runs a push pass for every file whose last event
// is older than the debounce interval.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	var due []string
	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		due = append(due, path)
		delete(d.changeQueue, path)
	}
	d.changeQueueMu.Unlock()

	for _, path := range due {
		d.config.Logger.Printf("Save detected: %s", path)
		d.pushFile(path)
	}
}

// pushFile runs one push pass. Remote unavailability is a degradation,
// not a failure: the save stays queued for nothing, the next save
// retries naturally.
func (d *Daemon) pushFile(path string) {
	result, err := d.eng.Push(d.ctx, buffer.NewFileSource(path))
	if err != nil {
		if engine.IsUnavailable(err) {
			d.config.Logger.Printf("WARNING: remote unavailable, push of %s deferred", path)
		} else {
			d.config.Logger.Printf("Error pushing %s: %v", path, err)
		}
		return
	}

	if d.notifier != nil && (result.Changed() || result.Stamped > 0) {
		d.notifier.PushCompleted(result)
	}
}

// pullLoop runs the periodic pull pass over the whole workspace.
func (d *Daemon) pullLoop() {
	defer d.wg.Done()

	if d.config.PullInterval <= 0 {
		return
	}

	ticker := time.NewTicker(d.config.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.pullAll()
		}
	}
}

// pullAll applies remote edits and archivals to every tracked file.
func (d *Daemon) pullAll() {
	files, err := workspace.Scan(d.root, extSlice(d.extensions))
	if err != nil {
		d.config.Logger.Printf("Error scanning workspace: %v", err)
		return
	}

	for _, path := range files {
		result, err := d.eng.Pull(d.ctx, buffer.NewFileSource(path))
		if err != nil {
			if engine.IsUnavailable(err) {
				// One warning is enough; every file would repeat it.
				d.config.Logger.Printf("WARNING: remote unavailable, pull skipped")
				return
			}
			d.config.Logger.Printf("Error pulling %s: %v", path, err)
			continue
		}

		if d.notifier != nil && result.Changed() {
			d.notifier.PullCompleted(result)
		}
	}
}

func extSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for ext := range set {
		out = append(out, ext)
	}
	return out
}
