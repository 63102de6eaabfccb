package indexstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/custodia-labs/kurator/internal/core/domain"
	"github.com/custodia-labs/kurator/internal/core/ports/driven"
)

// Ensure Repository implements the interface.
var _ driven.IndexRepository = (*Repository)(nil)

// Layout of a store directory.
const (
	GenerationsDir = "generations"
	CurrentFile    = "CURRENT"
	PreviousFile   = "PREVIOUS"
	LockFile       = "write.lock"
)

// RetainGenerations is how many of the newest generations Save keeps on
// disk. The current and previous generations are always kept.
const RetainGenerations = 3

// loadGeneration reads one generation directory.
var loadGeneration = Load

// Repository manages index store generations under a directory.
type Repository struct {
	dir        string
	dimensions int
	mu         sync.Mutex
}

// Option configures a Repository.
type Option func(*Repository)

// WithDimensions makes Load fail with domain.ErrDimensionMismatch when the
// current generation was built with a different embedding size.
func WithDimensions(dim int) Option {
	return func(r *Repository) {
		r.dimensions = dim
	}
}

// NewRepository returns a repository rooted at dir. The directory is created
// on the first Save.
func NewRepository(dir string, opts ...Option) *Repository {
	r := &Repository{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the store directory.
func (r *Repository) Location() string {
	return r.dir
}

// Load returns the current generation.
func (r *Repository) Load(ctx context.Context) (driven.IndexStore, error) {
	return r.LoadStore(ctx)
}

// LoadStore is Load with the concrete type.
//
// A writer in another process may publish and prune while this reads. Save
// keeps RetainGenerations generations, so the one CURRENT named stays on
// disk for at least two further saves; if it is still pruned mid-load, the
// load is retried against the new CURRENT.
func (r *Repository) LoadStore(ctx context.Context) (*Store, error) {
	gen, err := r.readPointer(CurrentFile)
	if err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		if gen == "" {
			return nil, oops.In("indexstore").Code("store_not_found").With("dir", r.dir).
				Wrapf(domain.ErrStoreNotFound, "no current generation")
		}
		store, loadErr := loadGeneration(ctx, r.generationDir(gen), r.dimensions)
		if loadErr == nil || attempt >= 2 {
			return store, loadErr
		}
		next, err := r.readPointer(CurrentFile)
		if err != nil || next == gen {
			return nil, loadErr
		}
		gen = next
	}
}

// Save builds a new generation from build, persists it and makes it current.
// The newest RetainGenerations generations are kept.
func (r *Repository) Save(ctx context.Context, build driven.StoreBuild) (driven.IndexStore, error) {
	return r.SaveStore(ctx, build)
}

// SaveStore is Save with the concrete type.
func (r *Repository) SaveStore(ctx context.Context, build driven.StoreBuild) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	errb := oops.In("indexstore").With("dir", r.dir)

	if err := os.MkdirAll(filepath.Join(r.dir, GenerationsDir), 0700); err != nil {
		return nil, errb.Wrapf(err, "creating store directory")
	}
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	store, err := Build(build)
	if err != nil {
		return nil, errb.Wrapf(err, "building generation")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errb.Wrapf(err, "generating generation id")
	}
	gen := id.String()
	store = store.WithGeneration(gen)

	tmp := filepath.Join(r.dir, GenerationsDir, ".tmp-"+gen)
	if err := store.Persist(ctx, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, r.generationDir(gen)); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, errb.Wrapf(err, "publishing generation %s", gen)
	}

	previous, err := r.readPointer(CurrentFile)
	if err != nil {
		return nil, err
	}
	if err := r.writePointer(CurrentFile, gen); err != nil {
		return nil, err
	}
	if previous != "" {
		if err := r.writePointer(PreviousFile, previous); err != nil {
			return nil, err
		}
	}

	r.prune(gen, previous)
	return store, nil
}

// Generations lists generation identifiers on disk, oldest first.
// Identifiers are UUIDv7, so lexical order is creation order.
func (r *Repository) Generations() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, GenerationsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var gens []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			gens = append(gens, e.Name())
		}
	}
	sort.Strings(gens)
	return gens, nil
}

func (r *Repository) generationDir(gen string) string {
	return filepath.Join(r.dir, GenerationsDir, gen)
}

// lock takes the cross-process write lock. The lock file records
// "<pid> <hostname>"; a lock left by a process on this host that is no
// longer running is reclaimed once.
func (r *Repository) lock() (func(), error) {
	path := filepath.Join(r.dir, LockFile)
	host, _ := os.Hostname()

	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d %s\n", os.Getpid(), host)
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, oops.In("indexstore").Wrapf(err, "creating lock file")
		}

		holder, readErr := os.ReadFile(path)
		if attempt == 0 && readErr == nil && staleLock(string(holder), host) {
			_ = os.Remove(path)
			continue
		}
		return nil, oops.In("indexstore").Code("store_locked").With("lock", path).
			With("holder", strings.TrimSpace(string(holder))).
			Wrapf(domain.ErrStoreLocked, "another writer holds %s", path)
	}
}

// staleLock reports whether a lock file names a process on host that has
// exited. Unreadable contents and other hosts count as live.
func staleLock(contents, host string) bool {
	fields := strings.Fields(contents)
	if len(fields) == 0 {
		return false
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil || pid <= 0 {
		return false
	}
	if len(fields) > 1 && fields[1] != host {
		return false
	}
	return !processAlive(pid)
}

func (r *Repository) readPointer(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", oops.In("indexstore").With("pointer", name).Wrapf(err, "reading pointer")
	}
	return strings.TrimSpace(string(data)), nil
}

// writePointer replaces a pointer file atomically.
func (r *Repository) writePointer(name, gen string) error {
	f, err := os.CreateTemp(r.dir, "."+name+"-*")
	if err != nil {
		return oops.In("indexstore").Wrapf(err, "creating pointer")
	}
	tmp := f.Name()
	if _, err := f.WriteString(gen + "\n"); err != nil {
		f.Close()
		os.Remove(tmp)
		return oops.In("indexstore").Wrapf(err, "writing pointer")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return oops.In("indexstore").Wrapf(err, "syncing pointer")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return oops.In("indexstore").Wrapf(err, "closing pointer")
	}
	if err := os.Rename(tmp, filepath.Join(r.dir, name)); err != nil {
		os.Remove(tmp)
		return oops.In("indexstore").With("pointer", name).Wrapf(err, "swapping pointer")
	}
	return nil
}

// prune removes all but the newest RetainGenerations generations, never
// removing keep. Failures are ignored; the next Save retries.
func (r *Repository) prune(keep ...string) {
	gens, err := r.Generations()
	if err != nil {
		return
	}
	retain := make(map[string]bool, len(keep)+RetainGenerations)
	for _, k := range keep {
		if k != "" {
			retain[k] = true
		}
	}
	for i := len(gens) - 1; i >= 0 && i >= len(gens)-RetainGenerations; i-- {
		retain[gens[i]] = true
	}
	for _, g := range gens {
		if !retain[g] {
			_ = os.RemoveAll(r.generationDir(g))
		}
	}
}
