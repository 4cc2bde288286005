package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/scalarorg/lending-bridge/pkg/types"
)

type snapshot map[types.AssetID]types.AssetEntry

// Registry maps asset ids to their support metadata. Writers replace the
// whole map, so a reader always sees one consistent snapshot.
type Registry struct {
	mu      sync.Mutex
	entries atomic.Pointer[snapshot]
}

func New() *Registry {
	r := &Registry{}
	empty := snapshot{}
	r.entries.Store(&empty)
	return r
}

func (r *Registry) load() snapshot {
	return *r.entries.Load()
}

func (r *Registry) clone() snapshot {
	current := r.load()
	next := make(snapshot, len(current)+1)
	for id, entry := range current {
		next[id] = entry
	}
	return next
}

// Add registers an asset as supported. A logically removed asset can be
// added again; its metadata is replaced.
func (r *Registry) Add(assetID types.AssetID, decimals uint8, isNative bool) (types.AssetEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.load()
	if existing, ok := current[assetID]; ok && existing.IsSupported {
		return types.AssetEntry{}, fmt.Errorf("%w: %s", types.ErrAssetAlreadyExists, assetID)
	}
	if isNative {
		for id, entry := range current {
			if entry.IsNative && entry.IsSupported && id != assetID {
				return types.AssetEntry{}, types.ErrNativeAssetExists
			}
		}
	}
	entry := types.AssetEntry{
		AssetID:     assetID,
		Decimals:    decimals,
		IsNative:    isNative,
		IsSupported: true,
	}
	next := r.clone()
	next[assetID] = entry
	r.entries.Store(&next)
	return entry, nil
}

// Remove marks an asset unsupported. The record is kept.
func (r *Registry) Remove(assetID types.AssetID) (types.AssetEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.load()[assetID]
	if !ok || !entry.IsSupported {
		return types.AssetEntry{}, fmt.Errorf("%w: %s", types.ErrAssetNotFound, assetID)
	}
	entry.IsSupported = false
	next := r.clone()
	next[assetID] = entry
	r.entries.Store(&next)
	return entry, nil
}

// Put installs an entry as-is. Used to roll back a failed write and to
// restore persisted state.
func (r *Registry) Put(entry types.AssetEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.clone()
	next[entry.AssetID] = entry
	r.entries.Store(&next)
}

// Delete drops an entry entirely. Only used to roll back an Add of a new id.
func (r *Registry) Delete(assetID types.AssetID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.clone()
	delete(next, assetID)
	r.entries.Store(&next)
}

func (r *Registry) Restore(entries []types.AssetEntry) {
	next := make(snapshot, len(entries))
	for _, entry := range entries {
		next[entry.AssetID] = entry
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Store(&next)
}

func (r *Registry) Get(assetID types.AssetID) (types.AssetEntry, bool) {
	entry, ok := r.load()[assetID]
	return entry, ok
}

// List returns every entry, supported or not, ordered by asset id.
func (r *Registry) List() []types.AssetEntry {
	current := r.load()
	entries := make([]types.AssetEntry, 0, len(current))
	for _, entry := range current {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AssetID.Compare(entries[j].AssetID) < 0
	})
	return entries
}

// IsDepositEligible reports why assetID cannot be used on path, or nil.
// Unsupported entries are treated exactly like absent ones.
func (r *Registry) IsDepositEligible(assetID types.AssetID, path types.DepositPath) error {
	entry, ok := r.Get(assetID)
	if !ok || !entry.IsSupported {
		return fmt.Errorf("%w: %s", types.ErrAssetNotSupported, assetID)
	}
	if entry.IsNative != (path == types.NativePath) {
		return fmt.Errorf("%w: %s asset on %s path", types.ErrWrongDepositPath, kind(entry), path)
	}
	return nil
}

func (r *Registry) Eligible(assetID types.AssetID, path types.DepositPath) bool {
	return r.IsDepositEligible(assetID, path) == nil
}

func kind(entry types.AssetEntry) string {
	if entry.IsNative {
		return "native"
	}
	return "token"
}
