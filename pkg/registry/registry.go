package registry

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
)

type entry struct {
	ref  types.Reference
	file models.UploadedFile
}

// Registry maps each file in the current set to a revocable reference that
// the UI server can dereference under basePath.
type Registry struct {
	mu        sync.RWMutex
	basePath  string
	byName    map[string]*entry
	byID      map[string]*entry
	onRelease func(types.Reference)
}

func New(basePath string) *Registry {
	return &Registry{
		basePath: strings.TrimRight(basePath, "/"),
		byName:   make(map[string]*entry),
		byID:     make(map[string]*entry),
	}
}

// OnRelease installs a hook called for every reference that is revoked.
func (r *Registry) OnRelease(fn func(types.Reference)) {
	r.mu.Lock()
	r.onRelease = fn
	r.mu.Unlock()
}

// SetFiles releases every live reference and issues a fresh one per file.
// When two files share a name the later one wins.
func (r *Registry) SetFiles(files []models.UploadedFile) []types.Reference {
	r.mu.Lock()
	released := r.releaseAllLocked()

	refs := make([]types.Reference, 0, len(files))
	for _, f := range files {
		if old, ok := r.byName[f.Name]; ok {
			delete(r.byID, old.ref.ID)
			released = append(released, old.ref)
		}

		id := uuid.NewString()
		e := &entry{
			ref: types.Reference{
				ID:   id,
				Name: f.Name,
				URL:  r.basePath + "/" + id,
			},
			file: f,
		}
		r.byName[f.Name] = e
		r.byID[id] = e
	}

	for _, f := range files {
		refs = appendUnique(refs, r.byName[f.Name].ref)
	}
	hook := r.onRelease
	r.mu.Unlock()

	if hook != nil {
		for _, ref := range released {
			hook(ref)
		}
	}
	return refs
}

func (r *Registry) Resolve(name string) (types.Reference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[name]
	if !ok {
		return types.Reference{}, false
	}
	return e.ref, true
}

// Open dereferences a live reference.
func (r *Registry) Open(id string) (models.UploadedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return models.UploadedFile{}, false
	}
	return e.file, true
}

// Release revokes a single reference. It reports whether the reference was
// live.
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	e, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
		if cur, found := r.byName[e.ref.Name]; found && cur == e {
			delete(r.byName, e.ref.Name)
		}
	}
	hook := r.onRelease
	r.mu.Unlock()

	if ok && hook != nil {
		hook(e.ref)
	}
	return ok
}

// Reset releases every live reference.
func (r *Registry) Reset() {
	r.mu.Lock()
	released := r.releaseAllLocked()
	hook := r.onRelease
	r.mu.Unlock()

	if hook != nil {
		for _, ref := range released {
			hook(ref)
		}
	}
}

// Live returns the number of references that have not been released.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) releaseAllLocked() []types.Reference {
	released := make([]types.Reference, 0, len(r.byID))
	for _, e := range r.byID {
		released = append(released, e.ref)
	}
	r.byName = make(map[string]*entry)
	r.byID = make(map[string]*entry)
	return released
}

func appendUnique(refs []types.Reference, ref types.Reference) []types.Reference {
	for _, existing := range refs {
		if existing.ID == ref.ID {
			return refs
		}
	}
	return append(refs, ref)
}
