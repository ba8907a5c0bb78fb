package registry

import (
	"testing"

	"github.com/google/uuid"
)

type fakeEntry struct {
	id uuid.UUID
}

func (f fakeEntry) ID() uuid.UUID { return f.id }

func TestRegisterFindRemove(t *testing.T) {
	r := New()
	e := fakeEntry{id: uuid.New()}

	if _, ok := r.Find(e.ID()); ok {
		t.Fatalf("unregistered entry should not be found")
	}

	r.Register(e)
	got, ok := r.Find(e.ID())
	if !ok {
		t.Fatalf("expected to find registered entry")
	}
	if got.ID() != e.ID() {
		t.Fatalf("found wrong entry: %v", got.ID())
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	r.Remove(e.ID())
	if _, ok := r.Find(e.ID()); ok {
		t.Fatalf("entry should be gone after Remove")
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after remove", r.Len())
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	r := New()
	r.Remove(uuid.New())
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
}

func TestRegisterOverwritesSameUUID(t *testing.T) {
	r := New()
	id := uuid.New()
	r.Register(fakeEntry{id: id})
	r.Register(fakeEntry{id: id})
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after duplicate register", r.Len())
	}
}

func TestCleanup(t *testing.T) {
	r := New()
	r.Register(fakeEntry{id: uuid.New()})
	r.Register(fakeEntry{id: uuid.New()})
	r.Cleanup()
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after Cleanup", r.Len())
	}
}

func TestUniqueUUIDsDoNotCollide(t *testing.T) {
	r := New()
	const n = 100
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
		r.Register(fakeEntry{id: ids[i]})
	}
	if r.Len() != n {
		t.Fatalf("Len = %d, want %d", r.Len(), n)
	}
	for _, id := range ids {
		if _, ok := r.Find(id); !ok {
			t.Fatalf("missing entry for %s", id)
		}
	}
}
