package session

import (
	"testing"
	"time"

	"github.com/drfirst/dental-claims/internal/reference"
)

func TestStore_CreateGetDelete(t *testing.T) {
	s := NewStore(time.Hour, time.Minute)
	sess := s.Create(reference.Patient{Name: "Patient 1"})

	got, ok := s.Get(sess.ID())
	if !ok || got != sess {
		t.Fatalf("expected stored session, got %v %v", got, ok)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 session, got %d", s.Count())
	}

	evicted := ""
	s.OnEvicted(func(id string) { evicted = id })
	s.Delete(sess.ID())
	if _, ok := s.Get(sess.ID()); ok {
		t.Error("expected session to be gone")
	}
	if evicted != sess.ID() {
		t.Errorf("expected eviction callback for %s, got %q", sess.ID(), evicted)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(20*time.Millisecond, time.Hour)
	sess := s.Create(reference.Patient{Name: "Patient 1"})

	time.Sleep(40 * time.Millisecond)
	if _, ok := s.Get(sess.ID()); ok {
		t.Error("expected session to expire")
	}
}

func TestStore_DistinctSessions(t *testing.T) {
	s := NewStore(0, 0)
	a := s.Create(reference.Patient{Name: "Patient 1"})
	b := s.Create(reference.Patient{Name: "Patient 1"})
	if a.ID() == b.ID() {
		t.Error("expected distinct session IDs")
	}
}
