package memory

import (
	"testing"

	"github.com/nadzzz/nova/internal/apperr"
)

func TestStore_SetGet(t *testing.T) {
	s := New(true)
	if err := s.Set("favorite_color", "green"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok := s.Get("favorite_color")
	if !ok || v != "green" {
		t.Fatalf("expected green, got %v", v)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected missing key to be absent")
	}
}

func TestStore_StructuredValues(t *testing.T) {
	s := New(true)
	_ = s.Set("pets", map[string]any{"dog": "Rex", "count": float64(1)})
	v, _ := s.Get("pets")
	pets, ok := v.(map[string]any)
	if !ok || pets["dog"] != "Rex" {
		t.Fatalf("unexpected value %#v", v)
	}
}

func TestStore_DisabledRejectsSet(t *testing.T) {
	s := New(false)
	err := s.Set("k", "v")
	if !apperr.IsFeatureDisabled(err) {
		t.Fatalf("expected FeatureDisabled, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("disabled store must not record the value")
	}
}

func TestStore_RememberBypassesGate(t *testing.T) {
	s := New(false)
	s.Remember(KeyUserName, "Alex")
	if v, _ := s.Get(KeyUserName); v != "Alex" {
		t.Fatalf("expected Alex, got %v", v)
	}
}

func TestStore_EmptyKey(t *testing.T) {
	s := New(true)
	if err := s.Set("  ", 1); !apperr.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestStore_AllReturnsCopy(t *testing.T) {
	s := New(true)
	_ = s.Set("a", 1)
	all := s.All()
	all["b"] = 2
	if _, ok := s.Get("b"); ok {
		t.Fatal("mutating All() result leaked into the store")
	}
}
