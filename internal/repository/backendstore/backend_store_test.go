package backendstore

import (
	"context"
	"testing"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/errors"
)

type stubStore struct{}

func (stubStore) Add(ctx context.Context, content []byte, metadata map[string]string) (string, error) {
	return "", nil
}
func (stubStore) Get(ctx context.Context, id string) ([]byte, error) { return nil, nil }
func (stubStore) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, error) {
	return nil, nil
}
func (stubStore) Delete(ctx context.Context, id string) (bool, error) { return false, nil }

// TestRegistry_RegisterAndLookup verifies registration, lookup, duplicate
// rejection, and name ordering.
func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{"hot", "cold", "archive"} {
		if err := registry.Register(name, stubStore{}); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	if err := registry.Register("hot", stubStore{}); !errors.IsKind(err, errors.KindValidation) {
		t.Errorf("Register() duplicate = %v, want validation", err)
	}

	if _, err := registry.Backend("cold"); err != nil {
		t.Errorf("Backend(cold) failed: %v", err)
	}
	if _, err := registry.Backend("ghost"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Backend(ghost) = %v, want not_found", err)
	}

	// Names preserve registration order
	names := registry.Names()
	want := []string{"hot", "cold", "archive"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}
