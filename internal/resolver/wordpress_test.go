package resolver

import (
	"context"
	"testing"

	"github.com/nexus-registry/nexus/internal/ecosystem"
)

func TestWordPressResolvePassthrough(t *testing.T) {
	r := NewWordPress()

	trunk, err := r.Resolve(context.Background(), "plugins/akismet", "trunk")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if trunk.Version != "trunk" || ecosystem.IsWordPressImmutable(trunk.Version) {
		t.Errorf("trunk should resolve mutable, got %+v", trunk)
	}

	tagged, err := r.Resolve(context.Background(), "plugins/akismet", "6.4.2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tagged.Version != "6.4.2" || !ecosystem.IsWordPressImmutable(tagged.Version) {
		t.Errorf("tagged version should resolve immutable, got %+v", tagged)
	}
}

func TestWordPressResolveEmptySpecDefaultsToTrunk(t *testing.T) {
	r := NewWordPress()
	key, err := r.Resolve(context.Background(), "plugins/akismet", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Version != "trunk" {
		t.Errorf("Version = %q, want trunk", key.Version)
	}
}
