package roles

import "testing"

func TestGrantRevokeHas(t *testing.T) {
	reg := NewRegistry()
	if reg.Has("alice", AuthorizeRequests) {
		t.Fatalf("unexpected grant")
	}
	reg.Grant("alice", AuthorizeRequests)
	reg.Grant("alice", AdministrateConfig)
	if !reg.Has("alice", AuthorizeRequests) || !reg.Has("alice", AdministrateConfig) {
		t.Fatalf("expected grants present")
	}
	if got := len(reg.Permissions("alice")); got != 2 {
		t.Fatalf("expected 2 permissions, got %d", got)
	}
	reg.Revoke("alice", AuthorizeRequests)
	if reg.Has("alice", AuthorizeRequests) {
		t.Fatalf("revoke did not apply")
	}
	if !reg.Has("alice", AdministrateConfig) {
		t.Fatalf("revoke removed unrelated permission")
	}
	reg.Revoke("alice", AdministrateConfig)
	if got := len(reg.Permissions("alice")); got != 0 {
		t.Fatalf("expected empty permission set, got %d", got)
	}
}
