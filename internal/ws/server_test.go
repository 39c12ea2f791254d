package ws

import "testing"

func TestDisplayNameFallback(t *testing.T) {
	c := &Client{playerID: "01J8ZK3V9Q4W5X6Y7Z8A9B0C1D"}
	if got := c.displayName(""); got != "player-0C1D" {
		t.Fatalf("expected suffix fallback, got %q", got)
	}
}

func TestDisplayNameShortPlayerID(t *testing.T) {
	// player_id is client-supplied and may be arbitrarily short.
	for _, id := range []string{"ab", "x", ""} {
		c := &Client{playerID: id}
		if got, want := c.displayName(""), "player-"+id; got != want {
			t.Fatalf("id %q: expected %q, got %q", id, want, got)
		}
	}
}

func TestDisplayNameExplicitNameSticks(t *testing.T) {
	c := &Client{playerID: "ab"}
	if got := c.displayName("alice"); got != "alice" {
		t.Fatalf("expected explicit name, got %q", got)
	}
	if got := c.displayName(""); got != "alice" {
		t.Fatalf("name should persist across messages, got %q", got)
	}
}
