package generation

import "testing"

func TestNextIncrementsPerURIIndependently(t *testing.T) {
	c := New()
	if got := c.Next("a"); got != 1 {
		t.Fatalf("Next(a) first call = %d, want 1", got)
	}
	if got := c.Next("a"); got != 2 {
		t.Fatalf("Next(a) second call = %d, want 2", got)
	}
	if got := c.Next("b"); got != 1 {
		t.Fatalf("Next(b) first call = %d, want 1, unaffected by a's counter", got)
	}
}

func TestCurrentDoesNotAdvanceTheCounter(t *testing.T) {
	c := New()
	c.Next("a")
	before := c.Current("a")
	after := c.Current("a")
	if before != after {
		t.Fatalf("Current() changed across repeated reads: %d then %d", before, after)
	}
}

func TestTokenStaleBecomesTrueAfterANewerCapture(t *testing.T) {
	c := New()
	tok := c.Capture("a")
	if tok.Stale() {
		t.Fatalf("Stale() = true immediately after Capture(), want false")
	}

	c.Capture("a")
	if !tok.Stale() {
		t.Fatalf("Stale() = false after a newer Capture() for the same URI, want true")
	}
}

func TestZeroValueTokenIsNeverStale(t *testing.T) {
	var tok Token
	if tok.Stale() {
		t.Fatalf("Stale() = true for the zero-value token, want false")
	}
}

func TestAsCancelFuncReflectsTokenStaleness(t *testing.T) {
	c := New()
	tok := c.Capture("a")
	cancel := tok.AsCancelFunc()
	if cancel() {
		t.Fatalf("cancel() = true before any newer capture")
	}

	c.Capture("a")
	if !cancel() {
		t.Fatalf("cancel() = false after a newer capture, want true")
	}
}

func TestWorkspaceBumpIsMonotonic(t *testing.T) {
	var w Workspace
	if w.Current() != 0 {
		t.Fatalf("Current() on a fresh Workspace = %d, want 0", w.Current())
	}
	if got := w.Bump(); got != 1 {
		t.Fatalf("Bump() first call = %d, want 1", got)
	}
	if got := w.Bump(); got != 2 {
		t.Fatalf("Bump() second call = %d, want 2", got)
	}
	if w.Current() != 2 {
		t.Fatalf("Current() after two bumps = %d, want 2", w.Current())
	}
}
