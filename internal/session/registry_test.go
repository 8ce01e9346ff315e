package session

import (
	"testing"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
)

func alwaysLive(domain.SessionRecord) bool { return true }

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec, created := reg.GetOrCreate("sess-1", "user-1", t0)
	if !created {
		t.Fatal("expected first call to create the record")
	}
	if rec.CreatedAt != t0 || rec.LastActivity != t0 {
		t.Fatalf("expected timestamps seeded with now, got %+v", rec)
	}

	again, created := reg.GetOrCreate("sess-1", "user-1", t0.Add(time.Minute))
	if created {
		t.Fatal("expected second call to return the existing record")
	}
	if again.CreatedAt != t0 {
		t.Fatalf("CreatedAt must not move on repeat lookups, got %v", again.CreatedAt)
	}
}

func TestRegistryTouchCountsRequests(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.GetOrCreate("sess-1", "user-1", t0)

	const n = 5
	var last time.Time
	for i := 1; i <= n; i++ {
		last = t0.Add(time.Duration(i) * time.Minute)
		rec, ok := reg.Touch("sess-1", last, "10.0.0.1", "cli/1.0")
		if !ok {
			t.Fatalf("touch %d: session missing", i)
		}
		if rec.RequestCount != int64(i) {
			t.Fatalf("touch %d: RequestCount=%d", i, rec.RequestCount)
		}
	}

	rec, _ := reg.GetOrCreate("sess-1", "user-1", last)
	if rec.LastActivity != last {
		t.Fatalf("LastActivity=%v want %v", rec.LastActivity, last)
	}
	if rec.IP != "10.0.0.1" || rec.UserAgent != "cli/1.0" {
		t.Fatalf("connection metadata not overwritten: %+v", rec)
	}
}

func TestRegistryTouchClearsWarning(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.GetOrCreate("sess-1", "user-1", t0)

	if !reg.SetWarningIssued("sess-1") {
		t.Fatal("expected first warning mark to succeed")
	}
	if reg.SetWarningIssued("sess-1") {
		t.Fatal("expected repeat warning mark to be suppressed")
	}

	rec, ok := reg.Touch("sess-1", t0.Add(time.Minute), "", "")
	if !ok {
		t.Fatal("session missing")
	}
	if rec.WarningIssued {
		t.Fatal("fresh activity must clear the warned state")
	}
	if !reg.SetWarningIssued("sess-1") {
		t.Fatal("expected warning mark to succeed again after activity")
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.GetOrCreate("sess-1", "user-1", t0)

	if _, ok := reg.Remove("sess-1"); !ok {
		t.Fatal("expected first remove to report the record")
	}
	if _, ok := reg.Remove("sess-1"); ok {
		t.Fatal("expected second remove to be a no-op")
	}
	if _, ok := reg.Remove("never-seen"); ok {
		t.Fatal("expected removal of unknown id to be a no-op")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}

func TestRegistryObserveCreatesAndCounts(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec, created, live := reg.Observe("sess-1", "user-1", t0, "10.0.0.9", "browser", alwaysLive)
	if !created {
		t.Fatal("expected creation on first observation")
	}
	if !live {
		t.Fatal("expected a fresh session to be observed as live")
	}
	if rec.RequestCount != 1 {
		t.Fatalf("creation counts as the first observation, RequestCount=%d", rec.RequestCount)
	}

	rec, created, _ = reg.Observe("sess-1", "user-1", t0.Add(time.Second), "10.0.0.9", "browser", alwaysLive)
	if created {
		t.Fatal("unexpected re-creation")
	}
	if rec.RequestCount != 2 {
		t.Fatalf("RequestCount=%d want 2", rec.RequestCount)
	}
}

func TestRegistryObserveRejectionLeavesRecordUntouched(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.Observe("sess-1", "user-1", t0, "10.0.0.1", "browser", alwaysLive)

	var seen domain.SessionRecord
	rec, created, live := reg.Observe("sess-1", "user-1", t0.Add(time.Hour), "10.9.9.9", "other",
		func(current domain.SessionRecord) bool {
			seen = current
			return false
		})
	if created || live {
		t.Fatalf("expected rejection of the existing session, created=%v live=%v", created, live)
	}
	if seen.LastActivity != t0 {
		t.Fatalf("decide must see the pre-request state, LastActivity=%v want %v", seen.LastActivity, t0)
	}
	if rec.LastActivity != t0 || rec.RequestCount != 1 {
		t.Fatalf("rejected request must not touch the record, got %+v", rec)
	}
	if rec.IP != "10.0.0.1" {
		t.Fatalf("rejected request must not overwrite metadata, IP=%q", rec.IP)
	}
}

func TestRegistryListByUserReturnsSnapshots(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.Observe("sess-a", "user-1", t0, "", "", alwaysLive)
	reg.Observe("sess-b", "user-1", t0.Add(time.Minute), "", "", alwaysLive)
	reg.Observe("sess-c", "user-2", t0, "", "", alwaysLive)

	list := reg.ListByUser("user-1")
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions for user-1, got %d", len(list))
	}
	if list[0].SessionID != "sess-b" {
		t.Fatalf("expected newest first, got %s", list[0].SessionID)
	}

	// Mutating the snapshot must not leak into the registry.
	list[0].RequestCount = 999
	rec, _ := reg.GetOrCreate("sess-b", "user-1", t0)
	if rec.RequestCount == 999 {
		t.Fatal("ListByUser leaked a live reference")
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	reg := NewRegistry()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.Observe("sess-a", "user-1", t0, "", "", alwaysLive)

	snap := reg.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 record, got %d", len(snap))
	}
	snap[0].UserID = "tampered"
	rec, _ := reg.GetOrCreate("sess-a", "user-1", t0)
	if rec.UserID != "user-1" {
		t.Fatal("Snapshot leaked a live reference")
	}
}
