package session

import (
	"sort"
	"sync"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
)

// Clock abstracts time.Now so tests can drive expiry deterministically.
type Clock func() time.Time

// Registry is the process-local store of live session records, keyed by
// session ID. It is a cache over the external token store, not the source of
// truth: an unknown session ID on touch simply creates a fresh record.
//
// All mutation goes through Observe, Touch, SetWarningIssued and Remove, each
// atomic under a single mutex. Reads hand out copies, never live pointers.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*domain.SessionRecord
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*domain.SessionRecord)}
}

// GetOrCreate returns the record for sessionID, constructing one observed at
// now when absent. The returned record is a copy; created reports whether a
// new record was stored.
func (reg *Registry) GetOrCreate(sessionID, userID string, now time.Time) (domain.SessionRecord, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rec, created := reg.getOrCreateLocked(sessionID, userID, now)
	return rec.Clone(), created
}

// Touch records activity on an existing session: bumps LastActivity and
// RequestCount, overwrites connection metadata, and clears any issued
// warning (fresh activity proves the user is back). Returns false when the
// session is not present.
func (reg *Registry) Touch(sessionID string, now time.Time, ip, userAgent string) (domain.SessionRecord, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rec, ok := reg.byID[sessionID]
	if !ok {
		return domain.SessionRecord{}, false
	}
	reg.touchLocked(rec, now, ip, userAgent)
	return rec.Clone(), true
}

// Observe applies one authenticated request to the session's record,
// creating it on first sight. decide sees the record as it stood before this
// request arrived; only when it reports the session live is the record
// touched (activity stamped, request counted, warning flag cleared). A
// rejected request leaves the record exactly as it found it, so an idle
// session cannot revive itself by showing up late. The whole sequence holds
// the registry lock, so a concurrent sweep cannot slip between the steps.
func (reg *Registry) Observe(sessionID, userID string, now time.Time, ip, userAgent string, decide func(current domain.SessionRecord) bool) (rec domain.SessionRecord, created, live bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	stored, created := reg.getOrCreateLocked(sessionID, userID, now)
	if !decide(stored.Clone()) {
		return stored.Clone(), created, false
	}
	reg.touchLocked(stored, now, ip, userAgent)
	return stored.Clone(), created, true
}

// SetWarningIssued marks the session as warned. It returns true only on the
// false-to-true transition, so the caller emits at most one warning per
// approach to timeout.
func (reg *Registry) SetWarningIssued(sessionID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rec, ok := reg.byID[sessionID]
	if !ok || rec.WarningIssued {
		return false
	}
	rec.WarningIssued = true
	return true
}

// Remove deletes the session and returns its final state. Idempotent:
// removing an absent ID reports ok=false and changes nothing. The ok result
// is what makes expiry handling exactly-once when the tracker and the
// sweeper race on the same session.
func (reg *Registry) Remove(sessionID string) (domain.SessionRecord, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rec, ok := reg.byID[sessionID]
	if !ok {
		return domain.SessionRecord{}, false
	}
	delete(reg.byID, sessionID)
	return rec.Clone(), true
}

// ListByUser returns snapshots of the user's sessions, most recently created
// first.
func (reg *Registry) ListByUser(userID string) []domain.SessionRecord {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]domain.SessionRecord, 0, 4)
	for _, rec := range reg.byID {
		if rec.UserID == userID {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Snapshot returns copies of every record, for the sweeper and for stats.
func (reg *Registry) Snapshot() []domain.SessionRecord {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]domain.SessionRecord, 0, len(reg.byID))
	for _, rec := range reg.byID {
		out = append(out, rec.Clone())
	}
	return out
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.byID)
}

func (reg *Registry) getOrCreateLocked(sessionID, userID string, now time.Time) (*domain.SessionRecord, bool) {
	if rec, ok := reg.byID[sessionID]; ok {
		return rec, false
	}
	rec := &domain.SessionRecord{
		SessionID:    sessionID,
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
	}
	reg.byID[sessionID] = rec
	return rec, true
}

func (reg *Registry) touchLocked(rec *domain.SessionRecord, now time.Time, ip, userAgent string) {
	rec.LastActivity = now
	rec.RequestCount++
	rec.IP = ip
	rec.UserAgent = userAgent
	rec.WarningIssued = false
}
