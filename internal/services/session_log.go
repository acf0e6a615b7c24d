package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// SessionLog is the append-only, ordered history of finished sessions.
// It is held in memory and mirrored to the key-value store after appends.
// Each write merges with the stored list by record ID, so several processes
// sharing one database never drop each other's records.
type SessionLog struct {
	mu      sync.RWMutex
	records []domain.SessionRecord
	stats   domain.Stats
	// dirty is set when an append has not been written yet. persistQueued
	// is set while a persist effect is queued or running; that effect keeps
	// writing until dirty is clear.
	dirty         bool
	persistQueued bool

	kv      ports.KeyValueStore
	effects *effectWorker
	logger  *log.Logger
	now     func() time.Time
}

func newSessionLog(kv ports.KeyValueStore, effects *effectWorker, logger *log.Logger, now func() time.Time) *SessionLog {
	return &SessionLog{
		kv:      kv,
		effects: effects,
		logger:  logger,
		now:     now,
	}
}

// load replaces the in-memory log with the persisted one. A missing or
// malformed payload yields an empty log.
func (l *SessionLog) load(ctx context.Context) {
	records := readSessions(ctx, l.kv, l.logger)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	l.stats = domain.ComputeStats(records, l.now())
}

// readSessions returns the persisted records, or nil when there are none or
// the stored payload cannot be parsed.
func readSessions(ctx context.Context, kv ports.KeyValueStore, logger *log.Logger) []domain.SessionRecord {
	if kv == nil {
		return nil
	}
	data, err := kv.Get(ctx, ports.KeySessions)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		logger.Printf("failed to load sessions: %v", err)
		return nil
	}

	var records []domain.SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Printf("ignoring malformed sessions payload: %v", err)
		return nil
	}
	return records
}

// Append adds a record and schedules a write of the persisted list.
// It never fails or blocks from the caller's point of view.
func (l *SessionLog) Append(record domain.SessionRecord) {
	l.mu.Lock()
	l.records = append(l.records, record)
	l.dirty = true
	if l.kv == nil || l.persistQueued {
		l.mu.Unlock()
		return
	}
	l.persistQueued = true
	l.mu.Unlock()

	if !l.effects.Submit("persist sessions", l.persist) {
		l.mu.Lock()
		l.persistQueued = false
		l.mu.Unlock()
	}
}

// persist writes the log until no append is left unwritten.
func (l *SessionLog) persist(ctx context.Context) error {
	for {
		l.mu.Lock()
		if !l.dirty {
			l.persistQueued = false
			l.mu.Unlock()
			return nil
		}
		l.dirty = false
		local := make([]domain.SessionRecord, len(l.records))
		copy(local, l.records)
		l.mu.Unlock()

		if err := l.write(ctx, local); err != nil {
			l.mu.Lock()
			l.dirty = true
			l.persistQueued = false
			l.mu.Unlock()
			return err
		}
	}
}

// flushPending writes the log if an append has not reached the store yet.
func (l *SessionLog) flushPending(ctx context.Context) error {
	l.mu.Lock()
	if l.kv == nil || !l.dirty {
		l.mu.Unlock()
		return nil
	}
	l.dirty = false
	local := make([]domain.SessionRecord, len(l.records))
	copy(local, l.records)
	l.mu.Unlock()
	return l.write(ctx, local)
}

// write merges local into the stored list and adopts records other
// processes wrote in the meantime.
func (l *SessionLog) write(ctx context.Context, local []domain.SessionRecord) error {
	var merged []domain.SessionRecord
	err := l.kv.Update(ctx, ports.KeySessions, func(current []byte) ([]byte, error) {
		var stored []domain.SessionRecord
		if len(current) > 0 {
			if err := json.Unmarshal(current, &stored); err != nil {
				l.logger.Printf("replacing malformed sessions payload: %v", err)
				stored = nil
			}
		}
		merged = mergeRecords(stored, local)
		data, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("failed to encode sessions: %w", err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if all := mergeRecords(l.records, merged); len(all) != len(l.records) {
		l.records = all
		l.stats = domain.ComputeStats(l.records, l.now())
	}
	return nil
}

// mergeRecords returns base plus the records of extra whose ID base lacks,
// ordered by completion time. Records of equal time keep their order.
func mergeRecords(base, extra []domain.SessionRecord) []domain.SessionRecord {
	seen := make(map[string]struct{}, len(base))
	out := make([]domain.SessionRecord, 0, len(base)+len(extra))
	for _, r := range base {
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	added := false
	for _, r := range extra {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
		added = true
	}
	if added {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		})
	}
	return out
}

// Len returns the number of records.
func (l *SessionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// All returns a copy of every record, oldest first.
func (l *SessionLog) All() []domain.SessionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.SessionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Last returns the most recent record.
func (l *SessionLog) Last() (domain.SessionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return domain.SessionRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

// ByTask returns the records that reference taskID.
func (l *SessionLog) ByTask(taskID string) []domain.SessionRecord {
	return domain.SessionsByTask(l.All(), taskID)
}

// ByDate returns the records whose timestamp starts with dateISO.
func (l *SessionLog) ByDate(dateISO string) []domain.SessionRecord {
	return domain.SessionsByDate(l.All(), dateISO)
}

// TotalFocusTime sums completed focus time, optionally by task and range.
func (l *SessionLog) TotalFocusTime(taskID *string, rng *domain.DateRange) time.Duration {
	return domain.TotalFocusTime(l.All(), taskID, rng)
}

// Stats returns the aggregates computed at load time or at the last refresh.
func (l *SessionLog) Stats() domain.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

// RefreshStats recomputes the aggregates against the current time.
func (l *SessionLog) RefreshStats() domain.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats = domain.ComputeStats(l.records, l.now())
	return l.stats
}

// Ensure SessionLog implements ports.SessionQuerier.
var _ ports.SessionQuerier = (*SessionLog)(nil)
