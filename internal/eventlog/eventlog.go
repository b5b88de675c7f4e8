// Package eventlog implements the per-session append-only event log as one
// JSON file per session. Producers append synchronously; observers poll by
// reading whole files. Sessions never write to each other's logs.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"go.uber.org/zap"
)

// sessionLog is the on-disk record: one per session.
type sessionLog struct {
	SessionID string         `json:"session_id"`
	Events    []domain.Event `json:"events"`
}

// FileLog stores one JSON file per session under dir. Appends are
// read-modify-write under a per-session mutex, so a session's log keeps a
// strict total order even with concurrent producers in-process.
type FileLog struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileLog(dir string, logger *zap.Logger) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}
	return &FileLog{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (l *FileLog) sessionLock(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	return lock
}

func (l *FileLog) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(l.dir, sessionID+".json"), nil
}

func (l *FileLog) Publish(ctx context.Context, e *domain.Event) error {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	path, err := l.path(e.SessionID)
	if err != nil {
		return err
	}

	lock := l.sessionLock(e.SessionID)
	lock.Lock()
	defer lock.Unlock()

	record := sessionLog{SessionID: e.SessionID}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &record); err != nil {
			// A corrupt log must not lose new events; start a fresh record.
			l.logger.Warn("corrupt session log, restarting record",
				zap.String("session_id", e.SessionID), zap.Error(err))
			record = sessionLog{SessionID: e.SessionID}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read session log: %w", err)
	}

	record.Events = append(record.Events, *e)

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session log: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace session log: %w", err)
	}
	return nil
}

// SessionEvents returns the session's events in chronological order.
// Events with malformed timestamps are returned last, never dropped.
func (l *FileLog) SessionEvents(ctx context.Context, sessionID string) ([]domain.Event, error) {
	record, err := l.read(sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	events := record.Events
	sort.SliceStable(events, func(i, j int) bool {
		ti, iok := events[i].ParsedTimestamp()
		tj, jok := events[j].ParsedTimestamp()
		if iok && jok {
			return ti.Before(tj)
		}
		return iok && !jok
	})
	return events, nil
}

// ActiveSessions lists session ids most-recent-first, filtered by file
// modification age when maxAge > 0.
func (l *FileLog) ActiveSessions(ctx context.Context, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read event log dir: %w", err)
	}

	type candidate struct {
		id    string
		mtime time.Time
	}
	var sessions []candidate
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if maxAge > 0 && info.ModTime().Before(cutoff) {
			continue
		}
		sessions = append(sessions, candidate{
			id:    strings.TrimSuffix(entry.Name(), ".json"),
			mtime: info.ModTime(),
		})
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].mtime.After(sessions[j].mtime) })

	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.id
	}
	return ids, nil
}

func (l *FileLog) SessionSummary(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	events, err := l.SessionEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		return nil, nil
	}

	summary := &domain.SessionSummary{
		SessionID:   sessionID,
		TotalEvents: len(events),
		Status:      "active",
	}
	if len(events) > 0 {
		summary.StartedAt = events[0].Timestamp
		summary.LastEventAt = events[len(events)-1].Timestamp
	}
	for _, e := range events {
		if e.EventType == domain.EventSessionStarted && summary.UserInput == "" {
			if input, ok := e.Metadata["user_input"].(string); ok {
				summary.UserInput = input
			}
		}
		if e.EventType == domain.EventSessionCompleted {
			summary.Status = "completed"
			if final, ok := e.Metadata["final_status"].(string); ok {
				summary.FinalStatus = final
			}
		}
	}
	return summary, nil
}

// Clear removes a session's log and reports whether it existed.
func (l *FileLog) Clear(ctx context.Context, sessionID string) (bool, error) {
	path, err := l.path(sessionID)
	if err != nil {
		return false, err
	}

	lock := l.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove session log: %w", err)
	}
	return true, nil
}

func (l *FileLog) read(sessionID string) (*sessionLog, error) {
	path, err := l.path(sessionID)
	if err != nil {
		return nil, err
	}

	lock := l.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session log: %w", err)
	}

	var record sessionLog
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse session log: %w", err)
	}
	return &record, nil
}

var _ domain.EventLog = (*FileLog)(nil)
