package domain

import "time"

// EventType tags entries on the per-session event log.
type EventType string

const (
	EventSessionStarted         EventType = "session_started"
	EventSessionCompleted       EventType = "session_completed"
	EventAgentStarted           EventType = "agent_started"
	EventAgentCompleted         EventType = "agent_completed"
	EventAgentError             EventType = "agent_error"
	EventCognitiveModelUpdated  EventType = "cognitive_model_updated"
	EventClarificationRequested EventType = "clarification_requested"
	EventClarificationResolved  EventType = "clarification_resolved"
)

// Event is one append-only record on the session log. Timestamps are
// ISO-8601 UTC strings so the log files stay language-neutral.
type Event struct {
	SessionID    string         `json:"session_id"`
	EventType    EventType      `json:"event_type"`
	Timestamp    string         `json:"timestamp"`
	AgentName    string         `json:"agent_name,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	TokensInput  int            `json:"tokens_input,omitempty"`
	TokensOutput int            `json:"tokens_output,omitempty"`
	Cost         float64        `json:"cost,omitempty"`
	Duration     float64        `json:"duration,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(sessionID string, eventType EventType) *Event {
	return &Event{
		SessionID: sessionID,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// ParsedTimestamp returns the event time and whether it parsed cleanly.
// Malformed timestamps sort last on read, never dropped.
func (e *Event) ParsedTimestamp() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		t, err = time.Parse(time.RFC3339, e.Timestamp)
	}
	return t, err == nil
}

// SessionSummary condenses a session's log for listings.
type SessionSummary struct {
	SessionID   string `json:"session_id"`
	TotalEvents int    `json:"total_events"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at,omitempty"`
	LastEventAt string `json:"last_event_at,omitempty"`
	UserInput   string `json:"user_input,omitempty"`
	FinalStatus string `json:"final_status,omitempty"`
}
