// Package mqtt publishes stopwatch state to an MQTT broker and accepts
// remote commands, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"
)

// Topic suffixes appended to the configured prefix.
const (
	TopicState   = "state"
	TopicSystem  = "system"
	TopicCommand = "command"
)

// Commands accepted on the command topic.
const (
	CommandToggle   = "toggle"
	CommandReset    = "reset"
	CommandActivity = "activity"
)

// Publisher publishes stopwatch events.
type Publisher interface {
	// PublishState sends the current stopwatch state (retained).
	// It must not block; failures are reported but never crash the process.
	PublishState(event StateEvent) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandFunc receives a validated command. It runs on a paho goroutine.
type CommandFunc func(cmd string)

// StateEvent is a stopwatch snapshot.
type StateEvent struct {
	Timestamp       time.Time
	Cause           string // e.g. "TICK", "TOGGLE", "RESET", "VISIBILITY", "IMAGE"
	Session         string
	State           string
	Elapsed         int64
	Time            string
	DaysLabel       string
	ControlsVisible bool
	Image           string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason    string // e.g., "SIGTERM", "quit" (shutdown only)
	Session   string
	Version   string
	Retained  bool // Whether the message should be retained by the broker
}

// Payload represents the state message structure.
type Payload struct {
	Stopwatch StopwatchPayload `json:"stopwatch"`
}

// StopwatchPayload contains the state details.
type StopwatchPayload struct {
	Timestamp string `json:"timestamp"`
	Cause     string `json:"cause"`
	Session   string `json:"session,omitempty"`
	State     string `json:"state"`
	Elapsed   int64  `json:"elapsed_seconds"`
	Time      string `json:"time"`
	DaysLabel string `json:"days_label,omitempty"`
	Controls  bool   `json:"controls_visible"`
	Image     string `json:"image,omitempty"`
}

// FormatState creates the JSON payload for a state event.
func FormatState(event StateEvent) ([]byte, error) {
	return json.Marshal(Payload{
		Stopwatch: StopwatchPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Cause:     event.Cause,
			Session:   event.Session,
			State:     event.State,
			Elapsed:   event.Elapsed,
			Time:      event.Time,
			DaysLabel: event.DaysLabel,
			Controls:  event.ControlsVisible,
			Image:     event.Image,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	Session   string `json:"session,omitempty"`
	Version   string `json:"version,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Session:   event.Session,
			Version:   event.Version,
		},
	})
}

// ParseCommand normalises a command payload. It reports false for
// anything other than a known command.
func ParseCommand(payload []byte) (string, bool) {
	cmd := strings.ToLower(strings.TrimSpace(string(payload)))
	switch cmd {
	case CommandToggle, CommandReset, CommandActivity:
		return cmd, true
	default:
		return "", false
	}
}

// JoinTopic joins prefix and suffix with a single slash.
func JoinTopic(prefix, suffix string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + suffix
}
