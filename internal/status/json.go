package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Session         string     `json:"session,omitempty"`
	Version         string     `json:"version,omitempty"`
	State           string     `json:"state"`
	ElapsedSeconds  int64      `json:"elapsed_seconds"`
	Time            string     `json:"time"`
	DaysLabel       string     `json:"days_label,omitempty"`
	ControlsVisible bool       `json:"controls_visible"`
	Image           string     `json:"image,omitempty"`
	ImageError      string     `json:"image_error,omitempty"`
	InputsEnabled   bool       `json:"inputs_enabled"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
	StartTime       string     `json:"start_time"`
	Timestamp       string     `json:"timestamp"`
	MQTT            MQTTStatus `json:"mqtt"`
	Counts          CountsJSON `json:"press_counts"`
	Config          ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of press counts.
type CountsJSON struct {
	StartStop  int `json:"start_stop"`
	Reset      int `json:"reset"`
	Suppressed int `json:"suppressed"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HideDelayMs int64  `json:"hide_delay_ms"`
	RotateMs    int64  `json:"image_rotate_ms"`
	Rollover    bool   `json:"rollover"`
	InputMode   string `json:"input_mode"`
	ImageDir    string `json:"image_dir"`
	HTTPAddr    string `json:"http_addr"`
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Session:         snap.Session,
		Version:         snap.Version,
		State:           snap.State.String(),
		ElapsedSeconds:  int64(snap.Elapsed / time.Second),
		Time:            snap.Time,
		ControlsVisible: snap.ControlsVisible,
		Image:           snap.Image,
		ImageError:      snap.ImageError,
		InputsEnabled:   snap.InputsEnabled,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			StartStop:  snap.Counts.StartStop,
			Reset:      snap.Counts.Reset,
			Suppressed: snap.Counts.Suppressed,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HideDelayMs: snap.Config.HideDelayMs,
			RotateMs:    snap.Config.RotateMs,
			Rollover:    snap.Config.Rollover,
			InputMode:   snap.Config.InputMode,
			ImageDir:    snap.Config.ImageDir,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.DaysVisible {
		inner.DaysLabel = snap.DaysLabel
	}
	return inner
}
