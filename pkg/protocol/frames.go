// Package protocol defines the wire types of the timekeeper control API:
// JSON request and response bodies, and the frames pushed on the
// server-sent event stream.
package protocol

import "encoding/json"

// FrameType identifies the type of an event frame.
type FrameType string

const (
	// Stream lifecycle
	FrameTypeConnectionAck FrameType = "connection_ack"
	FrameTypeHeartbeat     FrameType = "heartbeat"

	// Clock events
	FrameTypeTick           FrameType = "tick"
	FrameTypeTimerCompleted FrameType = "timer_completed"
	FrameTypeAlarmRinging   FrameType = "alarm_ringing"

	// Any mutation of persisted state
	FrameTypeStateChanged FrameType = "state_changed"

	// Errors
	FrameTypeError FrameType = "error"
)

// Frame is the envelope for every event on the stream.
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConnectionAck is the first frame on a new event stream.
type ConnectionAck struct {
	SubscriberID        string `json:"subscriber_id"`
	HeartbeatIntervalMs int64  `json:"heartbeat_interval_ms"`
}

// Heartbeat keeps idle streams open through proxies.
type Heartbeat struct {
	Timestamp int64 `json:"timestamp"`
}

// Tick sources.
const (
	TickSourceTimer     = "timer"
	TickSourceStopwatch = "stopwatch"
)

// Tick reports a display update. Timer ticks carry the ticker's count and
// observed drift; stopwatch ticks come from the foreground loop.
type Tick struct {
	Source           string `json:"source"`
	TickCount        int64  `json:"tick_count,omitempty"`
	DriftMs          int64  `json:"drift_ms,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
	ElapsedMs        int64  `json:"elapsed_ms,omitempty"`
	Fallback         bool   `json:"fallback,omitempty"`
}

// TimerCompleted is sent once per countdown run reaching zero.
type TimerCompleted struct {
	CompletedAt  int64 `json:"completed_at"`
	TotalSeconds int64 `json:"total_seconds"`
	Session      int64 `json:"session"`
	WhileAway    bool  `json:"while_away"`
}

// AlarmRinging is sent when an alarm starts ringing.
type AlarmRinging struct {
	Alarm Alarm `json:"alarm"`
}

// Components named in StateChanged.
const (
	ComponentTimer     = "timer"
	ComponentStopwatch = "stopwatch"
	ComponentAlarms    = "alarms"
	ComponentZones     = "zones"
)

// StateChanged is sent after any operation that changes persisted state.
type StateChanged struct {
	Component string `json:"component"`
	Action    string `json:"action"`
}

// Error reports a failure, on the stream or as an HTTP response body.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// NewFrame creates a Frame with the given type and payload.
func NewFrame(frameType FrameType, payload any) (*Frame, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Frame{
		Type:    frameType,
		Payload: payloadBytes,
	}, nil
}

// ParsePayload unmarshals the frame payload into the given struct.
func (f *Frame) ParsePayload(v any) error {
	if f.Payload == nil {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}
