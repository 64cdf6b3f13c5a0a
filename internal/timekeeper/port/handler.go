// Package port exposes the timekeeper service over HTTP: JSON control
// routes on a grpc-gateway runtime mux and a server-sent event stream.
package port

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/aelexs/timekeeper/internal/alarm"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/errmap"
	"github.com/aelexs/timekeeper/internal/timekeeper/app"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// maxBodyBytes bounds request bodies; every request type is tiny.
const maxBodyBytes = 64 << 10

// DefaultHeartbeatInterval is how often idle event streams get a heartbeat.
const DefaultHeartbeatInterval = 15 * time.Second

// service is a narrow, consumer-defined interface for the operations the
// handler exposes. The *app.Service satisfies it.
type service interface {
	TimerStatus(ctx context.Context) protocol.TimerStatus
	ConfigureTimer(ctx context.Context, seconds int64) (protocol.TimerStatus, error)
	StartTimer(ctx context.Context) protocol.TimerStatus
	PauseTimer(ctx context.Context) protocol.TimerStatus
	ResetTimer(ctx context.Context) protocol.TimerStatus
	AddTime(ctx context.Context, seconds int64) (protocol.TimerStatus, error)
	ClearTimer(ctx context.Context) protocol.TimerStatus

	StopwatchStatus(ctx context.Context) protocol.StopwatchStatus
	StartStopwatch(ctx context.Context) protocol.StopwatchStatus
	StopStopwatch(ctx context.Context) protocol.StopwatchStatus
	ToggleStopwatch(ctx context.Context) protocol.StopwatchStatus
	Lap(ctx context.Context) protocol.StopwatchStatus
	ResetStopwatch(ctx context.Context) protocol.StopwatchStatus

	ListAlarms(ctx context.Context) protocol.AlarmList
	GetAlarm(ctx context.Context, id domain.AlarmID) (protocol.Alarm, error)
	AddAlarm(ctx context.Context, at alarm.ClockTime, opts alarm.Options) (protocol.Alarm, error)
	UpdateAlarm(ctx context.Context, id domain.AlarmID, p alarm.Patch) (protocol.Alarm, error)
	ToggleAlarm(ctx context.Context, id domain.AlarmID) (protocol.Alarm, error)
	DeleteAlarm(ctx context.Context, id domain.AlarmID) error
	DismissAlarm(ctx context.Context) (protocol.Alarm, error)
	SnoozeAlarm(ctx context.Context, minutes int) (protocol.Alarm, error)

	ListZones(ctx context.Context) protocol.ZoneList
	AvailableZones(ctx context.Context) []protocol.ZoneInfo
	AddZone(ctx context.Context, zone string) (protocol.ZoneList, error)
	RemoveZone(ctx context.Context, zone string) (protocol.ZoneList, error)
	MoveZone(ctx context.Context, from, to int) (protocol.ZoneList, error)
	ResetZones(ctx context.Context) protocol.ZoneList

	Subscribe() *app.Subscription
}

var _ service = (*app.Service)(nil)

// HandlerConfig holds the dependencies for Handler.
type HandlerConfig struct {
	Service *app.Service

	// Validator guards every /v1 route when non-nil.
	Validator TokenValidator

	Logger            *slog.Logger
	Clock             domain.Clock
	HeartbeatInterval time.Duration
}

// Handler serves the control API.
type Handler struct {
	svc       service
	logger    *slog.Logger
	clock     domain.Clock
	heartbeat time.Duration
	root      http.Handler
}

// NewHandler registers every route and returns the handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	return newHandler(cfg.Service, cfg)
}

func newHandler(svc service, cfg HandlerConfig) (*Handler, error) {
	h := &Handler{
		svc:       svc,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
		heartbeat: cfg.HeartbeatInterval,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.clock == nil {
		h.clock = domain.RealClock{}
	}
	if h.heartbeat <= 0 {
		h.heartbeat = DefaultHeartbeatInterval
	}

	mux := runtime.NewServeMux(runtime.WithRoutingErrorHandler(routingError))
	if err := h.register(mux); err != nil {
		return nil, err
	}

	h.root = mux
	if cfg.Validator != nil {
		h.root = requireToken(cfg.Validator, h.logger, mux)
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

type route struct {
	method  string
	pattern string
	fn      runtime.HandlerFunc
}

func (h *Handler) register(mux *runtime.ServeMux) error {
	routes := []route{
		{http.MethodGet, "/v1/timer", h.timerStatus},
		{http.MethodDelete, "/v1/timer", h.clearTimer},
		{http.MethodPost, "/v1/timer/configure", h.configureTimer},
		{http.MethodPost, "/v1/timer/start", h.startTimer},
		{http.MethodPost, "/v1/timer/pause", h.pauseTimer},
		{http.MethodPost, "/v1/timer/reset", h.resetTimer},
		{http.MethodPost, "/v1/timer/add", h.addTime},

		{http.MethodGet, "/v1/stopwatch", h.stopwatchStatus},
		{http.MethodPost, "/v1/stopwatch/start", h.startStopwatch},
		{http.MethodPost, "/v1/stopwatch/stop", h.stopStopwatch},
		{http.MethodPost, "/v1/stopwatch/toggle", h.toggleStopwatch},
		{http.MethodPost, "/v1/stopwatch/lap", h.lap},
		{http.MethodPost, "/v1/stopwatch/reset", h.resetStopwatch},

		{http.MethodGet, "/v1/alarms", h.listAlarms},
		{http.MethodPost, "/v1/alarms", h.addAlarm},
		{http.MethodPost, "/v1/alarms/dismiss", h.dismissAlarm},
		{http.MethodPost, "/v1/alarms/snooze", h.snoozeAlarm},
		{http.MethodGet, "/v1/alarms/{id}", h.getAlarm},
		{http.MethodPatch, "/v1/alarms/{id}", h.updateAlarm},
		{http.MethodDelete, "/v1/alarms/{id}", h.deleteAlarm},
		{http.MethodPost, "/v1/alarms/{id}/toggle", h.toggleAlarm},

		// Zone names contain slashes, so they travel in the body or query.
		{http.MethodGet, "/v1/zones", h.listZones},
		{http.MethodPost, "/v1/zones", h.addZone},
		{http.MethodDelete, "/v1/zones", h.removeZone},
		{http.MethodGet, "/v1/zones/available", h.availableZones},
		{http.MethodPost, "/v1/zones/move", h.moveZone},
		{http.MethodPost, "/v1/zones/reset", h.resetZones},

		{http.MethodGet, "/v1/events", h.events},
	}

	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.fn); err != nil {
			return fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Timer
// ---------------------------------------------------------------------------

func (h *Handler) timerStatus(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.TimerStatus(r.Context()))
}

func (h *Handler) configureTimer(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req protocol.SecondsRequest
	if err := decodeBody(r, &req, true); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	st, err := h.svc.ConfigureTimer(r.Context(), req.Seconds)
	respond(w, st, err)
}

func (h *Handler) startTimer(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.StartTimer(r.Context()))
}

func (h *Handler) pauseTimer(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.PauseTimer(r.Context()))
}

func (h *Handler) resetTimer(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ResetTimer(r.Context()))
}

func (h *Handler) addTime(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req protocol.SecondsRequest
	if err := decodeBody(r, &req, true); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	st, err := h.svc.AddTime(r.Context(), req.Seconds)
	respond(w, st, err)
}

func (h *Handler) clearTimer(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ClearTimer(r.Context()))
}

// ---------------------------------------------------------------------------
// Stopwatch
// ---------------------------------------------------------------------------

func (h *Handler) stopwatchStatus(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.StopwatchStatus(r.Context()))
}

func (h *Handler) startStopwatch(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.StartStopwatch(r.Context()))
}

func (h *Handler) stopStopwatch(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.StopStopwatch(r.Context()))
}

func (h *Handler) toggleStopwatch(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ToggleStopwatch(r.Context()))
}

func (h *Handler) lap(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.Lap(r.Context()))
}

func (h *Handler) resetStopwatch(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ResetStopwatch(r.Context()))
}

// ---------------------------------------------------------------------------
// Alarms
// ---------------------------------------------------------------------------

func (h *Handler) listAlarms(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ListAlarms(r.Context()))
}

func (h *Handler) getAlarm(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := domain.NewAlarmID(params["id"])
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	a, err := h.svc.GetAlarm(r.Context(), id)
	respond(w, a, err)
}

func (h *Handler) addAlarm(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req protocol.AddAlarmRequest
	if err := decodeBody(r, &req, true); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	at, err := alarm.ParseClockTime(req.Time)
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}

	a, err := h.svc.AddAlarm(r.Context(), at, alarm.Options{
		Label:      req.Label,
		RepeatDays: weekdays(req.RepeatDays),
		SoundID:    req.SoundID,
		Volume:     req.Volume,
		Vibration:  req.Vibration,
	})
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) updateAlarm(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := domain.NewAlarmID(params["id"])
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	var req protocol.UpdateAlarmRequest
	if err := decodeBody(r, &req, true); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	patch, err := toPatch(req)
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	a, err := h.svc.UpdateAlarm(r.Context(), id, patch)
	respond(w, a, err)
}

func (h *Handler) toggleAlarm(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := domain.NewAlarmID(params["id"])
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	a, err := h.svc.ToggleAlarm(r.Context(), id)
	respond(w, a, err)
}

func (h *Handler) deleteAlarm(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := domain.NewAlarmID(params["id"])
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	if err := h.svc.DeleteAlarm(r.Context(), id); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dismissAlarm(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	a, err := h.svc.DismissAlarm(r.Context())
	respond(w, a, err)
}

func (h *Handler) snoozeAlarm(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req protocol.SnoozeRequest
	if err := decodeBody(r, &req, false); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	a, err := h.svc.SnoozeAlarm(r.Context(), req.Minutes)
	respond(w, a, err)
}

// ---------------------------------------------------------------------------
// World clock
// ---------------------------------------------------------------------------

func (h *Handler) listZones(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ListZones(r.Context()))
}

func (h *Handler) availableZones(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.AvailableZones(r.Context()))
}

func (h *Handler) addZone(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req protocol.ZoneRequest
	if err := decodeBody(r, &req, true); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	list, err := h.svc.AddZone(r.Context(), req.Zone)
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// removeZone takes the zone from the "zone" query parameter, or from a
// ZoneRequest body when the parameter is absent.
func (h *Handler) removeZone(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := protocol.ZoneRequest{Zone: r.URL.Query().Get("zone")}
	if req.Zone == "" {
		if err := decodeBody(r, &req, true); err != nil {
			errmap.WriteHTTPError(w, err)
			return
		}
	}
	list, err := h.svc.RemoveZone(r.Context(), req.Zone)
	respond(w, list, err)
}

func (h *Handler) moveZone(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req protocol.MoveZoneRequest
	if err := decodeBody(r, &req, true); err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	list, err := h.svc.MoveZone(r.Context(), req.From, req.To)
	respond(w, list, err)
}

func (h *Handler) resetZones(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, h.svc.ResetZones(r.Context()))
}

func toPatch(req protocol.UpdateAlarmRequest) (alarm.Patch, error) {
	p := alarm.Patch{
		Label:     req.Label,
		Enabled:   req.Enabled,
		SoundID:   req.SoundID,
		Volume:    req.Volume,
		Vibration: req.Vibration,
	}
	if req.Time != nil {
		at, err := alarm.ParseClockTime(*req.Time)
		if err != nil {
			return alarm.Patch{}, err
		}
		p.Time = &at
	}
	if req.RepeatDays != nil {
		days := weekdays(*req.RepeatDays)
		p.RepeatDays = &days
	}
	return p, nil
}

// weekdays converts wire day numbers (0 = Sunday) to time.Weekday. Range
// checks happen in the alarm book.
func weekdays(days []int) []time.Weekday {
	if days == nil {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// decodeBody decodes a JSON request body into v. Unknown fields are
// rejected. An empty body is accepted unless required is set.
func decodeBody(r *http.Request, v any, required bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		if required {
			return fmt.Errorf("%w: request body required", domain.ErrInvalidInput)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return nil
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		errmap.WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// routingError renders unmatched routes in the same error shape as
// handler failures.
func routingError(_ context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, _ *http.Request, status int) {
	switch status {
	case http.StatusMethodNotAllowed:
		errmap.WriteStatus(w, status, "METHOD_NOT_ALLOWED", "method not allowed")
	case http.StatusNotFound:
		errmap.WriteStatus(w, status, "NOT_FOUND", "no such route")
	default:
		errmap.WriteStatus(w, status, "INVALID_ARGUMENT", http.StatusText(status))
	}
}
