package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/timekeeper/internal/alarm"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// ListAlarms returns every alarm, sorted by time of day, and the ringing
// alarm if there is one.
func (s *Service) ListAlarms(ctx context.Context) protocol.AlarmList {
	return mutate(ctx, s, func() protocol.AlarmList {
		now := s.clock.Now()
		list := s.alarms.List()
		out := protocol.AlarmList{Alarms: make([]protocol.Alarm, len(list))}
		for i, a := range list {
			out.Alarms[i] = s.alarmViewLocked(a, now)
		}
		if a, ok := s.alarms.Ringing(); ok {
			v := s.alarmViewLocked(a, now)
			out.Ringing = &v
		}
		return out
	})
}

// GetAlarm returns one alarm.
func (s *Service) GetAlarm(ctx context.Context, id domain.AlarmID) (protocol.Alarm, error) {
	type result struct {
		view protocol.Alarm
		err  error
	}
	r := mutate(ctx, s, func() result {
		a, err := s.alarms.Get(id)
		if err != nil {
			return result{err: err}
		}
		return result{view: s.alarmViewLocked(a, s.clock.Now())}
	})
	return r.view, r.err
}

// AddAlarm creates an enabled alarm.
func (s *Service) AddAlarm(ctx context.Context, at alarm.ClockTime, opts alarm.Options) (protocol.Alarm, error) {
	ctx, span := tracer.Start(ctx, "alarms.add", trace.WithAttributes(attribute.String("time", at.String())))
	defer span.End()

	return s.alarmOp(ctx, span, "add", func() (alarm.Alarm, error) {
		return s.alarms.Add(at, opts)
	})
}

// UpdateAlarm applies a partial update.
func (s *Service) UpdateAlarm(ctx context.Context, id domain.AlarmID, p alarm.Patch) (protocol.Alarm, error) {
	ctx, span := tracer.Start(ctx, "alarms.update", trace.WithAttributes(attribute.String("alarm_id", id.String())))
	defer span.End()

	return s.alarmOp(ctx, span, "update", func() (alarm.Alarm, error) {
		return s.alarms.Update(id, p)
	})
}

// ToggleAlarm enables or disables an alarm.
func (s *Service) ToggleAlarm(ctx context.Context, id domain.AlarmID) (protocol.Alarm, error) {
	ctx, span := tracer.Start(ctx, "alarms.toggle", trace.WithAttributes(attribute.String("alarm_id", id.String())))
	defer span.End()

	return s.alarmOp(ctx, span, "toggle", func() (alarm.Alarm, error) {
		return s.alarms.Toggle(id)
	})
}

// DeleteAlarm removes an alarm, silencing it if it is ringing.
func (s *Service) DeleteAlarm(ctx context.Context, id domain.AlarmID) error {
	ctx, span := tracer.Start(ctx, "alarms.delete", trace.WithAttributes(attribute.String("alarm_id", id.String())))
	defer span.End()

	err := mutate(ctx, s, func() error {
		if err := s.alarms.Delete(id); err != nil {
			return err
		}
		s.saveAlarmsLocked()
		s.changedLocked(protocol.ComponentAlarms, "delete")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// DismissAlarm silences the ringing alarm. One-shot alarms are disabled.
func (s *Service) DismissAlarm(ctx context.Context) (protocol.Alarm, error) {
	ctx, span := tracer.Start(ctx, "alarms.dismiss")
	defer span.End()

	return s.alarmOp(ctx, span, "dismiss", func() (alarm.Alarm, error) {
		a, ok := s.alarms.Dismiss()
		if !ok {
			return alarm.Alarm{}, fmt.Errorf("no alarm ringing: %w", domain.ErrNotFound)
		}
		return a, nil
	})
}

// SnoozeAlarm moves the ringing alarm minutes into the future. Zero uses
// the configured snooze length.
func (s *Service) SnoozeAlarm(ctx context.Context, minutes int) (protocol.Alarm, error) {
	if minutes == 0 {
		minutes = s.snoozeMinutes
	}
	ctx, span := tracer.Start(ctx, "alarms.snooze", trace.WithAttributes(attribute.Int("minutes", minutes)))
	defer span.End()

	if minutes < 0 {
		err := fmt.Errorf("%w: snooze %d minutes", domain.ErrInvalidInput, minutes)
		span.SetStatus(codes.Error, err.Error())
		return protocol.Alarm{}, err
	}
	return s.alarmOp(ctx, span, "snooze", func() (alarm.Alarm, error) {
		return s.alarms.Snooze(minutes)
	})
}

func (s *Service) alarmOp(ctx context.Context, span trace.Span, action string, op func() (alarm.Alarm, error)) (protocol.Alarm, error) {
	type result struct {
		view protocol.Alarm
		err  error
	}
	r := mutate(ctx, s, func() result {
		a, err := op()
		if err != nil {
			return result{err: err}
		}
		s.saveAlarmsLocked()
		s.changedLocked(protocol.ComponentAlarms, action)
		return result{view: s.alarmViewLocked(a, s.clock.Now())}
	})
	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
	}
	return r.view, r.err
}

func (s *Service) alarmViewLocked(a alarm.Alarm, now time.Time) protocol.Alarm {
	days := make([]int, len(a.RepeatDays))
	for i, d := range a.RepeatDays {
		days[i] = int(d)
	}
	ringing, ok := s.alarms.Ringing()
	return protocol.Alarm{
		ID:          a.ID.String(),
		Time:        a.Time.String(),
		Time12h:     a.Time.Format12h(),
		Label:       a.Label,
		Enabled:     a.Enabled,
		RepeatDays:  days,
		SnoozeCount: a.SnoozeCount,
		SoundID:     a.SoundID,
		Volume:      a.Volume,
		Vibration:   a.Vibration,
		CreatedAt:   a.CreatedAt,
		TimeUntil:   alarm.FormatUntil(s.alarms.TimeUntil(a, now)),
		Ringing:     ok && ringing.ID == a.ID,
	}
}
