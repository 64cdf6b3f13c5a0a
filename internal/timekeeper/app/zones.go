package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/timekeeper/internal/worldclock"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// ListZones renders the local clock and every selected zone at the current
// time.
func (s *Service) ListZones(ctx context.Context) protocol.ZoneList {
	return mutate(ctx, s, func() protocol.ZoneList {
		return s.zoneListLocked(s.clock.Now())
	})
}

// AvailableZones returns the suggested zones.
func (s *Service) AvailableZones(context.Context) []protocol.ZoneInfo {
	popular := worldclock.Popular()
	out := make([]protocol.ZoneInfo, len(popular))
	for i, info := range popular {
		out[i] = protocol.ZoneInfo{Zone: info.Zone, City: info.City, Country: info.Country}
	}
	return out
}

// AddZone appends an IANA zone to the world clock.
func (s *Service) AddZone(ctx context.Context, zone string) (protocol.ZoneList, error) {
	ctx, span := tracer.Start(ctx, "zones.add", trace.WithAttributes(attribute.String("zone", zone)))
	defer span.End()

	return s.zoneOp(ctx, span, "add", func() error {
		return s.zones.Add(zone)
	})
}

// RemoveZone removes a zone from the world clock.
func (s *Service) RemoveZone(ctx context.Context, zone string) (protocol.ZoneList, error) {
	ctx, span := tracer.Start(ctx, "zones.remove", trace.WithAttributes(attribute.String("zone", zone)))
	defer span.End()

	return s.zoneOp(ctx, span, "remove", func() error {
		return s.zones.Remove(zone)
	})
}

// MoveZone reorders the world clock.
func (s *Service) MoveZone(ctx context.Context, from, to int) (protocol.ZoneList, error) {
	ctx, span := tracer.Start(ctx, "zones.move", trace.WithAttributes(
		attribute.Int("from", from),
		attribute.Int("to", to),
	))
	defer span.End()

	return s.zoneOp(ctx, span, "move", func() error {
		return s.zones.Move(from, to)
	})
}

// ResetZones restores the default zones.
func (s *Service) ResetZones(ctx context.Context) protocol.ZoneList {
	ctx, span := tracer.Start(ctx, "zones.reset")
	defer span.End()

	list, _ := s.zoneOp(ctx, span, "reset", func() error {
		s.zones.Reset()
		return nil
	})
	return list
}

func (s *Service) zoneOp(ctx context.Context, span trace.Span, action string, op func() error) (protocol.ZoneList, error) {
	type result struct {
		list protocol.ZoneList
		err  error
	}
	r := mutate(ctx, s, func() result {
		if err := op(); err != nil {
			return result{err: err}
		}
		s.saveZonesLocked()
		s.changedLocked(protocol.ComponentZones, action)
		return result{list: s.zoneListLocked(s.clock.Now())}
	})
	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
	}
	return r.list, r.err
}

func (s *Service) zoneListLocked(now time.Time) protocol.ZoneList {
	views := s.zones.Views(now)
	out := protocol.ZoneList{
		Local: zoneView(s.zones.LocalView(now)),
		Zones: make([]protocol.Zone, len(views)),
	}
	for i, v := range views {
		out.Zones[i] = zoneView(v)
	}
	return out
}

func zoneView(v worldclock.View) protocol.Zone {
	return protocol.Zone{
		Zone:          v.Zone,
		City:          v.City,
		Country:       v.Country,
		Time:          v.Time,
		Time12h:       v.Time12h,
		Date:          v.Date,
		IsDay:         v.IsDay,
		UTCOffset:     worldclock.FormatUTCOffset(v.OffsetSeconds),
		OffsetSeconds: v.OffsetSeconds,
		Diff:          v.Diff,
	}
}
