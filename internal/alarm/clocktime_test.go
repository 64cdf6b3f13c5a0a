package alarm_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/alarm"
	"github.com/aelexs/timekeeper/internal/domain"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    alarm.ClockTime
		wantErr bool
	}{
		{in: "07:05", want: alarm.ClockTime{Hour: 7, Minute: 5}},
		{in: "00:00", want: alarm.ClockTime{}},
		{in: "23:59", want: alarm.ClockTime{Hour: 23, Minute: 59}},
		{in: " 12:30 ", want: alarm.ClockTime{Hour: 12, Minute: 30}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "7:05", wantErr: true},
		{in: "0705", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := alarm.ParseClockTime(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidClockTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTime_Format(t *testing.T) {
	tests := []struct {
		in      alarm.ClockTime
		want24h string
		want12h string
	}{
		{alarm.ClockTime{Hour: 0, Minute: 0}, "00:00", "12:00 AM"},
		{alarm.ClockTime{Hour: 7, Minute: 5}, "07:05", "7:05 AM"},
		{alarm.ClockTime{Hour: 12, Minute: 0}, "12:00", "12:00 PM"},
		{alarm.ClockTime{Hour: 13, Minute: 45}, "13:45", "1:45 PM"},
		{alarm.ClockTime{Hour: 23, Minute: 59}, "23:59", "11:59 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.want24h, func(t *testing.T) {
			assert.Equal(t, tt.want24h, tt.in.String())
			assert.Equal(t, tt.want12h, tt.in.Format12h())
		})
	}
}

func TestClockTime_JSON(t *testing.T) {
	data, err := json.Marshal(alarm.ClockTime{Hour: 6, Minute: 30})
	require.NoError(t, err)
	assert.Equal(t, `"06:30"`, string(data))

	var ct alarm.ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"21:15"`), &ct))
	assert.Equal(t, alarm.ClockTime{Hour: 21, Minute: 15}, ct)

	assert.Error(t, json.Unmarshal([]byte(`"99:99"`), &ct))
}

func TestTimeUntil(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 20, 0, time.UTC)

	tests := []struct {
		name string
		at   alarm.ClockTime
		want time.Duration
	}{
		{name: "later today", at: alarm.ClockTime{Hour: 10, Minute: 0}, want: 29*time.Minute + 40*time.Second},
		{name: "earlier rolls to tomorrow", at: alarm.ClockTime{Hour: 9, Minute: 0}, want: 23*time.Hour + 29*time.Minute + 40*time.Second},
		{name: "current minute already started", at: alarm.ClockTime{Hour: 9, Minute: 30}, want: 24*time.Hour - 20*time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alarm.TimeUntil(tt.at, now))
		})
	}
}

func TestFormatUntil(t *testing.T) {
	assert.Equal(t, "45m", alarm.FormatUntil(45*time.Minute+30*time.Second))
	assert.Equal(t, "7h 5m", alarm.FormatUntil(7*time.Hour+5*time.Minute))
	assert.Equal(t, "0m", alarm.FormatUntil(10*time.Second))
}
