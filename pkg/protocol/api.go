package protocol

// TimerStatus is the countdown as seen by clients.
type TimerStatus struct {
	State            string  `json:"state"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	TotalSeconds     int64   `json:"total_seconds"`
	Progress         float64 `json:"progress"`
	SessionCount     int64   `json:"session_count"`
	EndTime          int64   `json:"end_time,omitempty"`
	Ringing          bool    `json:"ringing"`
}

// Lap is one stopwatch lap, in milliseconds.
type Lap struct {
	Number  int   `json:"number"`
	SplitMs int64 `json:"split_ms"`
	TotalMs int64 `json:"total_ms"`
}

// LapStats summarizes lap splits. Indices refer to the laps array.
type LapStats struct {
	FastestMs    int64 `json:"fastest_ms"`
	SlowestMs    int64 `json:"slowest_ms"`
	AverageMs    int64 `json:"average_ms"`
	FastestIndex int   `json:"fastest_index"`
	SlowestIndex int   `json:"slowest_index"`
}

// StopwatchStatus is the stopwatch as seen by clients. Laps are most recent
// first; Stats is present with two or more laps.
type StopwatchStatus struct {
	Running        bool      `json:"running"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	Laps           []Lap     `json:"laps"`
	LastLapTotalMs int64     `json:"last_lap_total_ms"`
	Stats          *LapStats `json:"stats,omitempty"`
}

// Alarm is one alarm as seen by clients.
type Alarm struct {
	ID          string `json:"id"`
	Time        string `json:"time"`
	Time12h     string `json:"time_12h"`
	Label       string `json:"label"`
	Enabled     bool   `json:"enabled"`
	RepeatDays  []int  `json:"repeat_days"`
	SnoozeCount int    `json:"snooze_count"`
	SoundID     string `json:"sound_id"`
	Volume      int    `json:"volume"`
	Vibration   bool   `json:"vibration"`
	CreatedAt   int64  `json:"created_at"`
	TimeUntil   string `json:"time_until"`
	Ringing     bool   `json:"ringing"`
}

// AlarmList is the response to listing alarms.
type AlarmList struct {
	Alarms  []Alarm `json:"alarms"`
	Ringing *Alarm  `json:"ringing,omitempty"`
}

// SecondsRequest carries a duration for configure and add-time.
type SecondsRequest struct {
	Seconds int64 `json:"seconds"`
}

// AddAlarmRequest creates an alarm. Time is 24-hour "HH:MM".
type AddAlarmRequest struct {
	Time       string `json:"time"`
	Label      string `json:"label,omitempty"`
	RepeatDays []int  `json:"repeat_days,omitempty"`
	SoundID    string `json:"sound_id,omitempty"`
	Volume     int    `json:"volume,omitempty"`
	Vibration  *bool  `json:"vibration,omitempty"`
}

// UpdateAlarmRequest patches an alarm. Absent fields are unchanged.
type UpdateAlarmRequest struct {
	Time       *string `json:"time,omitempty"`
	Label      *string `json:"label,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty"`
	RepeatDays *[]int  `json:"repeat_days,omitempty"`
	SoundID    *string `json:"sound_id,omitempty"`
	Volume     *int    `json:"volume,omitempty"`
	Vibration  *bool   `json:"vibration,omitempty"`
}

// SnoozeRequest snoozes the ringing alarm. Zero means the default length.
type SnoozeRequest struct {
	Minutes int `json:"minutes,omitempty"`
}

// Zone is one world clock entry rendered at the response time.
type Zone struct {
	Zone          string `json:"zone"`
	City          string `json:"city"`
	Country       string `json:"country,omitempty"`
	Time          string `json:"time"`
	Time12h       string `json:"time_12h"`
	Date          string `json:"date"`
	IsDay         bool   `json:"is_day"`
	UTCOffset     string `json:"utc_offset"`
	OffsetSeconds int    `json:"offset_seconds"`
	Diff          string `json:"diff"`
}

// ZoneList is the world clock: the local clock followed by the selected
// zones in display order.
type ZoneList struct {
	Local Zone   `json:"local"`
	Zones []Zone `json:"zones"`
}

// ZoneInfo is a suggested zone.
type ZoneInfo struct {
	Zone    string `json:"zone"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// ZoneRequest names a zone to add or remove.
type ZoneRequest struct {
	Zone string `json:"zone"`
}

// MoveZoneRequest moves the zone at From to index To.
type MoveZoneRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}
