package daikin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// scheduleEntryLen is the fixed width of one schedule timer record.
//
// Record layout, e.g. 11419.00420A----10:
//
//	pos 0      entry enabled, 1/0
//	pos 1      power at trigger, 1/0
//	pos 2      mode digit
//	pos 3-6    target temperature, e.g. 19.0, or --.- when unset
//	pos 7-10   trigger time HHMM
//	pos 11     fan rate code, - when unset
//	pos 12     fan direction digit, - when unset
//	pos 13-15  target humidity, - padded when unset
//	pos 16     weekday digit, 0 = Sunday
//	pos 17     slot within the day
const scheduleEntryLen = 18

var (
	ErrScheduleLength = errors.New("schedule entry must be 18 bytes")
	ErrScheduleRange  = errors.New("schedule field out of range")
)

// ScheduleEntry is one decoded schedule timer record. Optional columns are
// nil when the record carries a dash placeholder, meaning the trigger
// leaves that setting untouched.
type ScheduleEntry struct {
	Enabled      bool
	Power        bool
	Mode         Mode
	Temperature  *float64
	Hour         int
	Minute       int
	FanRate      *FanRate
	FanDirection *FanDirection
	Humidity     *int
	Weekday      time.Weekday
	Slot         int
}

// ParseScheduleEntry decodes one fixed-width record.
func ParseScheduleEntry(s string) (ScheduleEntry, error) {
	var e ScheduleEntry
	if len(s) != scheduleEntryLen {
		return e, fmt.Errorf("%w: got %d in %q", ErrScheduleLength, len(s), s)
	}

	var err error
	if e.Enabled, err = parseFlag(s[0]); err != nil {
		return e, fmt.Errorf("entry %q pos 0: %w", s, err)
	}
	if e.Power, err = parseFlag(s[1]); err != nil {
		return e, fmt.Errorf("entry %q pos 1: %w", s, err)
	}
	if e.Mode, err = ParseMode(s[2:3]); err != nil {
		return e, fmt.Errorf("entry %q pos 2: %w", s, err)
	}

	if temp := s[3:7]; temp != "--.-" {
		t, err := strconv.ParseFloat(temp, 64)
		if err != nil || t < 10.0 || t > 99.9 {
			return e, fmt.Errorf("entry %q: bad temperature %q", s, temp)
		}
		e.Temperature = &t
	}

	hour, err1 := strconv.Atoi(s[7:9])
	min, err2 := strconv.Atoi(s[9:11])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || min < 0 || min > 59 {
		return e, fmt.Errorf("entry %q: bad trigger time %q", s, s[7:11])
	}
	e.Hour, e.Minute = hour, min

	if s[11] != '-' {
		r, err := ParseFanRate(s[11:12])
		if err != nil {
			return e, fmt.Errorf("entry %q pos 11: %w", s, err)
		}
		e.FanRate = &r
	}
	if s[12] != '-' {
		d, err := ParseFanDirection(s[12:13])
		if err != nil {
			return e, fmt.Errorf("entry %q pos 12: %w", s, err)
		}
		e.FanDirection = &d
	}
	if hum := s[13:16]; hum != "---" {
		h, err := strconv.Atoi(hum)
		if err != nil || h < 0 || h > 100 {
			return e, fmt.Errorf("entry %q: bad humidity %q", s, hum)
		}
		e.Humidity = &h
	}

	day := int(s[16] - '0')
	if day < 0 || day > 6 {
		return e, fmt.Errorf("entry %q: bad weekday %q", s, s[16:17])
	}
	e.Weekday = time.Weekday(day)

	slot := int(s[17] - '0')
	if slot < 0 || slot > 9 {
		return e, fmt.Errorf("entry %q: bad slot %q", s, s[17:18])
	}
	e.Slot = slot

	return e, nil
}

// Encode serialises the entry back into its fixed-width wire form.
func (e ScheduleEntry) Encode() (string, error) {
	if e.Hour < 0 || e.Hour > 23 || e.Minute < 0 || e.Minute > 59 {
		return "", fmt.Errorf("%w: time %02d:%02d", ErrScheduleRange, e.Hour, e.Minute)
	}
	if e.Slot < 0 || e.Slot > 9 {
		return "", fmt.Errorf("%w: slot %d", ErrScheduleRange, e.Slot)
	}
	if e.Weekday < 0 || e.Weekday > 6 {
		return "", fmt.Errorf("%w: weekday %d", ErrScheduleRange, e.Weekday)
	}

	var b strings.Builder
	b.WriteByte(flagByte(e.Enabled))
	b.WriteByte(flagByte(e.Power))
	fmt.Fprintf(&b, "%d", int(e.Mode))

	if e.Temperature == nil {
		b.WriteString("--.-")
	} else {
		t := *e.Temperature
		if t < 10.0 || t > 99.9 {
			return "", fmt.Errorf("%w: temperature %.1f", ErrScheduleRange, t)
		}
		fmt.Fprintf(&b, "%4.1f", t)
	}

	fmt.Fprintf(&b, "%02d%02d", e.Hour, e.Minute)

	if e.FanRate == nil {
		b.WriteByte('-')
	} else {
		b.WriteString(string(*e.FanRate))
	}
	if e.FanDirection == nil {
		b.WriteByte('-')
	} else {
		fmt.Fprintf(&b, "%d", int(*e.FanDirection))
	}
	if e.Humidity == nil {
		b.WriteString("---")
	} else {
		h := *e.Humidity
		if h < 0 || h > 100 {
			return "", fmt.Errorf("%w: humidity %d", ErrScheduleRange, h)
		}
		fmt.Fprintf(&b, "%03d", h)
	}

	fmt.Fprintf(&b, "%d%d", int(e.Weekday), e.Slot)

	out := b.String()
	if len(out) != scheduleEntryLen {
		return "", fmt.Errorf("%w: encoded to %d bytes", ErrScheduleRange, len(out))
	}
	return out, nil
}

// Schedule is the unit's weekly timer program.
type Schedule struct {
	Enabled bool
	Entries []ScheduleEntry
}

// At returns the entry for the given day and slot, if present.
func (s *Schedule) At(day time.Weekday, slot int) (ScheduleEntry, bool) {
	for _, e := range s.Entries {
		if e.Weekday == day && e.Slot == slot {
			return e, true
		}
	}
	return ScheduleEntry{}, false
}

// UnmarshalSchedule decodes the scdl field, a slash-separated list of
// fixed-width records.
func UnmarshalSchedule(f Fields) (*Schedule, error) {
	s := &Schedule{}
	s.Enabled, _ = f.Bool("en_scdltimer")
	raw, ok := f.Get("scdl")
	if !ok || raw == "" {
		return s, nil
	}
	for _, rec := range strings.Split(raw, "/") {
		e, err := ParseScheduleEntry(rec)
		if err != nil {
			return nil, err
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

// MarshalSchedule encodes the entries into the wire scdl value.
func MarshalSchedule(entries []ScheduleEntry) (string, error) {
	recs := make([]string, len(entries))
	for i, e := range entries {
		enc, err := e.Encode()
		if err != nil {
			return "", err
		}
		recs[i] = enc
	}
	return strings.Join(recs, "/"), nil
}

func parseFlag(c byte) (bool, error) {
	switch c {
	case '1':
		return true, nil
	case '0':
		return false, nil
	}
	return false, fmt.Errorf("not a 0/1 flag: %q", string(c))
}

func flagByte(v bool) byte {
	if v {
		return '1'
	}
	return '0'
}
