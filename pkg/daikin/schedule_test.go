package daikin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleEntry(t *testing.T) {
	// enabled entry: heat to 19.0 at 04:20 on Monday, fan auto,
	// direction and humidity untouched
	e, err := ParseScheduleEntry("11419.00420A----10")
	require.NoError(t, err)

	assert.True(t, e.Enabled)
	assert.True(t, e.Power)
	assert.Equal(t, ModeHeat, e.Mode)
	require.NotNil(t, e.Temperature)
	assert.InDelta(t, 19.0, *e.Temperature, 0.001)
	assert.Equal(t, 4, e.Hour)
	assert.Equal(t, 20, e.Minute)
	require.NotNil(t, e.FanRate)
	assert.Equal(t, FanRateAuto, *e.FanRate)
	assert.Nil(t, e.FanDirection)
	assert.Nil(t, e.Humidity)
	assert.Equal(t, time.Monday, e.Weekday)
	assert.Equal(t, 0, e.Slot)
}

func TestParseScheduleEntry_AllColumns(t *testing.T) {
	// disabled entry: cool to 22.5 at 18:30 on Wednesday slot 4,
	// silent fan, horizontal sweep, 50% humidity
	e, err := ParseScheduleEntry("10322.51830B205034")
	require.NoError(t, err)

	assert.True(t, e.Enabled)
	assert.False(t, e.Power)
	assert.Equal(t, ModeCool, e.Mode)
	require.NotNil(t, e.Temperature)
	assert.InDelta(t, 22.5, *e.Temperature, 0.001)
	assert.Equal(t, 18, e.Hour)
	assert.Equal(t, 30, e.Minute)
	require.NotNil(t, e.FanRate)
	assert.Equal(t, FanRateSilent, *e.FanRate)
	require.NotNil(t, e.FanDirection)
	assert.Equal(t, FanDirectionHorizontal, *e.FanDirection)
	require.NotNil(t, e.Humidity)
	assert.Equal(t, 50, *e.Humidity)
	assert.Equal(t, time.Wednesday, e.Weekday)
	assert.Equal(t, 4, e.Slot)
}

func TestParseScheduleEntry_NoSetpoint(t *testing.T) {
	// powering off needs no setpoint columns at all
	e, err := ParseScheduleEntry("106--.-2300------50")
	assert.Error(t, err) // 19 bytes, one too many

	e, err = ParseScheduleEntry("106--.-2300-----50")
	require.NoError(t, err)
	assert.False(t, e.Power)
	assert.Equal(t, ModeFan, e.Mode)
	assert.Nil(t, e.Temperature)
	assert.Equal(t, 23, e.Hour)
	assert.Equal(t, 0, e.Minute)
	assert.Equal(t, time.Friday, e.Weekday)
}

func TestParseScheduleEntry_Invalid(t *testing.T) {
	cases := map[string]string{
		"too short":     "11419.00420A----1",
		"bad flag":      "21419.00420A----10",
		"bad mode":      "11519.00420A----10",
		"bad temp":      "114xx.00420A----10",
		"negative temp": "114-5.00420A----10",
		"bad hour":      "11419.02520A----10",
		"negative hour": "11419.0-120A----10",
		"bad minute":    "11419.00460A----10",
		"negative min":  "11419.004-5A----10",
		"bad rate":      "11419.00420Z----10",
		"bad direction": "11419.00420A9---10",
		"bad humidity":  "11419.00420A-x5010",
		"negative hum":  "11419.00420A--5010",
		"bad weekday":   "11419.00420A----70",
	}
	for name, raw := range cases {
		_, err := ParseScheduleEntry(raw)
		assert.Error(t, err, name)
	}
}

func TestScheduleEntry_EncodeRoundTrip(t *testing.T) {
	for _, raw := range []string{
		"11419.00420A----10",
		"10322.51830B205034",
		"106--.-2300-----50",
		"00030.0235972---69",
	} {
		e, err := ParseScheduleEntry(raw)
		require.NoError(t, err, raw)
		enc, err := e.Encode()
		require.NoError(t, err, raw)
		assert.Equal(t, raw, enc)
	}
}

func TestScheduleEntry_EncodeRange(t *testing.T) {
	temp := 5.0
	e := ScheduleEntry{Mode: ModeHeat, Temperature: &temp, Hour: 6, Weekday: time.Monday}
	_, err := e.Encode()
	assert.ErrorIs(t, err, ErrScheduleRange)

	e = ScheduleEntry{Mode: ModeHeat, Hour: 24, Weekday: time.Monday}
	_, err = e.Encode()
	assert.ErrorIs(t, err, ErrScheduleRange)

	e = ScheduleEntry{Mode: ModeHeat, Hour: 6, Slot: 10, Weekday: time.Monday}
	_, err = e.Encode()
	assert.ErrorIs(t, err, ErrScheduleRange)

	hum := 101
	e = ScheduleEntry{Mode: ModeHeat, Hour: 6, Humidity: &hum, Weekday: time.Monday}
	_, err = e.Encode()
	assert.ErrorIs(t, err, ErrScheduleRange)
}

func TestUnmarshalSchedule(t *testing.T) {
	body := "ret=OK,format=v1,en_scdltimer=1,scdl=11419.00420A----10/10322.51830B205034"
	f, err := ParseResponse([]byte(body))
	require.NoError(t, err)

	s, err := UnmarshalSchedule(f)
	require.NoError(t, err)

	assert.True(t, s.Enabled)
	require.Len(t, s.Entries, 2)

	e, ok := s.At(time.Wednesday, 4)
	require.True(t, ok)
	assert.Equal(t, ModeCool, e.Mode)

	_, ok = s.At(time.Sunday, 0)
	assert.False(t, ok)
}

func TestUnmarshalSchedule_Empty(t *testing.T) {
	f := Fields{"ret": "OK", "format": "v1", "en_scdltimer": "0"}

	s, err := UnmarshalSchedule(f)
	require.NoError(t, err)
	assert.False(t, s.Enabled)
	assert.Empty(t, s.Entries)
}

func TestMarshalSchedule(t *testing.T) {
	a, err := ParseScheduleEntry("11419.00420A----10")
	require.NoError(t, err)
	b, err := ParseScheduleEntry("10322.51830B205034")
	require.NoError(t, err)

	scdl, err := MarshalSchedule([]ScheduleEntry{a, b})
	require.NoError(t, err)
	assert.Equal(t, "11419.00420A----10/10322.51830B205034", scdl)
}
