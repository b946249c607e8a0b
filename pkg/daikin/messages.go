package daikin

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode is the unit's operation mode as reported in the mode field.
// The adapter uses digits 0, 1 and 7 interchangeably for automatic
// operation; they all parse to ModeAuto.
type Mode int

const (
	ModeAuto Mode = 0
	ModeDry  Mode = 2
	ModeCool Mode = 3
	ModeHeat Mode = 4
	ModeFan  Mode = 6
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeDry:
		return "dry"
	case ModeCool:
		return "cool"
	case ModeHeat:
		return "heat"
	case ModeFan:
		return "fan"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts either the adapter digit or a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "0", "1", "7", "auto":
		return ModeAuto, nil
	case "2", "dry":
		return ModeDry, nil
	case "3", "cool":
		return ModeCool, nil
	case "4", "heat":
		return ModeHeat, nil
	case "6", "fan":
		return ModeFan, nil
	}
	return 0, fmt.Errorf("invalid mode %q", s)
}

// FanRate is the fan speed code used on the wire: A auto, B silent,
// 3 through 7 for fixed levels 1 through 5.
type FanRate string

const (
	FanRateAuto   FanRate = "A"
	FanRateSilent FanRate = "B"
	FanRateLevel1 FanRate = "3"
	FanRateLevel2 FanRate = "4"
	FanRateLevel3 FanRate = "5"
	FanRateLevel4 FanRate = "6"
	FanRateLevel5 FanRate = "7"
)

func (r FanRate) String() string {
	switch r {
	case FanRateAuto:
		return "auto"
	case FanRateSilent:
		return "silent"
	case FanRateLevel1, FanRateLevel2, FanRateLevel3, FanRateLevel4, FanRateLevel5:
		return "level " + strconv.Itoa(int(r[0]-'2'))
	}
	return fmt.Sprintf("rate(%s)", string(r))
}

// ParseFanRate accepts the wire code or a human name (auto, silent, 1-5).
func ParseFanRate(s string) (FanRate, error) {
	switch strings.ToLower(s) {
	case "a", "auto":
		return FanRateAuto, nil
	case "b", "silent":
		return FanRateSilent, nil
	case "3", "1":
		return FanRateLevel1, nil
	case "4", "2":
		return FanRateLevel2, nil
	case "5":
		return FanRateLevel3, nil
	case "6":
		return FanRateLevel4, nil
	case "7":
		return FanRateLevel5, nil
	}
	return "", fmt.Errorf("invalid fan rate %q", s)
}

// FanDirection selects the louvre sweep motion.
type FanDirection int

const (
	FanDirectionStopped    FanDirection = 0
	FanDirectionVertical   FanDirection = 1
	FanDirectionHorizontal FanDirection = 2
	FanDirection3D         FanDirection = 3
)

func (d FanDirection) String() string {
	switch d {
	case FanDirectionStopped:
		return "off"
	case FanDirectionVertical:
		return "vertical"
	case FanDirectionHorizontal:
		return "horizontal"
	case FanDirection3D:
		return "3d"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseFanDirection accepts the adapter digit or a name.
func ParseFanDirection(s string) (FanDirection, error) {
	switch strings.ToLower(s) {
	case "0", "off":
		return FanDirectionStopped, nil
	case "1", "vertical":
		return FanDirectionVertical, nil
	case "2", "horizontal":
		return FanDirectionHorizontal, nil
	case "3", "3d":
		return FanDirection3D, nil
	}
	return 0, fmt.Errorf("invalid fan direction %q", s)
}

// BasicInfo is the adapter identity block from /common/basic_info.
type BasicInfo struct {
	Type        string
	Region      string
	Version     string
	Revision    string
	Name        string
	MAC         string
	Port        int
	Method      string
	AdapterKind int
	AdapterMode string
	PowerOn     bool
	LED         bool
	HolidayMode bool
	GroupName   string
	ErrorCode   int
}

// UnmarshalBasicInfo extracts the identity fields. Fields the firmware
// omits are left at their zero value.
func UnmarshalBasicInfo(f Fields) (*BasicInfo, error) {
	mac, err := f.Str("mac")
	if err != nil {
		return nil, err
	}
	bi := &BasicInfo{
		Type:        f["type"],
		Region:      f["reg"],
		Version:     f["ver"],
		Revision:    f["rev"],
		Name:        f["name"],
		MAC:         mac,
		Method:      f["method"],
		AdapterMode: f["adp_mode"],
		GroupName:   f["grp_name"],
	}
	bi.Port, _ = f.Int("port")
	bi.AdapterKind, _ = f.Int("adp_kind")
	bi.PowerOn, _ = f.Bool("pow")
	bi.LED, _ = f.Bool("led")
	bi.HolidayMode, _ = f.Bool("en_hol")
	bi.ErrorCode, _ = f.Int("err")
	return bi, nil
}

// ControlInfo is the unit's current control state from
// /aircon/get_control_info. TargetTemperature is nil when the mode has no
// temperature setpoint (the adapter reports M or --); TargetHumidity is nil
// for AUTO or --.
type ControlInfo struct {
	Power             bool
	Mode              Mode
	TargetTemperature *float64
	TargetHumidity    *float64
	FanRate           FanRate
	FanDirection      FanDirection

	// raw retains the wire strings of the six control fields so a
	// read-modify-write echoes unpatched values byte for byte.
	raw Fields
}

// controlFields must all be present in a set_control_info request.
var controlFields = []string{"pow", "mode", "stemp", "shum", "f_rate", "f_dir"}

// UnmarshalControlInfo parses the control state, keeping the raw control
// field strings for later echo.
func UnmarshalControlInfo(f Fields) (*ControlInfo, error) {
	ci := &ControlInfo{raw: make(Fields, len(controlFields))}
	for _, key := range controlFields {
		v, ok := f.Get(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrValueUnavailable, key)
		}
		ci.raw[key] = v
	}

	var err error
	if ci.Power, err = f.Bool("pow"); err != nil {
		return nil, err
	}
	if ci.Mode, err = ParseMode(f["mode"]); err != nil {
		return nil, err
	}
	if t, err := f.Float("stemp"); err == nil {
		ci.TargetTemperature = &t
	}
	if h, err := f.Float("shum"); err == nil {
		ci.TargetHumidity = &h
	}
	ci.FanRate = FanRate(f["f_rate"])
	if d, err := f.Int("f_dir"); err == nil {
		ci.FanDirection = FanDirection(d)
	}
	return ci, nil
}

// SensorInfo is the reading block from /aircon/get_sensor_info. Pointer
// fields are nil when the unit has no such sensor (reported as -).
type SensorInfo struct {
	InsideTemperature   *float64
	InsideHumidity      *float64
	OutsideTemperature  *float64
	CompressorFrequency int
	ErrorCode           int
}

func UnmarshalSensorInfo(f Fields) (*SensorInfo, error) {
	si := &SensorInfo{}
	if t, err := f.Float("htemp"); err == nil {
		si.InsideTemperature = &t
	}
	if h, err := f.Float("hhum"); err == nil {
		si.InsideHumidity = &h
	}
	if t, err := f.Float("otemp"); err == nil {
		si.OutsideTemperature = &t
	}
	si.CompressorFrequency, _ = f.Int("cmpfreq")
	si.ErrorCode, _ = f.Int("err")
	return si, nil
}

// ModelInfo is the capability block from /aircon/get_model_info.
type ModelInfo struct {
	Model                  string
	Type                   string
	ScheduleTimerSupported bool
	FanRateSupported       bool
	FanDirectionSupported  bool
}

func UnmarshalModelInfo(f Fields) (*ModelInfo, error) {
	model, err := f.Str("model")
	if err != nil {
		return nil, err
	}
	mi := &ModelInfo{Model: model, Type: f["type"]}
	mi.ScheduleTimerSupported, _ = f.Bool("en_scdltmr")
	mi.FanRateSupported, _ = f.Bool("en_frate")
	mi.FanDirectionSupported, _ = f.Bool("en_fdir")
	return mi, nil
}

// WeekPower is /aircon/get_week_power: runtime today plus daily
// consumption in watts, most recent day last.
type WeekPower struct {
	TodayRuntime int // minutes
	Days         []int
}

// Today returns today's consumption in watts.
func (w *WeekPower) Today() int {
	if len(w.Days) == 0 {
		return 0
	}
	return w.Days[len(w.Days)-1]
}

func UnmarshalWeekPower(f Fields) (*WeekPower, error) {
	runtime, err := f.Int("today_runtime")
	if err != nil {
		return nil, err
	}
	days, err := splitInts(f["datas"])
	if err != nil {
		return nil, fmt.Errorf("field datas: %w", err)
	}
	return &WeekPower{TodayRuntime: runtime, Days: days}, nil
}

// WeekPowerEx is /aircon/get_week_power_ex: heat and cool consumption in
// units of 100 W, most recent day first.
type WeekPowerEx struct {
	DayOfWeek int
	Heat      []int
	Cool      []int
}

// TodayHeat returns today's heating consumption in watts.
func (w *WeekPowerEx) TodayHeat() int {
	if len(w.Heat) == 0 {
		return 0
	}
	return w.Heat[0] * 100
}

// TodayCool returns today's cooling consumption in watts.
func (w *WeekPowerEx) TodayCool() int {
	if len(w.Cool) == 0 {
		return 0
	}
	return w.Cool[0] * 100
}

func UnmarshalWeekPowerEx(f Fields) (*WeekPowerEx, error) {
	heat, err := splitInts(f["week_heat"])
	if err != nil {
		return nil, fmt.Errorf("field week_heat: %w", err)
	}
	cool, err := splitInts(f["week_cool"])
	if err != nil {
		return nil, fmt.Errorf("field week_cool: %w", err)
	}
	w := &WeekPowerEx{Heat: heat, Cool: cool}
	w.DayOfWeek, _ = f.Int("s_dayw")
	return w, nil
}

// YearPower is /aircon/get_year_power: monthly consumption january to
// december in tenths of a kWh.
type YearPower struct {
	ThisYear     []int
	PreviousYear []int
}

// Month returns the consumption for the given month of the current year
// in kWh.
func (y *YearPower) Month(m time.Month) (float64, error) {
	ix := int(m) - 1
	if ix < 0 || ix >= len(y.ThisYear) {
		return 0, fmt.Errorf("no data for month %d", m)
	}
	return float64(y.ThisYear[ix]) / 10.0, nil
}

func UnmarshalYearPower(f Fields) (*YearPower, error) {
	this, err := splitInts(f["this_year"])
	if err != nil {
		return nil, fmt.Errorf("field this_year: %w", err)
	}
	prev, err := splitInts(f["previous_year"])
	if err != nil {
		return nil, fmt.Errorf("field previous_year: %w", err)
	}
	return &YearPower{ThisYear: this, PreviousYear: prev}, nil
}

// YearPowerEx is /aircon/get_year_power_ex with heat and cool broken out.
type YearPowerEx struct {
	CurrentYearHeat  []int
	PreviousYearHeat []int
	CurrentYearCool  []int
	PreviousYearCool []int
}

func UnmarshalYearPowerEx(f Fields) (*YearPowerEx, error) {
	y := &YearPowerEx{}
	var err error
	if y.CurrentYearHeat, err = splitInts(f["curr_year_heat"]); err != nil {
		return nil, fmt.Errorf("field curr_year_heat: %w", err)
	}
	if y.PreviousYearHeat, err = splitInts(f["prev_year_heat"]); err != nil {
		return nil, fmt.Errorf("field prev_year_heat: %w", err)
	}
	if y.CurrentYearCool, err = splitInts(f["curr_year_cool"]); err != nil {
		return nil, fmt.Errorf("field curr_year_cool: %w", err)
	}
	if y.PreviousYearCool, err = splitInts(f["prev_year_cool"]); err != nil {
		return nil, fmt.Errorf("field prev_year_cool: %w", err)
	}
	return y, nil
}

// PriceInfo is /aircon/get_price.
type PriceInfo struct {
	PriceInt int
	PriceDec int
}

func UnmarshalPriceInfo(f Fields) (*PriceInfo, error) {
	pi := &PriceInfo{}
	var err error
	if pi.PriceInt, err = f.Int("price_int"); err != nil {
		return nil, err
	}
	pi.PriceDec, _ = f.Int("price_dec")
	return pi, nil
}

// TargetInfo is /aircon/get_target.
type TargetInfo struct {
	Target int
}

func UnmarshalTargetInfo(f Fields) (*TargetInfo, error) {
	t, err := f.Int("target")
	if err != nil {
		return nil, err
	}
	return &TargetInfo{Target: t}, nil
}

// NotifyInfo is /common/get_notify.
type NotifyInfo struct {
	AutoOff     bool
	AutoOffTime string
}

func UnmarshalNotifyInfo(f Fields) (*NotifyInfo, error) {
	ni := &NotifyInfo{AutoOffTime: f["auto_off_tm"]}
	ni.AutoOff, _ = f.Bool("auto_off_flg")
	return ni, nil
}

// RemoteMethod is /common/get_remote_method.
type RemoteMethod struct {
	Method             string
	NoticeIPInterval   int // seconds
	NoticeSyncInterval int // seconds
}

func UnmarshalRemoteMethod(f Fields) (*RemoteMethod, error) {
	method, err := f.Str("method")
	if err != nil {
		return nil, err
	}
	rm := &RemoteMethod{Method: method}
	rm.NoticeIPInterval, _ = f.Int("notice_ip_int")
	rm.NoticeSyncInterval, _ = f.Int("notice_sync_int")
	return rm, nil
}

// WifiSettings is /common/get_wifi_setting. Key arrives percent-escaped
// and is decoded on parse.
type WifiSettings struct {
	SSID     string
	Security string
	Key      string
	Link     int
}

func UnmarshalWifiSettings(f Fields) (*WifiSettings, error) {
	ssid, err := f.Str("ssid")
	if err != nil {
		return nil, err
	}
	ws := &WifiSettings{SSID: ssid, Security: f["security"], Key: f["key"]}
	ws.Link, _ = f.Int("link")
	return ws, nil
}

// DateTime is /common/get_datetime. Current is empty when the device
// clock is unset (reported as -).
type DateTime struct {
	Current string // yyyy/mm/dd HH:MM:SS
	Region  string
	DST     bool
	Zone    int
}

// deviceTimeLayout is the adapter's clock format.
const deviceTimeLayout = "2006/01/02 15:04:05"

// Time parses the device clock.
func (d *DateTime) Time() (time.Time, error) {
	if d.Current == "" {
		return time.Time{}, fmt.Errorf("%w: cur", ErrValueUnavailable)
	}
	return time.Parse(deviceTimeLayout, d.Current)
}

func UnmarshalDateTime(f Fields) (*DateTime, error) {
	cur, ok := f.Get("cur")
	if !ok {
		return nil, fmt.Errorf("%w: cur", ErrValueUnavailable)
	}
	if cur == "-" {
		cur = ""
	}
	dt := &DateTime{Current: cur, Region: f["reg"]}
	dt.DST, _ = f.Bool("dst")
	dt.Zone, _ = f.Int("zone")
	return dt, nil
}

// splitInts parses a slash-separated list of integers, the adapter's
// encoding for consumption series.
func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty series")
	}
	parts := strings.Split(s, "/")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad series element %q", p)
		}
		out[i] = n
	}
	return out, nil
}
