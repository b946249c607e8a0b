package daikin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Adapter endpoints. All are plain HTTP GET; set endpoints carry their
// payload as query parameters.
const (
	pathBasicInfo    = "/common/basic_info"
	pathNotify       = "/common/get_notify"
	pathRemoteMethod = "/common/get_remote_method"
	pathWifiSetting  = "/common/get_wifi_setting"
	pathSetWifi      = "/common/set_wifi_setting"
	pathDateTime     = "/common/get_datetime"
	pathReboot       = "/common/reboot"

	pathControlInfo = "/aircon/get_control_info"
	pathSetControl  = "/aircon/set_control_info"
	pathSensorInfo  = "/aircon/get_sensor_info"
	pathModelInfo   = "/aircon/get_model_info"
	pathWeekPower   = "/aircon/get_week_power"
	pathWeekPowerEx = "/aircon/get_week_power_ex"
	pathYearPower   = "/aircon/get_year_power"
	pathYearPowerEx = "/aircon/get_year_power_ex"
	pathPrice       = "/aircon/get_price"
	pathTarget      = "/aircon/get_target"
	pathSchedule    = "/aircon/get_scdltimer"
	pathSetSchedule = "/aircon/set_scdltimer"
)

var (
	ErrBadResponse      = errors.New("malformed adapter response")
	ErrAdapterError     = errors.New("adapter returned error status")
	ErrValueUnavailable = errors.New("value not available")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// escapedKeys are reported by the adapter with every byte percent-escaped.
var escapedKeys = map[string]bool{
	"name":     true,
	"key":      true,
	"grp_name": true,
	"ssid":     true,
}

// Fields holds the decoded key/value pairs of one adapter response.
type Fields map[string]string

// ParseResponse decodes the adapter's comma-separated key=value body.
// The body must start with a ret field; anything other than ret=OK is
// reported as ErrAdapterError.
func ParseResponse(body []byte) (Fields, error) {
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "ret=") {
		return nil, fmt.Errorf("%w: %q", ErrBadResponse, truncate(text, 40))
	}

	fields := make(Fields)
	for _, group := range strings.Split(text, ",") {
		key, value, _ := strings.Cut(group, "=")
		if escapedKeys[key] {
			decoded, err := percentDecode(value)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrBadResponse, key, err)
			}
			value = decoded
		}
		fields[key] = value
	}

	if ret := fields["ret"]; ret != "OK" {
		return nil, fmt.Errorf("%w: ret=%s", ErrAdapterError, ret)
	}
	return fields, nil
}

// Get returns the raw value for key and whether it was present.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Str returns the value for key, or ErrValueUnavailable if the field is
// missing or empty.
func (f Fields) Str(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrValueUnavailable, key)
	}
	return v, nil
}

// Int parses the value for key as a decimal integer.
func (f Fields) Int(key string) (int, error) {
	v, err := f.Str(key)
	if err != nil {
		return 0, err
	}
	if unavailable(v) {
		return 0, fmt.Errorf("%w: %s", ErrValueUnavailable, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}
	return n, nil
}

// Float parses the value for key as a float.
func (f Fields) Float(key string) (float64, error) {
	v, err := f.Str(key)
	if err != nil {
		return 0, err
	}
	if unavailable(v) {
		return 0, fmt.Errorf("%w: %s", ErrValueUnavailable, key)
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", key, err)
	}
	return x, nil
}

// Bool parses a zero/one flag field.
func (f Fields) Bool(key string) (bool, error) {
	v, err := f.Str(key)
	if err != nil {
		return false, err
	}
	switch v {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("field %s: not a 0/1 flag: %q", key, v)
}

// unavailable reports whether the adapter used a dash placeholder for a
// numeric value it cannot provide (e.g. otemp=- with no outdoor sensor).
func unavailable(v string) bool {
	return strings.Trim(v, "-") == ""
}

// percentDecode decodes the adapter's byte-wise %xx escaping. Unlike URL
// query unescaping, '+' is a literal plus.
func percentDecode(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape in %q", s)
		}
		n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("bad escape in %q", s)
		}
		b.WriteByte(byte(n))
		i += 2
	}
	return b.String(), nil
}

// percentEncode escapes every byte as %xx. The adapter requires this form
// for the wifi key, including plain ASCII.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&b, "%%%02x", s[i])
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
