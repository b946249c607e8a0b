package daikin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// Client talks to one Daikin wireless LAN adapter. The adapter's interface
// is stateless HTTP, so constructing a Client does not touch the network.
type Client struct {
	baseURL        string
	host           string
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewClient creates a client for the adapter at the given host name or IP
// address. Options can be provided to configure the client behavior.
func NewClient(host string, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	base := "http://" + host
	if cfg.port != 80 {
		base = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.port))
	}

	return &Client{
		baseURL:        base,
		host:           host,
		requestTimeout: cfg.requestTimeout,
		httpClient:     cfg.httpClient,
		logger:         cfg.logger,
	}, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("Daikin(host=%s)", c.host)
}

// get issues one GET against an adapter endpoint and parses the response
// body. Set endpoints take their payload as query parameters.
func (c *Client) get(ctx context.Context, path string, params url.Values) (Fields, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("request failed", "path", path, "error", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("response received", "path", path, "body", string(body))
	}

	return ParseResponse(body)
}

// BasicInfo fetches the adapter identity block.
func (c *Client) BasicInfo(ctx context.Context) (*BasicInfo, error) {
	f, err := c.get(ctx, pathBasicInfo, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalBasicInfo(f)
}

// Notify fetches the auto-off notification settings.
func (c *Client) Notify(ctx context.Context) (*NotifyInfo, error) {
	f, err := c.get(ctx, pathNotify, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalNotifyInfo(f)
}

// RemoteMethod fetches the adapter's cloud polling configuration.
func (c *Client) RemoteMethod(ctx context.Context) (*RemoteMethod, error) {
	f, err := c.get(ctx, pathRemoteMethod, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalRemoteMethod(f)
}

// WifiSettings fetches the adapter's wireless configuration.
func (c *Client) WifiSettings(ctx context.Context) (*WifiSettings, error) {
	f, err := c.get(ctx, pathWifiSetting, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalWifiSettings(f)
}

// DateTime fetches the device clock.
func (c *Client) DateTime(ctx context.Context) (*DateTime, error) {
	f, err := c.get(ctx, pathDateTime, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalDateTime(f)
}

// ControlInfo fetches the unit's current control state.
func (c *Client) ControlInfo(ctx context.Context) (*ControlInfo, error) {
	f, err := c.get(ctx, pathControlInfo, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalControlInfo(f)
}

// SensorInfo fetches the unit's sensor readings.
func (c *Client) SensorInfo(ctx context.Context) (*SensorInfo, error) {
	f, err := c.get(ctx, pathSensorInfo, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalSensorInfo(f)
}

// ModelInfo fetches the unit's capability block.
func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	f, err := c.get(ctx, pathModelInfo, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalModelInfo(f)
}

// WeekPower fetches runtime and daily consumption for the past week.
func (c *Client) WeekPower(ctx context.Context) (*WeekPower, error) {
	f, err := c.get(ctx, pathWeekPower, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalWeekPower(f)
}

// WeekPowerEx fetches daily consumption with heat and cool broken out.
func (c *Client) WeekPowerEx(ctx context.Context) (*WeekPowerEx, error) {
	f, err := c.get(ctx, pathWeekPowerEx, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalWeekPowerEx(f)
}

// YearPower fetches monthly consumption for this year and last.
func (c *Client) YearPower(ctx context.Context) (*YearPower, error) {
	f, err := c.get(ctx, pathYearPower, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalYearPower(f)
}

// YearPowerEx fetches monthly consumption with heat and cool broken out.
func (c *Client) YearPowerEx(ctx context.Context) (*YearPowerEx, error) {
	f, err := c.get(ctx, pathYearPowerEx, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalYearPowerEx(f)
}

// Price fetches the configured electricity price.
func (c *Client) Price(ctx context.Context) (*PriceInfo, error) {
	f, err := c.get(ctx, pathPrice, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalPriceInfo(f)
}

// Target fetches the adapter's target selector.
func (c *Client) Target(ctx context.Context) (*TargetInfo, error) {
	f, err := c.get(ctx, pathTarget, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalTargetInfo(f)
}

// Schedule fetches the weekly timer program.
func (c *Client) Schedule(ctx context.Context) (*Schedule, error) {
	f, err := c.get(ctx, pathSchedule, nil)
	if err != nil {
		return nil, err
	}
	return UnmarshalSchedule(f)
}

// ControlPatch selects the control fields to change. Nil fields keep the
// unit's current value.
type ControlPatch struct {
	Power             *bool
	Mode              *Mode
	TargetTemperature *float64
	TargetHumidity    *float64
	FanRate           *FanRate
	FanDirection      *FanDirection
}

// SetControl applies the patch on top of the unit's current control state
// and writes the full control field set back. The adapter requires every
// control field on a set request, so unpatched fields are echoed with the
// exact strings read back (a target of M for a mode with no setpoint
// survives unchanged).
//
// The read and the write are two separate HTTP requests; a concurrent
// writer between them is silently overwritten.
func (c *Client) SetControl(ctx context.Context, patch ControlPatch) error {
	ci, err := c.ControlInfo(ctx)
	if err != nil {
		return fmt.Errorf("reading control state: %w", err)
	}

	params := url.Values{}
	for _, key := range controlFields {
		params.Set(key, ci.raw[key])
	}
	if patch.Power != nil {
		params.Set("pow", string(flagByte(*patch.Power)))
	}
	if patch.Mode != nil {
		params.Set("mode", strconv.Itoa(int(*patch.Mode)))
	}
	if patch.TargetTemperature != nil {
		params.Set("stemp", fmt.Sprintf("%.1f", *patch.TargetTemperature))
	}
	if patch.TargetHumidity != nil {
		params.Set("shum", strconv.Itoa(int(*patch.TargetHumidity)))
	}
	if patch.FanRate != nil {
		params.Set("f_rate", string(*patch.FanRate))
	}
	if patch.FanDirection != nil {
		params.Set("f_dir", strconv.Itoa(int(*patch.FanDirection)))
	}

	if c.logger != nil {
		c.logger.Debug("setting control state", "params", params.Encode())
	}

	_, err = c.get(ctx, pathSetControl, params)
	return err
}

// SetPower switches the unit on or off.
func (c *Client) SetPower(ctx context.Context, on bool) error {
	return c.SetControl(ctx, ControlPatch{Power: &on})
}

// SetMode changes the operation mode.
func (c *Client) SetMode(ctx context.Context, m Mode) error {
	return c.SetControl(ctx, ControlPatch{Mode: &m})
}

// SetTargetTemperature changes the temperature setpoint. The range the
// unit accepts depends on the mode: auto 18-31, heat 10-31, cool 18-33.
func (c *Client) SetTargetTemperature(ctx context.Context, deg float64) error {
	return c.SetControl(ctx, ControlPatch{TargetTemperature: &deg})
}

// SetTargetHumidity changes the humidity setpoint.
func (c *Client) SetTargetHumidity(ctx context.Context, pct float64) error {
	return c.SetControl(ctx, ControlPatch{TargetHumidity: &pct})
}

// SetFanRate changes the fan speed.
func (c *Client) SetFanRate(ctx context.Context, r FanRate) error {
	return c.SetControl(ctx, ControlPatch{FanRate: &r})
}

// SetFanDirection changes the louvre sweep.
func (c *Client) SetFanDirection(ctx context.Context, d FanDirection) error {
	return c.SetControl(ctx, ControlPatch{FanDirection: &d})
}

// SetSchedule writes the weekly timer program.
func (c *Client) SetSchedule(ctx context.Context, s Schedule) error {
	scdl, err := MarshalSchedule(s.Entries)
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("format", "v1")
	params.Set("en_scdltimer", string(flagByte(s.Enabled)))
	params.Set("scdl", scdl)
	_, err = c.get(ctx, pathSetSchedule, params)
	return err
}

// SetWifi reconfigures the adapter's wireless settings. The key is sent
// byte-wise percent-encoded as the firmware expects. When reboot is true
// the adapter is rebooted afterwards to activate the new settings.
func (c *Client) SetWifi(ctx context.Context, ssid, key string, reboot bool) error {
	params := url.Values{}
	params.Set("ssid", ssid)
	params.Set("key", percentEncode(key))
	params.Set("security", "mixed")
	if _, err := c.get(ctx, pathSetWifi, params); err != nil {
		return err
	}
	if !reboot {
		return nil
	}
	return c.Reboot(ctx)
}

// Reboot restarts the adapter.
func (c *Client) Reboot(ctx context.Context) error {
	_, err := c.get(ctx, pathReboot, nil)
	return err
}

// TodayRuntime returns the unit's runtime today in minutes.
func (c *Client) TodayRuntime(ctx context.Context) (int, error) {
	w, err := c.WeekPower(ctx)
	if err != nil {
		return 0, err
	}
	return w.TodayRuntime, nil
}

// TodayPowerConsumption returns today's consumption in watts.
func (c *Client) TodayPowerConsumption(ctx context.Context) (int, error) {
	w, err := c.WeekPower(ctx)
	if err != nil {
		return 0, err
	}
	return w.Today(), nil
}

// TodayPowerConsumptionEx returns today's consumption in watts for one
// operating mode, from the extended week counters.
func (c *Client) TodayPowerConsumptionEx(ctx context.Context, mode Mode) (int, error) {
	w, err := c.WeekPowerEx(ctx)
	if err != nil {
		return 0, err
	}
	switch mode {
	case ModeHeat:
		return w.TodayHeat(), nil
	case ModeCool:
		return w.TodayCool(), nil
	}
	return 0, fmt.Errorf("mode %s has no consumption counter", mode)
}

// MonthPowerConsumption returns the consumption for the given month of the
// current year in kWh.
func (c *Client) MonthPowerConsumption(ctx context.Context, month time.Month) (float64, error) {
	y, err := c.YearPower(ctx)
	if err != nil {
		return 0, err
	}
	return y.Month(month)
}

// CurrentMonthPowerConsumption returns the month-to-date consumption in
// kWh. The current month is taken from the device clock; an unset clock is
// an error.
func (c *Client) CurrentMonthPowerConsumption(ctx context.Context) (float64, error) {
	dt, err := c.DateTime(ctx)
	if err != nil {
		return 0, err
	}
	now, err := dt.Time()
	if err != nil {
		return 0, err
	}
	return c.MonthPowerConsumption(ctx, now.Month())
}

// Snapshot aggregates the unit's identity, control, sensor and consumption
// state in one call.
type Snapshot struct {
	Basic   *BasicInfo
	Control *ControlInfo
	Sensor  *SensorInfo
	Week    *WeekPower
}

// Snapshot fetches the four info blocks concurrently.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		s.Basic, err = c.BasicInfo(ctx)
		return err
	})
	eg.Go(func() (err error) {
		s.Control, err = c.ControlInfo(ctx)
		return err
	})
	eg.Go(func() (err error) {
		s.Sensor, err = c.SensorInfo(ctx)
		return err
	})
	eg.Go(func() (err error) {
		s.Week, err = c.WeekPower(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
