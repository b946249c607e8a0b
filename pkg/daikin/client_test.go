package daikin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter serves canned responses keyed by endpoint path and records
// the query values of set requests.
type fakeAdapter struct {
	mu        sync.Mutex
	responses map[string]string
	sets      map[string]url.Values
	requested []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		responses: map[string]string{
			pathControlInfo: controlInfoBody,
			pathSensorInfo:  "ret=OK,htemp=24.0,hhum=-,otemp=-7.0,err=0,cmpfreq=40",
			pathBasicInfo:   basicInfoBody,
			pathWeekPower:   "ret=OK,today_runtime=601,datas=0/0/0/0/0/0/1000",
			pathYearPower:   "ret=OK,previous_year=0/0/0/0/0/0/0/0/0/0/0/0,this_year=0/0/0/0/0/0/0/0/0/0/0/15",
			pathDateTime:    "ret=OK,sta=1,cur=2022/12/01 22:01:02,reg=eu,dst=1,zone=10",
			pathSchedule:    "ret=OK,format=v1,en_scdltimer=1,scdl=11419.00420A----10",
			pathSetControl:  "ret=OK",
			pathSetSchedule: "ret=OK",
			pathSetWifi:     "ret=OK",
			pathReboot:      "ret=OK",
		},
		sets: make(map[string]url.Values),
	}
}

func (a *fakeAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requested = append(a.requested, r.URL.Path)
	body, ok := a.responses[r.URL.Path]
	if !ok {
		w.Write([]byte("ret=NG,msg=404 Not Found"))
		return
	}
	if len(r.URL.Query()) > 0 {
		a.sets[r.URL.Path] = r.URL.Query()
	}
	w.Write([]byte(body))
}

func newTestClient(t *testing.T, a *fakeAdapter, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	c, err := NewClient(u.Hostname(), append([]ClientOption{WithPort(port)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestClient_ControlInfo(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	ci, err := c.ControlInfo(context.Background())
	require.NoError(t, err)
	assert.True(t, ci.Power)
	assert.Equal(t, ModeHeat, ci.Mode)
}

func TestClient_SetControl_EchoesUnpatchedFields(t *testing.T) {
	a := newFakeAdapter()
	c := newTestClient(t, a)

	err := c.SetPower(context.Background(), false)
	require.NoError(t, err)

	sent := a.sets[pathSetControl]
	require.NotNil(t, sent)
	// only pow changed; everything else is echoed from the read
	assert.Equal(t, "0", sent.Get("pow"))
	assert.Equal(t, "4", sent.Get("mode"))
	assert.Equal(t, "21.0", sent.Get("stemp"))
	assert.Equal(t, "0", sent.Get("shum"))
	assert.Equal(t, "A", sent.Get("f_rate"))
	assert.Equal(t, "0", sent.Get("f_dir"))
}

func TestClient_SetControl_PreservesNonNumericSetpoint(t *testing.T) {
	a := newFakeAdapter()
	// fan mode: stemp is M, not a number
	a.responses[pathControlInfo] = "ret=OK,pow=1,mode=6,stemp=M,shum=--,f_rate=5,f_dir=0"
	c := newTestClient(t, a)

	err := c.SetFanRate(context.Background(), FanRateSilent)
	require.NoError(t, err)

	sent := a.sets[pathSetControl]
	require.NotNil(t, sent)
	assert.Equal(t, "B", sent.Get("f_rate"))
	// the unparseable setpoint strings must survive byte for byte
	assert.Equal(t, "M", sent.Get("stemp"))
	assert.Equal(t, "--", sent.Get("shum"))
}

func TestClient_SetControl_Patch(t *testing.T) {
	a := newFakeAdapter()
	c := newTestClient(t, a)

	mode := ModeCool
	temp := 23.5
	err := c.SetControl(context.Background(), ControlPatch{Mode: &mode, TargetTemperature: &temp})
	require.NoError(t, err)

	sent := a.sets[pathSetControl]
	assert.Equal(t, "3", sent.Get("mode"))
	assert.Equal(t, "23.5", sent.Get("stemp"))
	assert.Equal(t, "1", sent.Get("pow"))
}

func TestClient_SetSchedule(t *testing.T) {
	a := newFakeAdapter()
	c := newTestClient(t, a)

	entry, err := ParseScheduleEntry("11419.00420A----10")
	require.NoError(t, err)

	err = c.SetSchedule(context.Background(), Schedule{Enabled: true, Entries: []ScheduleEntry{entry}})
	require.NoError(t, err)

	sent := a.sets[pathSetSchedule]
	require.NotNil(t, sent)
	assert.Equal(t, "v1", sent.Get("format"))
	assert.Equal(t, "1", sent.Get("en_scdltimer"))
	assert.Equal(t, "11419.00420A----10", sent.Get("scdl"))
}

func TestClient_SetWifi(t *testing.T) {
	a := newFakeAdapter()
	c := newTestClient(t, a)

	err := c.SetWifi(context.Background(), "homenet", "wifikey", true)
	require.NoError(t, err)

	sent := a.sets[pathSetWifi]
	require.NotNil(t, sent)
	assert.Equal(t, "homenet", sent.Get("ssid"))
	assert.Equal(t, "%77%69%66%69%6b%65%79", sent.Get("key"))
	assert.Equal(t, "mixed", sent.Get("security"))

	// reboot ordered to activate the change
	assert.Contains(t, a.requested, pathReboot)
}

func TestClient_AdapterError(t *testing.T) {
	a := newFakeAdapter()
	a.responses[pathSensorInfo] = "ret=PARAM NG"
	c := newTestClient(t, a)

	_, err := c.SensorInfo(context.Background())
	assert.ErrorIs(t, err, ErrAdapterError)
}

func TestClient_UnknownEndpoint(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	_, err := c.Target(context.Background())
	assert.ErrorIs(t, err, ErrAdapterError)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	c, err := NewClient(u.Hostname(), WithPort(port))
	require.NoError(t, err)

	_, err = c.BasicInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_ContextCancel(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.BasicInfo(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_TodayPowerConsumption(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	watts, err := c.TodayPowerConsumption(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000, watts)

	mins, err := c.TodayRuntime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 601, mins)
}

func TestClient_TodayPowerConsumptionEx(t *testing.T) {
	a := newFakeAdapter()
	a.responses[pathWeekPowerEx] = "ret=OK,s_dayw=2,week_heat=10/0/0/0/0/0/0/0/0/0/0/0/0/0," +
		"week_cool=3/0/0/0/0/0/0/0/0/0/0/0/0/0"
	c := newTestClient(t, a)

	watts, err := c.TodayPowerConsumptionEx(context.Background(), ModeHeat)
	require.NoError(t, err)
	assert.Equal(t, 1000, watts)

	watts, err = c.TodayPowerConsumptionEx(context.Background(), ModeCool)
	require.NoError(t, err)
	assert.Equal(t, 300, watts)

	_, err = c.TodayPowerConsumptionEx(context.Background(), ModeFan)
	assert.Error(t, err)
}

func TestClient_CurrentMonthPowerConsumption(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	// device clock says December; this_year[11] is 15 tenths of a kWh
	kwh, err := c.CurrentMonthPowerConsumption(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, kwh, 0.001)
}

func TestClient_CurrentMonthPowerConsumption_ClockUnset(t *testing.T) {
	a := newFakeAdapter()
	a.responses[pathDateTime] = "ret=OK,sta=1,cur=-,reg=eu,dst=1,zone=10"
	c := newTestClient(t, a)

	_, err := c.CurrentMonthPowerConsumption(context.Background())
	assert.ErrorIs(t, err, ErrValueUnavailable)
}

func TestClient_Snapshot(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	s, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "yläaula", s.Basic.Name)
	assert.Equal(t, ModeHeat, s.Control.Mode)
	require.NotNil(t, s.Sensor.InsideTemperature)
	assert.InDelta(t, 24.0, *s.Sensor.InsideTemperature, 0.001)
	assert.Equal(t, 1000, s.Week.Today())
}

func TestClient_Schedule(t *testing.T) {
	c := newTestClient(t, newFakeAdapter())

	s, err := c.Schedule(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Enabled)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, time.Monday, s.Entries[0].Weekday)
}
