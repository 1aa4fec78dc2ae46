package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmcp "github.com/steampigeon/flightmanager/internal/mcp"
	"github.com/steampigeon/flightmanager/internal/state"
	"github.com/steampigeon/flightmanager/pkg/types"
)

// mockLocatorState controls what the state accessors return in tests.
type mockLocatorState struct {
	flight    types.FlightState
	flightErr error
	config    types.DeployConfig
	configErr error
	position  types.Coordinate
	posErr    error
	geometry  types.Geometry
	lastSeen  time.Time
}

func (m *mockLocatorState) GetFlightState() (types.FlightState, error) {
	return m.flight, m.flightErr
}

func (m *mockLocatorState) GetDeployConfig() (types.DeployConfig, error) {
	return m.config, m.configErr
}

func (m *mockLocatorState) LocatorPosition() (types.Coordinate, error) {
	return m.position, m.posErr
}

func (m *mockLocatorState) Geometry() types.Geometry {
	return m.geometry
}

func (m *mockLocatorState) LastUpdated() time.Time {
	return m.lastSeen
}

func (m *mockLocatorState) RecordHeading(heading float64) types.Geometry {
	m.geometry.LastHeading = m.geometry.Heading
	m.geometry.Heading = heading
	return m.geometry
}

func (m *mockLocatorState) RecordVector(handheld types.Coordinate, bearing float64, distance int) types.Geometry {
	m.geometry.Handheld = handheld
	m.geometry.BearingToLocator = bearing
	m.geometry.DistanceToLocator = distance
	return m.geometry
}

func sampleFlight() types.FlightState {
	fs := types.FlightState{
		LastMessageTime: time.Now().Add(-2 * time.Second),
		Latitude:        42.508333,
		Longitude:       -71.504167,
		FixQuality:      1,
		Satellites:      9,
		HDOP:            0.9,
		AltimeterOK:     true,
		AltitudeAGL:     123.4,
		Phase:           types.PhaseNoseover,
		BatteryVoltage:  3700,
		SamplesWritten:  1,
	}
	for i := range fs.AGL {
		fs.AGL[i] = types.Reading(i)
	}
	return fs
}

// callTool connects the MCP server via in-memory transports and calls the tool.
func callTool(t *testing.T, ls internalmcp.LocatorState, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	srv := internalmcp.NewServer(ls, "test")
	st, ct := mcpsdk.NewInMemoryTransports()

	_, err := srv.Connect(ctx, st)
	require.NoError(t, err)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "1.0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	return res
}

func decodeResult(t *testing.T, res *mcpsdk.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text := res.Content[0].(*mcpsdk.TextContent).Text
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &m))
	return m
}

func TestGetLocatorStateSuccess(t *testing.T) {
	ls := &mockLocatorState{flight: sampleFlight()}
	res := callTool(t, ls, "get_locator_state", nil)

	require.False(t, res.IsError)
	m := decodeResult(t, res)

	assert.InDelta(t, 42.508333, m["latitude"].(float64), 1e-9)
	assert.InDelta(t, -71.504167, m["longitude"].(float64), 1e-9)
	assert.InDelta(t, 123.4, m["altitude_agl_m"].(float64), 1e-4)
	assert.Equal(t, "noseover", m["flight_phase"])
	assert.Equal(t, true, m["altimeter_ok"])
	assert.Equal(t, float64(3700), m["battery_voltage"])
	assert.Equal(t, "2 seconds ago", m["last_message_age"])

	ts, ok := m["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestGetLocatorStateTrimsStaleSamples(t *testing.T) {
	ls := &mockLocatorState{flight: sampleFlight()}

	res := callTool(t, ls, "get_locator_state", nil)
	samples := decodeResult(t, res)["agl_samples_m"].([]any)
	assert.Len(t, samples, 1)

	res = callTool(t, ls, "get_locator_state", map[string]any{"include_stale_samples": true})
	samples = decodeResult(t, res)["agl_samples_m"].([]any)
	require.Len(t, samples, types.SamplesPerSecond)
	assert.Equal(t, float64(19), samples[19])
}

func TestGetDeployConfig(t *testing.T) {
	ls := &mockLocatorState{config: types.DeployConfig{
		DeployMode:                types.DeployMainPrimaryMainBackup,
		LaunchDetectAltitude:      30,
		MainPrimaryDeployAltitude: 150,
		DeviceName:                "Pigeon-1",
	}}
	res := callTool(t, ls, "get_deploy_config", nil)

	require.False(t, res.IsError)
	m := decodeResult(t, res)
	assert.Equal(t, "main_primary_main_backup", m["deploy_mode"])
	assert.Equal(t, float64(150), m["main_primary_deploy_altitude_m"])
	assert.Equal(t, "Pigeon-1", m["device_name"])
}

func TestUpdateHandheldHeading(t *testing.T) {
	ls := &mockLocatorState{geometry: types.Geometry{Heading: 45}}
	res := callTool(t, ls, "update_handheld_heading", map[string]any{
		"accel_x": 0.0, "accel_y": 9.81, "accel_z": 0.0,
		"mag_x": -20.0, "mag_y": -40.0, "mag_z": 0.0,
	})

	require.False(t, res.IsError)
	m := decodeResult(t, res)
	assert.InDelta(t, 90, m["heading_deg"].(float64), 1e-6)
	assert.InDelta(t, 45, m["last_heading_deg"].(float64), 1e-9)
}

func TestLocateRocket(t *testing.T) {
	ls := &mockLocatorState{
		position: types.Coordinate{Latitude: 1, Longitude: 0},
		geometry: types.Geometry{Heading: 90},
	}
	res := callTool(t, ls, "locate_rocket", map[string]any{"latitude": 0.0, "longitude": 0.0})

	require.False(t, res.IsError)
	m := decodeResult(t, res)
	assert.InDelta(t, 0, m["bearing_deg"].(float64), 1e-9)
	assert.InDelta(t, 270, m["relative_bearing_deg"].(float64), 1e-9)
	assert.Equal(t, float64(111194), m["distance_m"])
	assert.Contains(t, m["distance_text"], "km")

	assert.Equal(t, 111194, ls.geometry.DistanceToLocator)
	assert.Equal(t, types.Coordinate{}, ls.geometry.Handheld)
}

func TestGetGeometry(t *testing.T) {
	ls := &mockLocatorState{geometry: types.Geometry{
		Heading:           12.5,
		LastHeading:       10,
		BearingToLocator:  200,
		DistanceToLocator: 850,
	}}
	res := callTool(t, ls, "get_geometry", nil)

	require.False(t, res.IsError)
	m := decodeResult(t, res)
	assert.InDelta(t, 12.5, m["heading_deg"].(float64), 1e-9)
	assert.InDelta(t, 200, m["bearing_to_locator_deg"].(float64), 1e-9)
	assert.Equal(t, float64(850), m["distance_to_locator_m"])
}

func TestToolErrors(t *testing.T) {
	tests := []struct {
		name        string
		tool        string
		ls          *mockLocatorState
		args        map[string]any
		code        string
		recoverable bool
	}{
		{"stale", "get_locator_state", &mockLocatorState{flightErr: state.ErrStale}, nil, "DATA_STALE", true},
		{"not connected", "get_locator_state", &mockLocatorState{flightErr: state.ErrNotConnected}, nil, "LOCATOR_NOT_CONNECTED", true},
		{"unknown", "get_locator_state", &mockLocatorState{flightErr: errors.New("some unexpected error")}, nil, "UNKNOWN_ERROR", false},
		{"no config", "get_deploy_config", &mockLocatorState{configErr: state.ErrNoConfig}, nil, "NO_CONFIG", true},
		{"no fix", "locate_rocket", &mockLocatorState{posErr: state.ErrNoFix}, map[string]any{"latitude": 1.0, "longitude": 2.0}, "NO_FIX", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, tt.ls, tt.tool, tt.args)

			require.True(t, res.IsError)
			m := decodeResult(t, res)
			assert.Equal(t, tt.code, m["code"])
			assert.Equal(t, tt.recoverable, m["recoverable"])
			assert.Equal(t, false, m["available"])
			assert.NotEmpty(t, m["suggestion"])
		})
	}
}

func TestLocateRocketWithManager(t *testing.T) {
	mgr := state.NewManager(0)
	fs := sampleFlight()
	fs.Latitude, fs.Longitude = 0, 1
	mgr.CommitFlight(fs)

	res := callTool(t, mgr, "locate_rocket", map[string]any{"latitude": 0.0, "longitude": 0.0})
	require.False(t, res.IsError)
	m := decodeResult(t, res)
	assert.InDelta(t, 90, m["bearing_deg"].(float64), 1e-9)

	g := mgr.Geometry()
	assert.InDelta(t, 90, g.BearingToLocator, 1e-9)
	assert.Equal(t, 111194, g.DistanceToLocator)
}

func TestTimestampIsRFC3339(t *testing.T) {
	ls := &mockLocatorState{flight: sampleFlight()}
	res := callTool(t, ls, "get_locator_state", nil)

	require.False(t, res.IsError)
	m := decodeResult(t, res)

	ts := m["timestamp"].(string)
	parsed, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, 5*time.Second)
}

func TestGetLocatorStateNonFiniteReadings(t *testing.T) {
	fs := sampleFlight()
	fs.HDOP = types.Reading(math.NaN())
	fs.AGL[0] = types.Reading(math.Inf(1))
	ls := &mockLocatorState{flight: fs}

	res := callTool(t, ls, "get_locator_state", nil)

	require.False(t, res.IsError)
	m := decodeResult(t, res)
	assert.Nil(t, m["hdop"])
	assert.Equal(t, []any{nil}, m["agl_samples_m"])
	assert.InDelta(t, 42.508333, m["latitude"].(float64), 1e-9)
}

func TestStaleErrorReportsLastMessageAge(t *testing.T) {
	ls := &mockLocatorState{
		flightErr: state.ErrStale,
		lastSeen:  time.Now().Add(-3 * time.Minute),
	}
	m := decodeResult(t, callTool(t, ls, "get_locator_state", nil))
	assert.Equal(t, "DATA_STALE", m["code"])
	assert.Equal(t, "3 minutes ago", m["last_message_age"])

	ls = &mockLocatorState{flightErr: state.ErrStale}
	m = decodeResult(t, callTool(t, ls, "get_locator_state", nil))
	_, present := m["last_message_age"]
	assert.False(t, present, "nothing received yet")
}

func TestLinkDownWithManager(t *testing.T) {
	mgr := state.NewManager(0)
	fs := sampleFlight()
	fs.Latitude, fs.Longitude = 0, 1
	mgr.CommitFlight(fs)
	mgr.SetLinkUp(false)

	res := callTool(t, mgr, "get_locator_state", nil)
	require.True(t, res.IsError)
	m := decodeResult(t, res)
	assert.Equal(t, "LOCATOR_NOT_CONNECTED", m["code"])
	assert.Equal(t, "2 seconds ago", m["last_message_age"])

	// The last fix stays usable for finding the rocket.
	res = callTool(t, mgr, "locate_rocket", map[string]any{"latitude": 0.0, "longitude": 0.0})
	require.False(t, res.IsError)

	mgr.SetLinkUp(true)
	res = callTool(t, mgr, "get_locator_state", nil)
	assert.False(t, res.IsError)
}
