package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/steampigeon/flightmanager/internal/geometry"
	"github.com/steampigeon/flightmanager/internal/state"
	"github.com/steampigeon/flightmanager/pkg/types"
)

// LocatorState is the subset of state.Manager used by the MCP server.
type LocatorState interface {
	GetFlightState() (types.FlightState, error)
	GetDeployConfig() (types.DeployConfig, error)
	LocatorPosition() (types.Coordinate, error)
	Geometry() types.Geometry
	LastUpdated() time.Time
	RecordHeading(heading float64) types.Geometry
	RecordVector(handheld types.Coordinate, bearing float64, distance int) types.Geometry
}

// Server wraps the MCP SDK server and exposes locator data as tools.
type Server struct {
	sdk   *mcpsdk.Server
	state LocatorState
}

// NewServer creates a Server and registers the locator tools.
func NewServer(ls LocatorState, version string) *Server {
	s := &Server{
		sdk: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "flightmanager",
			Version: version,
		}, nil),
		state: ls,
	}

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_locator_state",
		Description: "Returns the rocket locator's latest GPS fix, sensor health, flight phase and altitude samples.",
	}, s.handleGetLocatorState)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_deploy_config",
		Description: "Returns the recovery deployment configuration reported by the locator before launch.",
	}, s.handleGetDeployConfig)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "update_handheld_heading",
		Description: "Computes the handheld compass heading from accelerometer and magnetometer samples.",
	}, s.handleUpdateHeading)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "locate_rocket",
		Description: "Computes bearing and distance from the handheld position to the rocket locator.",
	}, s.handleLocateRocket)
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "get_geometry",
		Description: "Returns the latest handheld heading and the last computed bearing and distance to the locator.",
	}, s.handleGetGeometry)
	return s
}

// Run starts the MCP server over stdio and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect connects the server to an existing transport (used in tests).
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.sdk.Connect(ctx, t, nil)
}

type getLocatorStateInput struct {
	IncludeStaleSamples bool `json:"include_stale_samples,omitempty" jsonschema:"also return AGL samples left over from earlier messages"`
}

// LocatorStateResponse is the JSON payload returned by get_locator_state.
type LocatorStateResponse struct {
	types.FlightState
	AGLSamples     []types.Reading `json:"agl_samples_m"`
	LastMessageAge string    `json:"last_message_age"`
	Timestamp      string    `json:"timestamp"`
}

type emptyInput struct{}

type headingInput struct {
	AccelX float64 `json:"accel_x" jsonschema:"accelerometer X in m/s^2"`
	AccelY float64 `json:"accel_y" jsonschema:"accelerometer Y in m/s^2"`
	AccelZ float64 `json:"accel_z" jsonschema:"accelerometer Z in m/s^2"`
	MagX   float64 `json:"mag_x" jsonschema:"magnetic field X in uT"`
	MagY   float64 `json:"mag_y" jsonschema:"magnetic field Y in uT"`
	MagZ   float64 `json:"mag_z" jsonschema:"magnetic field Z in uT"`
}

type locateInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"handheld latitude in decimal degrees"`
	Longitude float64 `json:"longitude" jsonschema:"handheld longitude in decimal degrees"`
}

// LocateResponse is the JSON payload returned by locate_rocket.
type LocateResponse struct {
	Locator         types.Coordinate `json:"locator"`
	Handheld        types.Coordinate `json:"handheld"`
	Bearing         float64          `json:"bearing_deg"`
	RelativeBearing float64          `json:"relative_bearing_deg"`
	Distance        int              `json:"distance_m"`
	DistanceText    string           `json:"distance_text"`
	Timestamp       string           `json:"timestamp"`
}

// UnavailableResponse is returned when the requested data cannot be provided.
type UnavailableResponse struct {
	Available      bool   `json:"available"`
	Error          string `json:"error"`
	Code           string `json:"code"`
	Recoverable    bool   `json:"recoverable"`
	Suggestion     string `json:"suggestion"`
	LastMessageAge string `json:"last_message_age,omitempty"`
	Timestamp      string `json:"timestamp"`
}

func (s *Server) handleGetLocatorState(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input getLocatorStateInput,
) (*mcpsdk.CallToolResult, any, error) {
	fs, err := s.state.GetFlightState()
	if err != nil {
		return s.errorResult(err), nil, nil
	}

	n := fs.SamplesWritten
	if input.IncludeStaleSamples {
		n = len(fs.AGL)
	}
	resp := LocatorStateResponse{
		FlightState:    fs,
		AGLSamples:     append([]types.Reading(nil), fs.AGL[:n]...),
		LastMessageAge: humanize.Time(fs.LastMessageTime),
		Timestamp:      now(),
	}
	return jsonResult(resp)
}

func (s *Server) handleGetDeployConfig(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	_ emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	cfg, err := s.state.GetDeployConfig()
	if err != nil {
		return s.errorResult(err), nil, nil
	}
	return jsonResult(cfg)
}

func (s *Server) handleUpdateHeading(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input headingInput,
) (*mcpsdk.CallToolResult, any, error) {
	heading := geometry.Heading(
		geometry.Vector3{X: input.AccelX, Y: input.AccelY, Z: input.AccelZ},
		geometry.Vector3{X: input.MagX, Y: input.MagY, Z: input.MagZ},
	)
	return jsonResult(s.state.RecordHeading(heading))
}

func (s *Server) handleLocateRocket(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	input locateInput,
) (*mcpsdk.CallToolResult, any, error) {
	target, err := s.state.LocatorPosition()
	if err != nil {
		return s.errorResult(err), nil, nil
	}

	handheld := types.Coordinate{Latitude: input.Latitude, Longitude: input.Longitude}
	bearing, distance := geometry.Vector(handheld, target)
	g := s.state.RecordVector(handheld, bearing, distance)

	return jsonResult(LocateResponse{
		Locator:         target,
		Handheld:        handheld,
		Bearing:         bearing,
		RelativeBearing: geometry.NormalizeDegrees(bearing - g.Heading),
		Distance:        distance,
		DistanceText:    humanize.SIWithDigits(float64(distance), 1, "m"),
		Timestamp:       now(),
	})
}

func (s *Server) handleGetGeometry(
	ctx context.Context,
	req *mcpsdk.CallToolRequest,
	_ emptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	return jsonResult(s.state.Geometry())
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

func (s *Server) errorResult(err error) *mcpsdk.CallToolResult {
	resp := UnavailableResponse{
		Available: false,
		Error:     err.Error(),
		Timestamp: now(),
	}
	if last := s.state.LastUpdated(); !last.IsZero() {
		resp.LastMessageAge = humanize.Time(last)
	}

	switch {
	case errors.Is(err, state.ErrStale):
		resp.Code = "DATA_STALE"
		resp.Recoverable = true
		resp.Suggestion = "Check that the locator is powered and within radio range."
	case errors.Is(err, state.ErrNoFix):
		resp.Code = "NO_FIX"
		resp.Recoverable = true
		resp.Suggestion = "Wait for the locator to report a GPS position."
	case errors.Is(err, state.ErrNoConfig):
		resp.Code = "NO_CONFIG"
		resp.Recoverable = true
		resp.Suggestion = "The configuration arrives with prelaunch messages; power-cycle the locator on the pad."
	case errors.Is(err, state.ErrNotConnected):
		resp.Code = "LOCATOR_NOT_CONNECTED"
		resp.Recoverable = true
		resp.Suggestion = "Ensure the radio bridge is running."
	default:
		resp.Code = "UNKNOWN_ERROR"
		resp.Recoverable = false
		resp.Suggestion = "Check application logs for details."
	}

	data, _ := json.Marshal(resp)
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		IsError: true,
	}
}
