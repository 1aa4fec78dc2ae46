package state

import (
	"sync"
	"time"

	"github.com/steampigeon/flightmanager/pkg/types"
)

// Snapshot is an immutable view of everything the service knows. All fields
// are values, so a Snapshot handed to a reader never changes under it.
type Snapshot struct {
	Sequence  uint64             `json:"sequence"`
	Flight    types.FlightState  `json:"flight"`
	Config    types.DeployConfig `json:"config"`
	HasConfig bool               `json:"has_config"`
	Geometry  types.Geometry     `json:"geometry"`
}

// Manager is a single-writer, many-reader cell holding the latest Snapshot.
// Each commit replaces the snapshot wholesale.
type Manager struct {
	mu             sync.RWMutex
	snap           Snapshot
	staleThreshold time.Duration
	observers      []func(Snapshot)

	// commitMu orders commits with their observer delivery.
	commitMu sync.Mutex

	linkTracked bool
	linkUp      bool
}

// NewManager creates a Manager with the given stale threshold.
// A zero threshold disables staleness checking.
func NewManager(staleThreshold time.Duration) *Manager {
	return &Manager{staleThreshold: staleThreshold}
}

// Subscribe registers fn to receive every committed snapshot. fn runs on the
// committing goroutine, in Sequence order, and must neither block nor commit.
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Snapshot returns the currently published snapshot.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Flight returns the latest flight state without staleness checks.
func (m *Manager) Flight() types.FlightState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Flight
}

// CommitFlight publishes a new flight state.
func (m *Manager) CommitFlight(fs types.FlightState) {
	m.commit(func(s *Snapshot) {
		s.Flight = fs
	})
}

// CommitPrelaunch publishes a flight state and deploy configuration together.
func (m *Manager) CommitPrelaunch(fs types.FlightState, cfg types.DeployConfig) {
	m.commit(func(s *Snapshot) {
		s.Flight = fs
		s.Config = cfg
		s.HasConfig = true
	})
}

// RecordHeading publishes a new handheld heading, moving the current one
// into LastHeading.
func (m *Manager) RecordHeading(heading float64) types.Geometry {
	return m.commit(func(s *Snapshot) {
		s.Geometry.LastHeading = s.Geometry.Heading
		s.Geometry.Heading = heading
	}).Geometry
}

// RecordVector publishes the bearing and distance from handheld to locator.
func (m *Manager) RecordVector(handheld types.Coordinate, bearing float64, distance int) types.Geometry {
	return m.commit(func(s *Snapshot) {
		s.Geometry.Handheld = handheld
		s.Geometry.BearingToLocator = bearing
		s.Geometry.DistanceToLocator = distance
	}).Geometry
}

func (m *Manager) commit(apply func(*Snapshot)) Snapshot {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.Lock()
	next := m.snap
	apply(&next)
	next.Sequence++
	m.snap = next
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
	return next
}

// SetLinkUp records whether the radio bridge is connected. Until it is first
// called the link is not tracked, as when frames arrive over NATS.
func (m *Manager) SetLinkUp(up bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkTracked = true
	m.linkUp = up
}

// GetFlightState returns the latest flight state. It fails with
// ErrNotConnected while a tracked bridge link is down, and with ErrStale if no
// message has been received yet or the last one is older than the stale
// threshold.
func (m *Manager) GetFlightState() (types.FlightState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.linkTracked && !m.linkUp {
		return types.FlightState{}, ErrNotConnected
	}

	last := m.snap.Flight.LastMessageTime
	if last.IsZero() {
		return types.FlightState{}, ErrStale
	}
	if m.staleThreshold > 0 && time.Since(last) > m.staleThreshold {
		return types.FlightState{}, ErrStale
	}
	return m.snap.Flight, nil
}

// GetDeployConfig returns the configuration from the last prelaunch message.
func (m *Manager) GetDeployConfig() (types.DeployConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.snap.HasConfig {
		return types.DeployConfig{}, ErrNoConfig
	}
	return m.snap.Config, nil
}

// LocatorPosition returns the locator's last GPS fix regardless of age or
// link state, so a landed rocket can still be found after the link drops.
func (m *Manager) LocatorPosition() (types.Coordinate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap.Flight.LastMessageTime.IsZero() || !m.snap.Flight.HasFix() {
		return types.Coordinate{}, ErrNoFix
	}
	return m.snap.Flight.Position(), nil
}

// Geometry returns the latest handheld geometry outputs.
func (m *Manager) Geometry() types.Geometry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Geometry
}

// LastUpdated returns the time of the most recent locator message, or zero.
func (m *Manager) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Flight.LastMessageTime
}
