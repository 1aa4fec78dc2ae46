package types

import "fmt"

// FlightPhase is the locator's flight state machine position. Values are
// ordered by flight progress and compare with < and >.
type FlightPhase uint8

const (
	PhaseWaitingLaunch FlightPhase = iota
	PhaseLaunched
	PhaseBurnout
	PhaseNoseover
	PhaseDroguePrimaryDeployed
	PhaseDrogueBackupDeployed
	PhaseMainPrimaryDeployed
	PhaseMainBackupDeployed
	PhaseLanded
)

var phaseNames = [...]string{
	PhaseWaitingLaunch:         "waiting_launch",
	PhaseLaunched:              "launched",
	PhaseBurnout:               "burnout",
	PhaseNoseover:              "noseover",
	PhaseDroguePrimaryDeployed: "drogue_primary_deployed",
	PhaseDrogueBackupDeployed:  "drogue_backup_deployed",
	PhaseMainPrimaryDeployed:   "main_primary_deployed",
	PhaseMainBackupDeployed:    "main_backup_deployed",
	PhaseLanded:                "landed",
}

// ParseFlightPhase maps a wire byte to a phase. ok is false for bytes the
// locator firmware does not define; callers keep their previous phase.
func ParseFlightPhase(b byte) (FlightPhase, bool) {
	if int(b) >= len(phaseNames) {
		return 0, false
	}
	return FlightPhase(b), true
}

// InFlight reports whether the phase is strictly between launch and landing.
func (p FlightPhase) InFlight() bool {
	return p > PhaseLaunched && p < PhaseLanded
}

func (p FlightPhase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// MarshalText encodes the phase by name.
func (p FlightPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (p *FlightPhase) UnmarshalText(text []byte) error {
	v, err := parseEnum(string(text), phaseNames[:], "phase")
	if err != nil {
		return err
	}
	*p = FlightPhase(v)
	return nil
}

// DeployMode selects which channels fire for drogue and main deployment.
// Unknown wire values are kept as-is.
type DeployMode uint8

const (
	DeployDroguePrimaryDrogueBackup DeployMode = iota
	DeployMainPrimaryMainBackup
	DeployDroguePrimaryMainPrimary
	DeployDrogueBackupMainBackup
)

var deployModeNames = [...]string{
	DeployDroguePrimaryDrogueBackup: "drogue_primary_drogue_backup",
	DeployMainPrimaryMainBackup:     "main_primary_main_backup",
	DeployDroguePrimaryMainPrimary:  "drogue_primary_main_primary",
	DeployDrogueBackupMainBackup:    "drogue_backup_main_backup",
}

// Valid reports whether m is a mode the firmware defines.
func (m DeployMode) Valid() bool {
	return int(m) < len(deployModeNames)
}

func (m DeployMode) String() string {
	if m.Valid() {
		return deployModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// MarshalText encodes the mode by name.
func (m DeployMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (m *DeployMode) UnmarshalText(text []byte) error {
	v, err := parseEnum(string(text), deployModeNames[:], "mode")
	if err != nil {
		return err
	}
	*m = DeployMode(v)
	return nil
}

// parseEnum resolves a known name or the "prefix(n)" form used for raw
// values.
func parseEnum(s string, names []string, prefix string) (uint8, error) {
	for i, name := range names {
		if s == name {
			return uint8(i), nil //nolint:gosec // tables are shorter than 256 entries
		}
	}
	var v uint8
	if _, err := fmt.Sscanf(s, prefix+"(%d)", &v); err != nil {
		return 0, fmt.Errorf("unknown %s %q", prefix, s)
	}
	return v, nil
}
