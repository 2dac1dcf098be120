// Package powerinfo reads a snapshot of the battery state for status
// reporting. Charge control itself goes through pkg/sysfs; this package is
// informational only.
package powerinfo

import (
	"math"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
)

// Snapshot is a simplified battery snapshot containing the fields the
// battpipe client and status API use.
type Snapshot struct {
	// State is the charging state, e.g. "Charging", "Discharging", "Full".
	State string `json:"state"`
	// CurrentCharge is the charge level in percent of current full capacity.
	CurrentCharge int `json:"currentCharge"`
	// Health is current full capacity in percent of design capacity.
	Health int `json:"health"`
	// ChargeRate is the charge rate in mW, negative while discharging.
	ChargeRate int `json:"chargeRate"`
	// Voltage is the battery voltage in Volts.
	Voltage float64 `json:"voltage"`
}

// Read returns a snapshot of the first battery.
func Read() (*Snapshot, error) {
	batteries, err := battery.GetAll()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read battery state")
	}
	if len(batteries) == 0 {
		return nil, pkgerrors.New("no batteries found")
	}

	bat := batteries[0]
	if bat.State == battery.Discharging {
		bat.ChargeRate = -bat.ChargeRate
	}

	s := &Snapshot{
		State:      bat.State.String(),
		ChargeRate: int(bat.ChargeRate),
		Voltage:    bat.Voltage,
	}
	if bat.Full > 0 {
		s.CurrentCharge = int(math.Round(bat.Current / bat.Full * 100))
	}
	if bat.Design > 0 {
		s.Health = int(math.Round(bat.Full / bat.Design * 100))
	}

	return s, nil
}
