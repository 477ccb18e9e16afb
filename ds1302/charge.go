package ds1302

import (
	"fmt"
	"strings"
)

// Charge is a trickle charger setting: the number of diodes and the resistor
// in the path from VCC2 to VCC1.
type Charge uint8

const (
	ChargeDisabled Charge = iota
	Charge1Diode2K
	Charge1Diode4K
	Charge1Diode8K
	Charge2Diode2K
	Charge2Diode4K
	Charge2Diode8K
)

// Trickle charge register fields.
const (
	chargeSelect  = 0xA << 4 // the only pattern that enables the charger
	chargeDiode1  = 1 << 2
	chargeDiode2  = 2 << 2
	chargeRes2K   = 1 << 0
	chargeRes4K   = 2 << 0
	chargeRes8K   = 3 << 0
	chargeDisable = 0x00
)

var chargeNames = [...]string{
	ChargeDisabled: "disabled",
	Charge1Diode2K: "1-diode-2k",
	Charge1Diode4K: "1-diode-4k",
	Charge1Diode8K: "1-diode-8k",
	Charge2Diode2K: "2-diode-2k",
	Charge2Diode4K: "2-diode-4k",
	Charge2Diode8K: "2-diode-8k",
}

func (c Charge) String() string {
	if int(c) < len(chargeNames) {
		return chargeNames[c]
	}
	return fmt.Sprintf("Charge(%d)", uint8(c))
}

// ParseCharge returns the Charge named s, as printed by Charge.String.
// "enable" and "disable" are accepted too; "enable" selects two diodes and
// the 8k resistor, the smallest charging current.
func ParseCharge(s string) (Charge, error) {
	s = strings.ToLower(s)
	switch s {
	case "enable":
		return Charge2Diode8K, nil
	case "disable":
		return ChargeDisabled, nil
	}
	for c, name := range chargeNames {
		if s == name {
			return Charge(c), nil
		}
	}
	return 0, paramError("unknown charge setting %q", s)
}

// register returns the trickle charge register value for c.
func (c Charge) register() (uint8, bool) {
	if c == ChargeDisabled {
		return chargeDisable, true
	}
	if c > Charge2Diode8K {
		return 0, false
	}
	diode := uint8(chargeDiode1)
	if c >= Charge2Diode2K {
		diode = chargeDiode2
	}
	res := uint8(c-Charge1Diode2K)%3 + chargeRes2K
	return chargeSelect | diode | res, true
}

// chargeOf decodes a trickle charge register value. Any pattern that does
// not select the charger, or selects no diode or no resistor, disables it.
func chargeOf(v uint8) Charge {
	if v&0xF0 != chargeSelect {
		return ChargeDisabled
	}
	res := v & 0x03
	if res == 0 {
		return ChargeDisabled
	}
	switch v & 0x0C {
	case chargeDiode1:
		return Charge1Diode2K + Charge(res-chargeRes2K)
	case chargeDiode2:
		return Charge2Diode2K + Charge(res-chargeRes2K)
	}
	return ChargeDisabled
}
