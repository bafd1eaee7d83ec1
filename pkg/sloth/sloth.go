// Package sloth builds the Torpor Sloth circuit: a chaotic oscillator
// made of two integrating op-amp stages (U3, U4), one inverting summing
// op-amp stage (U2), and one comparator (U1), designed
// to drift for hours at audio rate without settling or diverging.
package sloth

import (
	"math"

	"sloth/internal/consts"
	"sloth/pkg/circuit"
)

// TorporSlothCircuit is a Circuit with the fixed Torpor topology locked
// in at construction: 10 nodes, 3 linear amps (U3, U4, U2), 1
// comparator (U1), 8 resistors, 3 capacitors.
//
// The pointers below stay valid for the circuit's lifetime because the
// circuit is locked before they are taken.
type TorporSlothCircuit struct {
	*circuit.Circuit

	variableResistance *float64
	controlVoltage     *float64
	xNodeVoltage       *float64
	yNodeVoltage       *float64
	zNodeVoltage       *float64
}

func NewTorporSlothCircuit() (*TorporSlothCircuit, error) {
	ckt := circuit.New()

	ng, err := ckt.CreateGroundNode()
	if err != nil {
		return nil, err
	}

	// n[1] .. n[8] follow the hardware schematic's node numbering.
	var n [9]int
	for i := 1; i <= 8; i++ {
		if n[i], err = ckt.CreateNode(); err != nil {
			return nil, err
		}
	}

	// CV input node.
	n9, err := ckt.CreateForcedVoltageNode(0)
	if err != nil {
		return nil, err
	}

	if _, err = ckt.AddLinearAmp(n[1], n[2]); err != nil { // U3
		return nil, err
	}
	if _, err = ckt.AddLinearAmp(n[4], n[5]); err != nil { // U4
		return nil, err
	}
	if _, err = ckt.AddLinearAmp(n[6], n[7]); err != nil { // U2
		return nil, err
	}
	if _, err = ckt.AddComparator(n[7], n[8]); err != nil { // U1
		return nil, err
	}

	resistors := []struct {
		ohms float64
		a, b int
	}{
		{1.0e+6, n[1], n[7]},   // R1
		{4.7e+6, n[1], n[8]},   // R2
		{100.0e+3, n[1], n[3]}, // R3 + R9 (variable)
		{100.0e+3, n[6], n[7]}, // R4
		{100.0e+3, n[5], n[6]}, // R5
		{100.0e+3, n[2], n[3]}, // R6
		{100.0e+3, n[3], n[4]}, // R7
		{470.0e+3, n9, n[6]},   // R8
	}
	variableResistorIndex := -1
	for i, r := range resistors {
		index, err := ckt.AddResistor(r.ohms, r.a, r.b)
		if err != nil {
			return nil, err
		}
		if i == 2 {
			variableResistorIndex = index
		}
	}

	capacitors := []struct {
		farads float64
		a, b   int
	}{
		{2.0e-6, n[1], n[2]}, // C1
		{1.0e-6, n[4], n[5]}, // C2
		{50.0e-6, n[3], ng},  // C3
	}
	for _, k := range capacitors {
		if _, err = ckt.AddCapacitor(k.farads, k.a, k.b); err != nil {
			return nil, err
		}
	}

	// Must lock before taking pointers to nodes or resistors.
	ckt.Lock()

	return &TorporSlothCircuit{
		Circuit:            ckt,
		variableResistance: &ckt.Resistor(variableResistorIndex).Resistance,
		controlVoltage:     ckt.NodeVoltage(n9),
		xNodeVoltage:       ckt.NodeVoltage(n[2]),
		yNodeVoltage:       ckt.NodeVoltage(n[5]),
		zNodeVoltage:       ckt.NodeVoltage(n[7]),
	}, nil
}

// SetKnobPosition maps a panel knob fraction, clamped to [0, 1], onto
// the variable resistor: 10K of travel in series with a fixed 100K.
func (t *TorporSlothCircuit) SetKnobPosition(fraction float64) {
	clamped := math.Max(0, math.Min(1, fraction))
	*t.variableResistance = 100.0e+3 + clamped*10.0e+3
}

// SetControlVoltage writes the CV input node, clamped to the supply
// rails.
func (t *TorporSlothCircuit) SetControlVoltage(cv float64) {
	*t.controlVoltage = math.Max(consts.VNeg, math.Min(consts.VPos, cv))
}

func (t *TorporSlothCircuit) XVoltage() float64 {
	return *t.xNodeVoltage
}

func (t *TorporSlothCircuit) YVoltage() float64 {
	return *t.yNodeVoltage
}

func (t *TorporSlothCircuit) ZVoltage() float64 {
	return *t.zNodeVoltage
}
