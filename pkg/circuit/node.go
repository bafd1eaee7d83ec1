package circuit

import "sloth/internal/consts"

// Node is one electrical junction of the circuit: the fundamental
// unknown of the simulation, one scalar voltage per node per sample.
type Node struct {
	// Voltage[0] = this sample, Voltage[1] = previous sample, ... [volts]
	Voltage [consts.VoltageHistory]float64

	savedVoltage float64 // scratch-pad holding the pre-mutated voltage during a solver pass

	// Current is the net current flowing into the node [amps].
	// It must be zero (within tolerance) to achieve a solution.
	Current float64

	// Slope is solver scratch: delta E from changing this node's voltage,
	// where E = sum(current^2).
	Slope float64

	// ForcedVoltage means an external agent (fixed source, comparator
	// output) pins this node's voltage. The solver never perturbs it.
	ForcedVoltage bool

	// CurrentSink means this node may absorb arbitrary net current
	// without contributing to the residual (ground, forced sources,
	// op-amp outputs).
	CurrentSink bool

	// IsActiveDeviceInput helps validate correct evaluation order of
	// active devices at build time.
	IsActiveDeviceInput bool
}

func (n *Node) Initialize() {
	if !n.ForcedVoltage {
		for i := range n.Voltage {
			n.Voltage[i] = 0
		}
	}
}
