// Package circuit simulates audio-rate analog circuits built from
// idealized resistors, capacitors, linear op-amps, and comparators.
// Each output sample is produced by iteratively adjusting the unforced
// node voltages until the RMS per-node Kirchhoff current error drops
// below tolerance.
//
// A Circuit has two phases. During the builder phase, nodes and
// components are added; Lock flips a one-way latch into the runtime
// phase, after which the component slices never resize and pointers
// returned by accessors stay valid for the circuit's lifetime.
//
// Known limitation: all current-sink nodes are treated as one summed
// return path in the residual. Circuits with electrically disconnected
// sink islands would need per-island sums.
package circuit

import (
	"fmt"
	"log/slog"

	"sloth/pkg/device"
)

type Circuit struct {
	isLocked    bool
	nodes       []Node
	resistors   []device.Resistor
	capacitors  []device.Capacitor
	linearAmps  []device.LinearAmp
	comparators []device.Comparator

	totalAdjustNodeVoltagesCount int64
	totalCurrentUpdates          int64
	totalSamples                 int64
	simulationTime               float64

	// Debug enables per-iteration solver diagnostics through Logger.
	Debug  bool
	Logger *slog.Logger

	// Solver tunables. Adjust before simulation starts.
	RMSCurrentErrorToleranceNanoAmps float64
	DeltaVoltage                     float64 // minimum probe step along each axis [volts]
	MinInternalSamplingRate          int     // oversample as needed to reach this internal rate [Hz]
	RetryLimit                       int
	StepDilation                     float64 // exponential acceleration rate for the orthogonal search
	StepContraction                  float64 // exponential deceleration rate for the orthogonal search
	BacktrackLimit                   int
}

func New() *Circuit {
	return &Circuit{
		Logger:                           slog.Default(),
		RMSCurrentErrorToleranceNanoAmps: 1.0,
		DeltaVoltage:                     1.0e-9,
		MinInternalSamplingRate:          40000,
		RetryLimit:                       20,
		StepDilation:                     1.1,
		StepContraction:                  2.0,
		BacktrackLimit:                   3,
	}
}

func (c *Circuit) checkNode(nodeIndex int) error {
	if nodeIndex < 0 || nodeIndex >= len(c.nodes) {
		return fmt.Errorf("%w: %d (have %d nodes)", ErrNodeIndex, nodeIndex, len(c.nodes))
	}
	return nil
}

func (c *Circuit) confirmUnlocked(op string) error {
	if c.isLocked {
		return fmt.Errorf("%w: %s", ErrLocked, op)
	}
	return nil
}

func (c *Circuit) confirmLocked() {
	if !c.isLocked {
		panic(ErrNotLocked)
	}
}

// Lock freezes the topology. Pointers returned by accessors after Lock
// remain valid for the circuit's lifetime because the component slices
// can no longer resize.
func (c *Circuit) Lock() {
	c.isLocked = true
}

// Initialize resets all dynamic state (voltages, currents, counters)
// without disturbing the topology. Forced node voltages are preserved.
func (c *Circuit) Initialize() {
	c.totalAdjustNodeVoltagesCount = 0
	c.totalCurrentUpdates = 0
	c.totalSamples = 0
	c.simulationTime = 0

	for i := range c.resistors {
		c.resistors[i].Initialize()
	}
	for i := range c.capacitors {
		c.capacitors[i].Initialize()
	}
	for i := range c.nodes {
		c.nodes[i].Initialize()
	}
}

// CreateNode appends a fresh unforced, non-sinking node and returns its
// index.
func (c *Circuit) CreateNode() (int, error) {
	if err := c.confirmUnlocked("CreateNode"); err != nil {
		return 0, err
	}
	c.nodes = append(c.nodes, Node{})
	return len(c.nodes) - 1, nil
}

// AllocateForcedVoltageNode marks an existing node as a forced-voltage
// current sink. An external agent becomes responsible for its voltage.
func (c *Circuit) AllocateForcedVoltageNode(nodeIndex int) error {
	if err := c.confirmUnlocked("AllocateForcedVoltageNode"); err != nil {
		return err
	}
	if err := c.checkNode(nodeIndex); err != nil {
		return err
	}
	n := &c.nodes[nodeIndex]
	if n.ForcedVoltage {
		return fmt.Errorf("%w: node %d voltage was already forced", ErrNodeConflict, nodeIndex)
	}
	if n.CurrentSink {
		return fmt.Errorf("%w: node %d was already a current sink", ErrNodeConflict, nodeIndex)
	}
	n.ForcedVoltage = true
	n.CurrentSink = true
	return nil
}

// CreateForcedVoltageNode creates a forced-voltage node with every
// history slot initialized to the given voltage.
func (c *Circuit) CreateForcedVoltageNode(voltage float64) (int, error) {
	nodeIndex, err := c.CreateNode()
	if err != nil {
		return 0, err
	}
	if err := c.AllocateForcedVoltageNode(nodeIndex); err != nil {
		return 0, err
	}
	n := &c.nodes[nodeIndex]
	for i := range n.Voltage {
		n.Voltage[i] = voltage
	}
	return nodeIndex, nil
}

// CreateGroundNode creates a forced node at 0 V.
func (c *Circuit) CreateGroundNode() (int, error) {
	return c.CreateForcedVoltageNode(0)
}

func (c *Circuit) AddResistor(resistance float64, aNodeIndex, bNodeIndex int) (int, error) {
	if err := c.confirmUnlocked("AddResistor"); err != nil {
		return 0, err
	}
	if err := c.checkNode(aNodeIndex); err != nil {
		return 0, err
	}
	if err := c.checkNode(bNodeIndex); err != nil {
		return 0, err
	}
	c.resistors = append(c.resistors, device.NewResistor(resistance, aNodeIndex, bNodeIndex))
	return len(c.resistors) - 1, nil
}

func (c *Circuit) AddCapacitor(capacitance float64, aNodeIndex, bNodeIndex int) (int, error) {
	if err := c.confirmUnlocked("AddCapacitor"); err != nil {
		return 0, err
	}
	if err := c.checkNode(aNodeIndex); err != nil {
		return 0, err
	}
	if err := c.checkNode(bNodeIndex); err != nil {
		return 0, err
	}
	c.capacitors = append(c.capacitors, device.NewCapacitor(capacitance, aNodeIndex, bNodeIndex))
	return len(c.capacitors) - 1, nil
}

// AddLinearAmp adds an ideal op-amp whose negative input becomes a
// virtual ground and whose output becomes an unforced current sink.
//
// Op-amp output voltages are calculated in the order the op-amps were
// added. An amp may not be added if its output feeds the input of an
// active device registered earlier, and no linear amp may follow a
// comparator, because the evaluator handles all linear amps first.
func (c *Circuit) AddLinearAmp(negNodeIndex, outNodeIndex int) (int, error) {
	if err := c.confirmUnlocked("AddLinearAmp"); err != nil {
		return 0, err
	}
	if err := c.checkNode(negNodeIndex); err != nil {
		return 0, err
	}
	if err := c.checkNode(outNodeIndex); err != nil {
		return 0, err
	}

	if c.nodes[outNodeIndex].IsActiveDeviceInput {
		return 0, fmt.Errorf("%w: linear amp output %d feeds an earlier active device's input", ErrDeviceOrder, outNodeIndex)
	}
	if len(c.comparators) != 0 {
		return 0, fmt.Errorf("%w: cannot add a linear amp after any comparator", ErrDeviceOrder)
	}

	// The output is a current sink only: its voltage is an unknown to
	// be solved, such that the negative input remains a virtual ground.
	out := &c.nodes[outNodeIndex]
	if out.ForcedVoltage {
		return 0, fmt.Errorf("%w: node %d voltage was already forced", ErrNodeConflict, outNodeIndex)
	}
	if out.CurrentSink {
		return 0, fmt.Errorf("%w: node %d was already a current sink", ErrNodeConflict, outNodeIndex)
	}
	out.CurrentSink = true

	// The negative input is a virtual ground: voltage pinned to zero,
	// but infinite input impedance, so it absorbs no current.
	neg := &c.nodes[negNodeIndex]
	if neg.ForcedVoltage {
		return 0, fmt.Errorf("%w: node %d voltage was already forced", ErrNodeConflict, negNodeIndex)
	}
	if neg.CurrentSink {
		return 0, fmt.Errorf("%w: node %d was already a current sink", ErrNodeConflict, negNodeIndex)
	}
	neg.ForcedVoltage = true
	for i := range neg.Voltage {
		neg.Voltage[i] = 0
	}
	neg.IsActiveDeviceInput = true

	c.linearAmps = append(c.linearAmps, device.NewLinearAmp(negNodeIndex, outNodeIndex))
	return len(c.linearAmps) - 1, nil
}

// AddComparator adds a saturating op-amp. Its output is a forced
// voltage, latched from the previous sample during each solve.
func (c *Circuit) AddComparator(negNodeIndex, outNodeIndex int) (int, error) {
	if err := c.confirmUnlocked("AddComparator"); err != nil {
		return 0, err
	}
	if err := c.checkNode(negNodeIndex); err != nil {
		return 0, err
	}
	if err := c.checkNode(outNodeIndex); err != nil {
		return 0, err
	}

	if c.nodes[outNodeIndex].IsActiveDeviceInput {
		return 0, fmt.Errorf("%w: comparator output %d feeds an earlier active device's input", ErrDeviceOrder, outNodeIndex)
	}

	out := &c.nodes[outNodeIndex]
	if out.ForcedVoltage {
		return 0, fmt.Errorf("%w: node %d voltage was already forced", ErrNodeConflict, outNodeIndex)
	}
	if out.CurrentSink {
		return 0, fmt.Errorf("%w: node %d was already a current sink", ErrNodeConflict, outNodeIndex)
	}
	out.ForcedVoltage = true
	out.CurrentSink = true

	c.nodes[negNodeIndex].IsActiveDeviceInput = true

	c.comparators = append(c.comparators, device.NewComparator(negNodeIndex, outNodeIndex))
	return len(c.comparators) - 1, nil
}

func (c *Circuit) GetNodeCount() int {
	return len(c.nodes)
}

func (c *Circuit) GetNodeVoltage(nodeIndex int) float64 {
	return c.nodes[nodeIndex].Voltage[0]
}

// Node returns a read-only view of a node. Panics before Lock.
func (c *Circuit) Node(nodeIndex int) *Node {
	c.confirmLocked()
	return &c.nodes[nodeIndex]
}

// NodeVoltage returns a write-through handle to a node's present
// voltage. Writing through it is the supported channel for injecting
// input signals into forced nodes. Panics before Lock.
func (c *Circuit) NodeVoltage(nodeIndex int) *float64 {
	c.confirmLocked()
	return &c.nodes[nodeIndex].Voltage[0]
}

func (c *Circuit) GetResistorCount() int {
	return len(c.resistors)
}

// Resistor returns a pointer to a resistor; its Resistance field may be
// adjusted between samples (e.g. a panel knob). Panics before Lock.
func (c *Circuit) Resistor(index int) *device.Resistor {
	c.confirmLocked()
	return &c.resistors[index]
}

func (c *Circuit) GetCapacitorCount() int {
	return len(c.capacitors)
}

func (c *Circuit) Capacitor(index int) *device.Capacitor {
	c.confirmLocked()
	return &c.capacitors[index]
}

func (c *Circuit) GetLinearAmpCount() int {
	return len(c.linearAmps)
}

func (c *Circuit) LinearAmp(index int) *device.LinearAmp {
	c.confirmLocked()
	return &c.linearAmps[index]
}

func (c *Circuit) GetComparatorCount() int {
	return len(c.comparators)
}

func (c *Circuit) Comparator(index int) *device.Comparator {
	c.confirmLocked()
	return &c.comparators[index]
}

func (c *Circuit) GetPerformanceStats() PerformanceStats {
	return PerformanceStats{
		TotalAdjustNodeVoltagesCount: c.totalAdjustNodeVoltagesCount,
		TotalCurrentUpdates:          c.totalCurrentUpdates,
		TotalSamples:                 c.totalSamples,
		SimulationTimeInSeconds:      c.simulationTime,
	}
}

func (c *Circuit) debugState() {
	for i := range c.nodes {
		n := &c.nodes[i]
		c.Logger.Debug("node state",
			"node", i,
			"voltage", n.Voltage[0],
			"current", n.Current,
			"forced", n.ForcedVoltage,
			"sink", n.CurrentSink,
		)
	}
}
