package analysis

import (
	"fmt"

	"sloth/pkg/circuit"
)

// Watch names a node voltage to record during a transient run.
type Watch struct {
	Name      string
	NodeIndex int
}

// Transient drives Circuit.Update at a fixed audio sample rate for a
// given duration, recording watched node voltages. Decimate > 1 keeps
// every Nth sample in the results; the simulation itself always runs at
// full rate.
type Transient struct {
	BaseAnalysis
	sampleRate float64
	duration   float64
	watches    []Watch

	Decimate int

	// LastResult holds the SolutionResult of the final sample.
	LastResult circuit.SolutionResult
}

func NewTransient(sampleRate, duration float64) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(),
		sampleRate:   sampleRate,
		duration:     duration,
		Decimate:     1,
	}
}

// Watch registers a node voltage trace, stored as "V(<name>)".
func (tr *Transient) Watch(name string, nodeIndex int) {
	tr.watches = append(tr.watches, Watch{Name: name, NodeIndex: nodeIndex})
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	if ckt == nil {
		return fmt.Errorf("analysis: circuit not set")
	}
	tr.Circuit = ckt
	return nil
}

func (tr *Transient) Execute() error {
	if tr.Circuit == nil {
		return fmt.Errorf("analysis: circuit not set")
	}

	decimate := tr.Decimate
	if decimate < 1 {
		decimate = 1
	}

	nsamples := int(tr.duration*tr.sampleRate + 0.5)
	for sample := 0; sample < nsamples; sample++ {
		time := float64(sample) / tr.sampleRate

		// Record the state the caller would read before this sample's
		// update, matching how an audio caller consumes the circuit.
		if sample%decimate == 0 {
			solution := make(map[string]float64, len(tr.watches))
			for _, w := range tr.watches {
				solution["V("+w.Name+")"] = tr.Circuit.GetNodeVoltage(w.NodeIndex)
			}
			tr.StoreTimeResult(time, solution)
		}

		result, err := tr.Circuit.Update(tr.sampleRate)
		if err != nil {
			return fmt.Errorf("analysis: sample %d (t=%g s): %w", sample, time, err)
		}
		tr.LastResult = result
	}

	return nil
}
