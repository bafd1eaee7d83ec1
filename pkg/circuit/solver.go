package circuit

import (
	"fmt"
	"math"

	"sloth/internal/consts"
)

// updateCurrents computes the net current into every node for the
// present voltage vector and returns the RMS current error in
// nanoamps.
//
// Linear amps need no work here: their inputs are virtual grounds and
// their outputs are current sinks with voltages the solver owns.
// Comparators need no work either: their binary outputs only change
// between samples, once the solver has stabilized.
func (c *Circuit) updateCurrents(dt float64) float64 {
	c.totalCurrentUpdates++

	for i := range c.nodes {
		c.nodes[i].Current = 0
	}

	// Each resistor current immediately reflects the voltage drop
	// across the resistor.
	for i := range c.resistors {
		r := &c.resistors[i]
		na := &c.nodes[r.ANode]
		nb := &c.nodes[r.BNode]
		r.Current = (na.Voltage[0] - nb.Voltage[0]) / r.Resistance
		na.Current -= r.Current
		nb.Current += r.Current
	}

	// Capacitor currents require extrapolation over the time interval.
	// The change in voltage drop across the capacitor times the
	// capacitance equals the charge that flowed over the interval;
	// dividing by dt gives the mean current. Assume the mean is halfway
	// between the previous current and the new unknown current and
	// solve for the new current.
	for i := range c.capacitors {
		k := &c.capacitors[i]
		na := &c.nodes[k.ANode]
		nb := &c.nodes[k.BNode]
		dv := (na.Voltage[0] - nb.Voltage[0]) - (na.Voltage[1] - nb.Voltage[1])
		meanCurrent := k.Capacitance * (dv / dt)
		k.Current[0] = 2*meanCurrent - k.Current[1]
		na.Current -= k.Current[0]
		nb.Current += k.Current[0]
	}

	// Score = sum of squared node currents. Current-sink nodes (ground,
	// forced sources, amplifier outputs) act like a single node with
	// different voltages: their currents must collectively sum to zero
	// to preserve the total charge in the circuit.
	score := 0.0
	sink := 0.0
	for i := range c.nodes {
		n := &c.nodes[i]
		if n.CurrentSink {
			sink += n.Current
		} else {
			score += n.Current * n.Current
		}
	}
	score += sink * sink

	return 1.0e+9 * math.Sqrt(score)
}

// adjustNodeVoltages performs one coordinate-descent pass over the
// unforced node voltages. It probes each axis with +/- DeltaVoltage,
// follows the winning direction with an exponentially growing step, and
// backs off when the score stops improving. Returns the best score
// found and whether the pass made no improvement at all.
func (c *Circuit) adjustNodeVoltages(dt float64) (float64, bool) {
	c.totalAdjustNodeVoltagesCount++

	// Baseline score before changing any voltages.
	score0 := c.updateCurrents(dt)

	// Save every voltage so any axis can rewind to its original value.
	for i := range c.nodes {
		c.nodes[i].savedVoltage = c.nodes[i].Voltage[0]
	}

	// The search space is the vector of all unforced node voltages.
	// Search along each orthogonal axis, one at a time, and only commit
	// a change when it decreases the score.
	bestScore := score0
	for i := range c.nodes {
		n := &c.nodes[i]
		if n.ForcedVoltage {
			continue
		}

		bestVoltage := n.savedVoltage

		// Does increasing the voltage make the score better (smaller)?
		n.Voltage[0] = n.savedVoltage + c.DeltaVoltage
		pscore := c.updateCurrents(dt)

		// Does decreasing it?
		n.Voltage[0] = n.savedVoltage - c.DeltaVoltage
		nscore := c.updateCurrents(dt)

		var voltageStep float64
		switch {
		case pscore < score0 && pscore < nscore:
			bestScore = pscore
			bestVoltage = n.savedVoltage + c.DeltaVoltage
			voltageStep = +c.DeltaVoltage
		case nscore < score0 && nscore < pscore:
			bestScore = nscore
			bestVoltage = n.savedVoltage - c.DeltaVoltage
			voltageStep = -c.DeltaVoltage
		default:
			// No improvement possible along this axis. Restore and
			// move on.
			n.Voltage[0] = n.savedVoltage
			continue
		}

		// Keep going in the improving direction by an exponentially
		// increasing step until scores stop improving.
		backtrackCount := 0
		for backtrackCount < c.BacktrackLimit {
			n.Voltage[0] = bestVoltage + voltageStep
			score1 := c.updateCurrents(dt)
			if score1 < bestScore {
				bestScore = score1
				bestVoltage = n.Voltage[0]
				voltageStep *= c.StepDilation // accelerate the search
			} else {
				voltageStep /= c.StepContraction // decelerate the search
				backtrackCount++
			}
		}

		// Commit the improved voltage and move to the next axis.
		n.Voltage[0] = bestVoltage
	}

	halt := bestScore == score0 // halt if no improvement was possible
	return bestScore, halt
}

// extrapolateUnforcedNodeVoltages seeds the solver by extending the
// recent voltage trend linearly into the next sample.
func (c *Circuit) extrapolateUnforcedNodeVoltages() {
	for i := range c.nodes {
		n := &c.nodes[i]
		if !n.ForcedVoltage {
			dv := n.Voltage[1] - n.Voltage[2]
			n.Voltage[0] = n.Voltage[1] + dv
		}
	}
}

// updateComparatorOutputs latches each comparator's binary output from
// its negative input voltage. Outputs change between solver steps only,
// a 1-sample slew limit that keeps comparators from toggling back and
// forth while the solver is converging.
func (c *Circuit) updateComparatorOutputs() {
	for i := range c.comparators {
		k := &c.comparators[i]
		neg := &c.nodes[k.NegNode]
		out := &c.nodes[k.OutNode]
		if neg.Voltage[0] < 0 {
			out.Voltage[0] = consts.ComparatorHiVoltage
		} else {
			out.Voltage[0] = consts.ComparatorLoVoltage
		}
	}
}

// simulationStep advances the circuit by one oversampled interval.
func (c *Circuit) simulationStep(simSampleRateHz float64) (SolutionResult, error) {
	dt := 1.0 / simSampleRateHz

	// Shift voltage history by one sample. The history feeds capacitor
	// currents (i = C*dV/dt) and the initial-guess extrapolation.
	for i := range c.nodes {
		n := &c.nodes[i]
		for j := consts.VoltageHistory - 1; j > 0; j-- {
			n.Voltage[j] = n.Voltage[j-1]
		}
	}

	// Remember the previous capacitor currents for the trapezoidal
	// update.
	for i := range c.capacitors {
		c.capacitors[i].Current[1] = c.capacitors[i].Current[0]
	}

	c.extrapolateUnforcedNodeVoltages()

	currentUpdatesBefore := c.totalCurrentUpdates

	for count := 1; count <= c.RetryLimit; count++ {
		rms, halt := c.adjustNodeVoltages(dt)
		if c.Debug {
			c.Logger.Debug("solver pass", "count", count, "rms_na", rms)
			c.debugState()
		}
		if halt || rms < c.RMSCurrentErrorToleranceNanoAmps {
			return SolutionResult{
				AdjustNodeVoltagesCount: count,
				CurrentUpdates:          int(c.totalCurrentUpdates - currentUpdatesBefore),
				RMSCurrentError:         rms,
			}, nil
		}
	}

	return SolutionResult{}, fmt.Errorf("%w: sample %d", ErrConvergence, c.totalSamples)
}

// Update advances the simulation by one audio sample, internally
// oversampling as needed to reach MinInternalSamplingRate. It returns
// the solver work aggregated across the oversample steps; the RMS
// current error is that of the final step.
func (c *Circuit) Update(audioSampleRateHz float64) (SolutionResult, error) {
	if audioSampleRateHz <= 0 {
		return SolutionResult{}, fmt.Errorf("%w: %g Hz", ErrSampleRate, audioSampleRateHz)
	}

	// Round the oversampling factor up to the next positive integer.
	realFactor := float64(c.MinInternalSamplingRate) / audioSampleRateHz
	factor := int(math.Ceil(realFactor))
	if factor < 1 {
		factor = 1
	}
	simSamplingRateHz := float64(factor) * audioSampleRateHz

	c.updateComparatorOutputs()

	var result SolutionResult
	for step := 0; step < factor; step++ {
		if c.Debug {
			c.Logger.Debug("update step", "sample", c.totalSamples, "step", step)
		}
		stepResult, err := c.simulationStep(simSamplingRateHz)
		if err != nil {
			return SolutionResult{}, err
		}
		c.updateComparatorOutputs()
		result.AdjustNodeVoltagesCount += stepResult.AdjustNodeVoltagesCount
		result.CurrentUpdates += stepResult.CurrentUpdates
		result.RMSCurrentError = stepResult.RMSCurrentError
	}

	c.totalSamples++
	c.simulationTime += 1 / audioSampleRateHz
	return result, nil
}
