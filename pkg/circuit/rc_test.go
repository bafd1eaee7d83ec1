package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResistorCapacitorTimeConstant charges a series RC with tau = 1 s
// from a 1 V supply for 3 simulated seconds and compares the capacitor
// voltage against 1 - exp(-t) at every sample.
func TestResistorCapacitorTimeConstant(t *testing.T) {
	const resistance = 1.0e+6
	const capacitance = 1.0e-6
	const rc = resistance * capacitance
	const supplyVoltage = 1.0

	c := New()
	n0, err := c.CreateForcedVoltageNode(supplyVoltage)
	require.NoError(t, err)
	n1, err := c.CreateNode()
	require.NoError(t, err)
	n2, err := c.CreateGroundNode()
	require.NoError(t, err)
	_, err = c.AddResistor(resistance, n0, n1)
	require.NoError(t, err)
	_, err = c.AddCapacitor(capacitance, n1, n2)
	require.NoError(t, err)
	c.Lock()

	nsamples := int(sampleRate) * 3
	if testing.Short() {
		nsamples = int(sampleRate) / 2
	}

	var totalAdjust, totalUpdates int64
	maxdiff := 0.0
	for sample := 0; sample < nsamples; sample++ {
		time := float64(sample) / sampleRate
		expected := supplyVoltage * (1.0 - math.Exp(-time/rc))
		diff := math.Abs(c.GetNodeVoltage(n1) - expected)
		if diff > maxdiff {
			maxdiff = diff
		}

		result, err := c.Update(sampleRate)
		require.NoError(t, err)
		totalAdjust += int64(result.AdjustNodeVoltagesCount)
		totalUpdates += int64(result.CurrentUpdates)
	}

	assert.LessOrEqual(t, maxdiff, 1.8e-5, "excessive capacitor voltage error")

	stats := c.GetPerformanceStats()
	assert.EqualValues(t, nsamples, stats.TotalSamples)
	assert.Equal(t, totalAdjust, stats.TotalAdjustNodeVoltagesCount)
	assert.Equal(t, totalUpdates, stats.TotalCurrentUpdates)
}

// TestOversampling verifies that low audio rates are oversampled up to
// the internal minimum rate.
func TestOversampling(t *testing.T) {
	c := New()
	n0, err := c.CreateForcedVoltageNode(1.0)
	require.NoError(t, err)
	n1, err := c.CreateNode()
	require.NoError(t, err)
	ng, err := c.CreateGroundNode()
	require.NoError(t, err)
	_, err = c.AddResistor(1000, n0, n1)
	require.NoError(t, err)
	_, err = c.AddResistor(1000, n1, ng)
	require.NoError(t, err)
	c.Lock()

	// 8 kHz audio rate with a 40 kHz internal minimum gives 5
	// oversample steps, each one solver run of at least one pass.
	result, err := c.Update(8000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.AdjustNodeVoltagesCount, 5)
	assert.InDelta(t, 0.5, c.GetNodeVoltage(n1), 3.3e-6)
}
