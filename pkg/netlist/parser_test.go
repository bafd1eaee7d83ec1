package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sloth/pkg/circuit"
)

const dividerNetlist = `* series/parallel voltage divider
V1 vin 3.0
R1 vin n1 1k
R2 n1 n2 2k
R3 n1 n2 2k
R4 n2 0 1k
`

func TestParse_Divider(t *testing.T) {
	data, err := Parse(dividerNetlist)
	require.NoError(t, err)

	assert.Equal(t, "series/parallel voltage divider", data.Title)
	require.Len(t, data.Elements, 5)

	assert.Equal(t, "V", data.Elements[0].Type)
	assert.Equal(t, []string{"vin"}, data.Elements[0].Nodes)
	assert.Equal(t, 3.0, data.Elements[0].Value)

	assert.Equal(t, "R", data.Elements[1].Type)
	assert.Equal(t, "R1", data.Elements[1].Name)
	assert.Equal(t, 1000.0, data.Elements[1].Value)
}

func TestParse_CommentsAndContinuations(t *testing.T) {
	input := "* title\n* a comment\nR1 a b\n+ 4.7meg\n\nC1 a 0 2u\n"
	data, err := Parse(input)
	require.NoError(t, err)

	require.Len(t, data.Elements, 2)
	assert.InDelta(t, 4.7e6, data.Elements[0].Value, 1)
	assert.InDelta(t, 2e-6, data.Elements[1].Value, 1e-12)
}

func TestParseValue_UnitSuffixes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"100", 100},
		{"1k", 1000},
		{"4.7meg", 4.7e6},
		{"2u", 2e-6},
		{"50uF", 50e-6},
		{"470kOhm", 470e3},
		{"1n", 1e-9},
		{"12p", 12e-12},
		{"1e6", 1e6},
	}
	for _, tc := range cases {
		got, err := parseValue(tc.in)
		require.NoError(t, err, tc.in)
		assert.InEpsilon(t, tc.want, got, 1e-12, tc.in)
	}

	_, err := parseValue("12zz")
	assert.Error(t, err)
}

func TestParse_MalformedCards(t *testing.T) {
	for _, input := range []string{
		"* t\nR1 a b",           // missing value
		"* t\nQ1 a b c",         // unknown type
		"* t\nV1 vin",           // missing voltage
		"* t\nA1 neg",           // missing output node
		"* t\nR1 a b notanum",   // bad value
	} {
		_, err := Parse(input)
		assert.Error(t, err, input)
	}
}

func TestBuild_DividerSolves(t *testing.T) {
	data, err := Parse(dividerNetlist)
	require.NoError(t, err)

	ckt, nodes, err := data.Build()
	require.NoError(t, err)
	require.Contains(t, nodes, "n1")
	require.Contains(t, nodes, "n2")

	_, err = ckt.Update(44100)
	require.NoError(t, err)
	_, err = ckt.Update(44100)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, ckt.GetNodeVoltage(nodes["n1"]), 3.3e-6)
	assert.InDelta(t, 1.0, ckt.GetNodeVoltage(nodes["n2"]), 3.3e-6)
}

func TestBuild_InvertingAmp(t *testing.T) {
	input := `* inverting amplifier
V1 vin 1.0
R1 vin sum 1k
R2 sum out 10k
A1 sum out
`
	data, err := Parse(input)
	require.NoError(t, err)

	ckt, nodes, err := data.Build()
	require.NoError(t, err)

	_, err = ckt.Update(44100)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, ckt.GetNodeVoltage(nodes["out"]), 3.3e-6)
}

func TestBuild_ActiveDeviceOrderPropagates(t *testing.T) {
	input := `* comparator before amp
U1 a b
A1 c d
`
	data, err := Parse(input)
	require.NoError(t, err)

	_, _, err = data.Build()
	assert.ErrorIs(t, err, circuit.ErrDeviceOrder)
}

func TestBuild_GroundSpellingsAlias(t *testing.T) {
	input := `* ground aliases
V1 vin 2.0
R1 vin mid 1k
R2 mid 0 1k
R3 mid gnd 1k
R4 mid GND 1k
`
	data, err := Parse(input)
	require.NoError(t, err)

	ckt, nodes, err := data.Build()
	require.NoError(t, err)

	// One forced input, one mid node, one shared ground.
	assert.Equal(t, 3, ckt.GetNodeCount())
	require.Contains(t, nodes, "0")
	assert.NotContains(t, nodes, "gnd")

	_, err = ckt.Update(44100)
	require.NoError(t, err)

	// Three parallel 1k arms to ground make 333 ohms:
	// V(mid) = 2.0 * (1/3) / (1 + 1/3) = 0.5.
	assert.InDelta(t, 0.5, ckt.GetNodeVoltage(nodes["mid"]), 3.3e-6)
}

func TestBuild_ForcedGroundRejected(t *testing.T) {
	input := "* bad\nV1 0 5.0\n"
	data, err := Parse(input)
	require.NoError(t, err)

	_, _, err = data.Build()
	assert.Error(t, err)
}
