package netlist

import (
	"fmt"
	"strings"

	"sloth/pkg/circuit"
)

func isGround(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

// Build constructs and locks a circuit from the netlist. Cards are
// applied in file order, so active devices inherit the builder's
// ordering rules. The returned map resolves node names to indices.
func (n *Netlist) Build() (*circuit.Circuit, map[string]int, error) {
	ckt := circuit.New()
	nodes := make(map[string]int)

	// Forced-voltage nodes must be created before any card references
	// them, because their whole voltage history starts at the forced
	// value.
	for _, e := range n.Elements {
		if e.Type != "V" {
			continue
		}
		name := e.Nodes[0]
		if isGround(name) {
			return nil, nil, fmt.Errorf("netlist: %s: cannot force the ground node", e.Name)
		}
		if _, exists := nodes[name]; exists {
			return nil, nil, fmt.Errorf("netlist: %s: node %q already forced", e.Name, name)
		}
		index, err := ckt.CreateForcedVoltageNode(e.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("netlist: %s: %w", e.Name, err)
		}
		nodes[name] = index
	}

	nodeIndex := func(name string) (int, error) {
		ground := isGround(name)
		if ground {
			// "0", "gnd", "GND", ... all alias one ground node.
			name = "0"
		}
		if index, exists := nodes[name]; exists {
			return index, nil
		}
		var index int
		var err error
		if ground {
			index, err = ckt.CreateGroundNode()
		} else {
			index, err = ckt.CreateNode()
		}
		if err != nil {
			return 0, err
		}
		nodes[name] = index
		return index, nil
	}

	for _, e := range n.Elements {
		if e.Type == "V" {
			continue // already handled
		}

		a, err := nodeIndex(e.Nodes[0])
		if err != nil {
			return nil, nil, fmt.Errorf("netlist: %s: %w", e.Name, err)
		}
		b, err := nodeIndex(e.Nodes[1])
		if err != nil {
			return nil, nil, fmt.Errorf("netlist: %s: %w", e.Name, err)
		}

		switch e.Type {
		case "R":
			_, err = ckt.AddResistor(e.Value, a, b)
		case "C":
			_, err = ckt.AddCapacitor(e.Value, a, b)
		case "A":
			_, err = ckt.AddLinearAmp(a, b)
		case "U":
			_, err = ckt.AddComparator(a, b)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("netlist: %s: %w", e.Name, err)
		}
	}

	ckt.Lock()
	return ckt, nodes, nil
}
