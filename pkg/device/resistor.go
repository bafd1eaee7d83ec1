// Package device defines the idealized circuit components. Components
// refer to nodes by index into the owning circuit's node arena; the
// circuit's lock discipline keeps pointers to them valid.
package device

// Resistor is an ideal two-terminal resistor identified by the node
// indices it connects.
type Resistor struct {
	Resistance float64 // [ohms]
	ANode      int
	BNode      int

	Current float64 // current into the resistor from node A and out to node B [amps]
}

func NewResistor(resistance float64, aNode, bNode int) Resistor {
	return Resistor{
		Resistance: resistance,
		ANode:      aNode,
		BNode:      bNode,
	}
}

func (r *Resistor) Initialize() {
	r.Current = 0
}
