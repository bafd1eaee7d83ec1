package device

// Capacitor is an ideal two-terminal capacitor. Its current follows
// i = C*(dV/dt) with a trapezoidal update over the simulation interval,
// so it keeps one sample of current history.
type Capacitor struct {
	Capacitance float64 // [farads]
	ANode       int
	BNode       int

	Current [2]float64 // [0]=this sample, [1]=previous sample [amps]
}

func NewCapacitor(capacitance float64, aNode, bNode int) Capacitor {
	return Capacitor{
		Capacitance: capacitance,
		ANode:       aNode,
		BNode:       bNode,
	}
}

func (c *Capacitor) Initialize() {
	c.Current[0] = 0
	c.Current[1] = 0
}
