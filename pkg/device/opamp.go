package device

// LinearAmp is an ideal op-amp with its positive input grounded and a
// virtual ground assumed on its negative input. The output node has no
// forced voltage: it is a current sink whose voltage is an unknown the
// solver determines, such that the negative input stays at 0 V.
type LinearAmp struct {
	NegNode int
	OutNode int
}

func NewLinearAmp(negNode, outNode int) LinearAmp {
	return LinearAmp{NegNode: negNode, OutNode: outNode}
}

// Comparator is an op-amp configured for saturation: positive input
// grounded, arbitrary negative input, binary output voltage. The output
// is latched between samples so it cannot toggle while the solver is
// converging on a sample.
type Comparator struct {
	NegNode int
	OutNode int
}

func NewComparator(negNode, outNode int) Comparator {
	return Comparator{NegNode: negNode, OutNode: outNode}
}
