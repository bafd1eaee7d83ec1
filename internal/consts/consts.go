package consts

const (
	VPos = +12.0 // positive supply voltage fed to all op-amps (V)
	VNeg = -12.0 // negative supply voltage fed to all op-amps (V)

	// Comparator saturation voltages, measured from the Torpor hardware
	// (TL074CN U1 pin 1).
	ComparatorHiVoltage = +11.38
	ComparatorLoVoltage = -10.64

	VoltageHistory = 3 // consecutive samples for which each node holds a voltage
)
