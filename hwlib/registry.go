package hwlib

import "github.com/db47h/lsim"

// Register adds the behaviors of the built-in component types to r.
// ConnectorOut, Via, SubCircuit and Text have no behavior of their own.
//
func Register(r *lsim.Registry) {
	r.Register(lsim.ConnectorIn, lsim.Behavior{Independent: ConnectorIn})
	r.Register(lsim.Constant, lsim.Behavior{Independent: Constant})
	r.Register(lsim.PullResistor, lsim.Behavior{Setup: PullResistorSetup})
	r.Register(lsim.Buffer, lsim.Behavior{InputChanged: Buffer})
	r.Register(lsim.TristateBuffer, lsim.Behavior{InputChanged: TristateBuffer})
	r.Register(lsim.AndGate, lsim.Behavior{InputChanged: And})
	r.Register(lsim.OrGate, lsim.Behavior{InputChanged: Or})
	r.Register(lsim.NotGate, lsim.Behavior{InputChanged: Not})
	r.Register(lsim.NandGate, lsim.Behavior{InputChanged: Nand})
	r.Register(lsim.NorGate, lsim.Behavior{InputChanged: Nor})
	r.Register(lsim.XorGate, lsim.Behavior{InputChanged: Xor})
	r.Register(lsim.XnorGate, lsim.Behavior{InputChanged: Xnor})
	r.Register(lsim.Oscillator, lsim.Behavior{Setup: OscillatorSetup, Independent: Oscillator})
	r.Register(lsim.SevenSegmentLED, lsim.Behavior{Setup: LEDSetup, Independent: LED})
}

// NewRegistry returns a registry holding the built-in behaviors.
//
func NewRegistry() *lsim.Registry {
	r := lsim.NewRegistry()
	Register(r)
	return r
}
