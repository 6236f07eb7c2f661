/*
Package lsim is a digital logic simulator using four-valued logic: False, True,
Undefined and Error.

A circuit is described with the model package, then instantiated into a
Simulator:

	sim := lsim.New(hwlib.NewRegistry())
	inst, err := circuit.Instantiate(sim, true)
	sim.Init()
	inst.WritePort("a", lsim.True)
	sim.RunUntilStable(5)
	v, err := inst.ReadPort("out")

The simulator keeps one value per node (an electrical net joining several
pins). Component behaviors read node values as they were at the end of the
previous step and write their outputs for the current step. Once every
component has run, each written node is resolved from its active drivers: a
single driver sets the node, no driver falls back to the node's default value
(see pull resistors) and several drivers put the node in the Error state.
Evaluation order within a step therefore never changes the outcome.

Component behaviors are looked up by component type in a Registry. The hwlib
package provides the registry of built-in components (gates, buffers,
connectors, constants, pull resistors, oscillators and 7-segment LEDs).
*/
package lsim
