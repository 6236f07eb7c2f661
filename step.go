package lsim

// Init resets the simulation state: all nodes are set to False, time is set to
// 1, components apply their initial output values and the setup behaviors are
// run. Every node is marked as changed so that the first step evaluates every
// dependent component.
//
func (s *Simulator) Init() {
	s.time = 1
	s.values.reset(False)
	for i := range s.writeTime {
		s.writeTime[i] = 0
		s.changeTime[i] = 0
	}
	for i := range s.pinValues {
		s.pinValues[i] = Undefined
	}
	for i := range s.nodes {
		s.nodes[i].active = s.nodes[i].active[:0]
	}
	s.dirtyWrite = s.dirtyWrite[:0]
	s.dirtyNext = s.dirtyNext[:0]
	s.changes = 0

	// restart independent behaviors from scratch
	s.independent = s.independent[:0]
	s.indepOps = s.indepOps[:0]
	for _, c := range s.components {
		c.queued = 0
		c.active = false
		if b, ok := s.reg.Lookup(c.desc.Type()); ok && b.Independent != nil {
			c.active = true
			s.independent = append(s.independent, c)
		}
	}

	for _, c := range s.components {
		c.applyInitialValues()
	}

	for _, c := range s.components {
		if b, ok := s.reg.Lookup(c.desc.Type()); ok && b.Setup != nil {
			b.Setup(s, c)
		}
	}

	s.dirtyRead = s.dirtyRead[:0]
	for n := range s.nodes {
		s.dirtyRead = append(s.dirtyRead, Node(n))
	}

	s.log.Debug("simulator initialised",
		"components", len(s.components),
		"pins", len(s.pinNodes),
		"nodes", s.NumNodes(),
		"independent", len(s.independent))
}

// Step runs one simulation step.
//
//	1. components depending on a node that changed during the previous step
//	   are evaluated, each at most once;
//	2. every active independent component is run;
//	3. nodes written to during this step are resolved: no driver gives the
//	   node's default value, one driver gives its value and two or more drivers
//	   give Error.
//
func (s *Simulator) Step() {
	s.time++

	// collect dependents of changed nodes
	s.dirtyComps = s.dirtyComps[:0]
	for _, n := range s.dirtyRead {
		for _, c := range s.nodes[n].dependents {
			if c.queued != s.time {
				c.queued = s.time
				s.dirtyComps = append(s.dirtyComps, c)
			}
		}
	}

	for _, c := range s.dirtyComps {
		s.reg.inputChanged(c.desc.Type())(s, c)
	}

	s.applyIndependentOps()
	for _, c := range s.independent {
		s.reg.independent(c.desc.Type())(s, c)
	}

	s.postprocess()
}

// postprocess resolves the nodes written to during the current step and
// commits their value to the settled buffer.
//
func (s *Simulator) postprocess() {
	s.dirtyNext = s.dirtyNext[:0]
	for _, n := range s.dirtyWrite {
		v := s.resolve(n)
		s.values.pending.set(n, v)
		if v != s.values.settled.get(n) {
			s.changeTime[n] = s.time
			s.dirtyNext = append(s.dirtyNext, n)
		}
	}
	for _, n := range s.dirtyNext {
		s.values.settled.commit(n, &s.values.pending)
	}
	s.dirtyWrite = s.dirtyWrite[:0]
	s.changes = len(s.dirtyNext)
	s.dirtyRead, s.dirtyNext = s.dirtyNext, s.dirtyRead
}

// RunUntilStable steps the simulation until no node has changed for quiet
// consecutive steps. It never returns for a circuit that does not settle, such
// as one with a free-running oscillator; use RunUntilStableMax to bound the
// number of steps.
//
func (s *Simulator) RunUntilStable(quiet int) {
	if quiet < 1 {
		quiet = 1
	}
	remaining := quiet
	for {
		s.Step()
		if s.changes > 0 {
			remaining = quiet
			continue
		}
		remaining--
		if remaining == 0 {
			return
		}
	}
}

// RunUntilStableMax is like RunUntilStable but gives up after maxTicks steps.
// It returns true if the simulation became stable.
//
func (s *Simulator) RunUntilStableMax(quiet, maxTicks int) bool {
	if quiet < 1 {
		quiet = 1
	}
	remaining := quiet
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if s.changes > 0 {
			remaining = quiet
			continue
		}
		remaining--
		if remaining == 0 {
			return true
		}
	}
	return false
}

// RunUntilChange steps the simulation until node changes value, for at most
// maxTicks steps. It returns true if the node changed.
//
func (s *Simulator) RunUntilChange(node Node, maxTicks int) bool {
	s.checkNode(node)
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if s.changeTime[node] == s.time {
			return true
		}
	}
	return false
}

// Changes returns the number of nodes that changed value during the last step.
func (s *Simulator) Changes() int { return s.changes }

// ActivateIndependent adds c to the set of components whose independent
// behavior runs every step. The change takes effect at the next independent
// pass, so it is safe to call from within a behavior.
//
func (s *Simulator) ActivateIndependent(c *Component) {
	s.indepOps = append(s.indepOps, indepOp{c, true})
}

// DeactivateIndependent removes c from the set of independent components. Like
// ActivateIndependent, the change is deferred to the next independent pass.
//
func (s *Simulator) DeactivateIndependent(c *Component) {
	s.indepOps = append(s.indepOps, indepOp{c, false})
}

func (s *Simulator) applyIndependentOps() {
	for _, op := range s.indepOps {
		c := op.c
		switch {
		case op.add && !c.active:
			if s.reg.independent(c.desc.Type()) == nil {
				continue
			}
			c.active = true
			s.independent = append(s.independent, c)
		case !op.add && c.active:
			c.active = false
			for i, ic := range s.independent {
				if ic == c {
					s.independent = append(s.independent[:i], s.independent[i+1:]...)
					break
				}
			}
		}
	}
	s.indepOps = s.indepOps[:0]
}
