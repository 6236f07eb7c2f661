package lsim

// settledValues is the read side of the node value double buffer. It holds the
// node values as of the last completed step and is only updated by commit.
//
type settledValues struct {
	v []Value
}

func (b *settledValues) get(n Node) Value { return b.v[n] }

// commit copies the pending value of node n into the settled buffer.
func (b *settledValues) commit(n Node, p *pendingValues) { b.v[n] = p.v[n] }

// pendingValues is the write side of the node value double buffer. It holds the
// values resolved so far during the current step.
//
type pendingValues struct {
	v []Value
}

func (b *pendingValues) get(n Node) Value { return b.v[n] }

func (b *pendingValues) set(n Node, v Value) { b.v[n] = v }

// nodeValues wraps both buffers. Code outside this file never indexes the
// underlying slices.
//
type nodeValues struct {
	settled settledValues
	pending pendingValues
}

// grow adds a node with value v and returns its id.
func (nv *nodeValues) grow(v Value) Node {
	nv.settled.v = append(nv.settled.v, v)
	nv.pending.v = append(nv.pending.v, v)
	return Node(len(nv.settled.v) - 1)
}

// force sets both buffers of node n to v.
func (nv *nodeValues) force(n Node, v Value) {
	nv.settled.v[n] = v
	nv.pending.v[n] = v
}

// reset sets every node to v in both buffers.
func (nv *nodeValues) reset(v Value) {
	for i := range nv.settled.v {
		nv.settled.v[i] = v
		nv.pending.v[i] = v
	}
}

func (nv *nodeValues) len() int { return len(nv.settled.v) }

func (nv *nodeValues) clear() {
	nv.settled.v = nv.settled.v[:0]
	nv.pending.v = nv.pending.v[:0]
}
