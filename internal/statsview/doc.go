// Package statsview serves live runtime statistics of the simulator process
// over HTTP. It is only functional in binaries built with the statsview build
// tag:
//
//	go build -tags statsview ./cmd/lsim
//
// Charts are then available at localhost:12600/debug/statsview and pprof
// data at localhost:12600/debug/pprof/.
package statsview

// Address is the default listen address.
const Address = "localhost:12600"

const url = "/debug/statsview"
