package cli

import (
	"path/filepath"
	"testing"

	"github.com/db47h/lsim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	file := writeAdder(t, t.TempDir())

	out, err := execute(t, "run", file, "--set", "A[0..3]=5, B[0..3]=6", "--set", "Ci=1", "--watch", "Y[0..3],Co")
	require.NoError(t, err)
	assert.Contains(t, out, "adder_4: settled at tick")
	assert.Contains(t, out, "Y[0..3]  1100\n")
	assert.Contains(t, out, "Co       0\n")
}

func TestRunJSON(t *testing.T) {
	file := writeAdder(t, t.TempDir())

	out, err := execute(t, "--format", "json", "run", file, "-c", "adder_4", "-s", "A[0..3]=0xf, B[0..3]=0b0001")
	require.NoError(t, err)
	var res RunResult
	assert.Equal(t, "ok", decode(t, out, &res))
	assert.Equal(t, "adder_4", res.Circuit)
	assert.True(t, res.Stable)
	assert.NotZero(t, res.Ticks)
	assert.Equal(t, []PortValue{{"Y[0]", "0"}, {"Y[1]", "0"}, {"Y[2]", "0"}, {"Y[3]", "0"}, {"Co", "1"}}, res.Ports)
}

func TestRunTrace(t *testing.T) {
	file := writeClock(t, t.TempDir())

	out, err := execute(t, "run", file, "--ticks", "20", "--stable", "10", "--trace")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "did not settle after 20 ticks")
	assert.Contains(t, out, "clock: not settled")
	assert.Contains(t, out, "clk")
}

func TestRunRecord(t *testing.T) {
	dir := t.TempDir()
	file := writeAdder(t, dir)
	db := filepath.Join(dir, "traces.db")

	out, err := execute(t, "--format", "json", "run", file, "--set", "A[0..3]=3", "--record", db)
	require.NoError(t, err)
	var res RunResult
	decode(t, out, &res)
	require.NotEmpty(t, res.RunID)

	out, err = execute(t, "--format", "json", "trace", "list", "--db", db)
	require.NoError(t, err)
	var runs []RunInfo
	decode(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, "adder_4", runs[0].Circuit)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeAdder(t, dir)

	td := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing file", []string{"run", filepath.Join(dir, "nope.lsim")}, "failed to load library"},
		{"unknown circuit", []string{"run", file, "-c", "nope"}, "unknown circuit"},
		{"bad assignment", []string{"run", file, "--set", "A[0..3]"}, "invalid --set"},
		{"unknown port", []string{"run", file, "--set", "X=1"}, "cannot set X"},
		{"output port", []string{"run", file, "--set", "Co=1"}, "cannot set Co"},
		{"value too wide", []string{"run", file, "--set", "A[0..3]=16"}, "invalid --set"},
		{"bad value", []string{"run", file, "--set", "A[0..3]=x"}, "invalid --set"},
		{"unknown watch", []string{"run", file, "--watch", "Z"}, "invalid --watch"},
		{"bad watch", []string{"run", file, "--watch", "Y[0.."}, "invalid --watch"},
		{"no args", []string{"run"}, "accepts 1 arg"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := execute(t, d.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), d.msg)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestParseAssignments(t *testing.T) {
	as, err := parseAssignments([]string{"A[0..3]=5, B=0x0a", "C=true", "E=u"})
	require.NoError(t, err)
	var ports []string
	for _, a := range as {
		ports = append(ports, a.Port.String())
	}
	assert.Equal(t, []string{"A[0..3]", "B", "C", "E"}, ports)
	assert.Equal(t, uint64(5), as[0].Bits)
	assert.Equal(t, lsim.True, as[2].Value)
	assert.Equal(t, lsim.Undefined, as[3].Value)

	for _, s := range []string{"A", "=1", "A="} {
		_, err = parseAssignments([]string{s})
		assert.Error(t, err, s)
	}
}
