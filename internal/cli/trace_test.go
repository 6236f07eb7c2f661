package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRun records a run of the adder in db and returns its id.
func recordRun(t *testing.T, dir, db string) string {
	t.Helper()
	file := writeAdder(t, dir)
	out, err := execute(t, "--format", "json", "run", file, "--set", "A[0..3]=7, B[0..3]=1", "--record", db)
	require.NoError(t, err)
	var res RunResult
	decode(t, out, &res)
	require.NotEmpty(t, res.RunID)
	return res.RunID
}

func TestTraceNoDatabase(t *testing.T) {
	_, err := execute(t, "trace", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trace database")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")
	out, err := execute(t, "trace", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "no runs\n", out)
}

func TestTraceShow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "traces.db")
	id := recordRun(t, dir, db)

	out, err := execute(t, "trace", "show", id[:13], "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "run "+id+": adder_4")
	assert.Contains(t, out, "Co")

	out, err = execute(t, "--format", "json", "trace", "show", id, "--db", db)
	require.NoError(t, err)
	var data struct {
		ID      string           `json:"id"`
		Circuit string           `json:"circuit"`
		Signals []traceSignalOut `json:"signals"`
	}
	assert.Equal(t, "ok", decode(t, out, &data))
	assert.Equal(t, id, data.ID)
	assert.Equal(t, "adder_4", data.Circuit)
	require.Len(t, data.Signals, 5)
	assert.Equal(t, "Y[3]", data.Signals[3].Name)
	assert.NotEmpty(t, data.Signals[3].Values)
	assert.Equal(t, byte('1'), data.Signals[3].Values[len(data.Signals[3].Values)-1])

	_, err = execute(t, "trace", "show", "ffffffff", "--db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}

func TestTraceExport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "traces.db")
	id := recordRun(t, dir, db)

	td := []struct {
		file string
		args []string
		want string
	}{
		{"run.png", nil, "\x89PNG"},
		{"run.html", []string{"--title", "adder"}, "<html"},
		{"run.wav", []string{"--signal", "Co", "--spt", "4"}, "RIFF"},
		{"run.out", []string{"--type", "wav"}, "RIFF"},
	}
	for _, d := range td {
		t.Run(d.file, func(t *testing.T) {
			out := filepath.Join(dir, d.file)
			args := append([]string{"trace", "export", id, "--db", db, "-o", out}, d.args...)
			stdout, err := execute(t, args...)
			require.NoError(t, err)
			assert.Contains(t, stdout, "exported run "+id)
			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Contains(t, string(data), d.want)
		})
	}

	t.Run("errors", func(t *testing.T) {
		_, err := execute(t, "trace", "export", id, "--db", db, "-o", filepath.Join(dir, "run.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output type")

		_, err = execute(t, "trace", "export", id, "--db", db, "-o", filepath.Join(dir, "x.wav"), "--signal", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no signal "nope"`)

		_, err = execute(t, "trace", "export", id, "--db", db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required flag")
	})
}

func TestTraceRm(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "traces.db")
	id := recordRun(t, dir, db)

	out, err := execute(t, "trace", "rm", id, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "removed "+id+"\n", out)

	out, err = execute(t, "trace", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "no runs\n", out)

	_, err = execute(t, "trace", "rm", id, "--db", db)
	require.Error(t, err)
}
