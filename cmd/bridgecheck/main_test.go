package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/conformance"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/heap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]byte(`
heap:
  backend: wazero
  memory_limit_pages: 8
  track: true
groups: [take, call_r]
parallel: 3
`))
	require.NoError(t, err)
	assert.Equal(t, &conformance.Config{
		Heap:     heap.Config{Backend: heap.BackendWazero, MemoryLimitPages: 8, Track: true},
		Groups:   []conformance.Group{conformance.GroupTake, conformance.GroupCallR},
		Parallel: 3,
	}, cfg)

	cfg, err = parseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, &conformance.Config{}, cfg)

	_, err = parseConfig([]byte("paralel: 2\n"))
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.PhaseConfigure, e.Phase)
	assert.Equal(t, errors.KindInvalidData, e.Kind)
}

func TestLoadAppliesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups: [take]\nparallel: 2\n"), 0o600))

	opts := &rootOptions{config: path, backend: "WAZERO", groups: []string{"return"}}
	cfg, err := opts.load()
	require.NoError(t, err)
	assert.Equal(t, heap.BackendWazero, cfg.Heap.Backend)
	assert.Equal(t, []conformance.Group{conformance.GroupReturn}, cfg.Groups)
	assert.Equal(t, 2, cfg.Parallel)

	cfg, err = (&rootOptions{}).load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Parallel)

	_, err = (&rootOptions{config: filepath.Join(t.TempDir(), "missing.yaml")}).load()
	assert.Error(t, err)
}

func TestRunCommandJSON(t *testing.T) {
	out, err := execute(t, "run", "--format", "json", "--parallel", "2", "--group", "try_return")
	require.NoError(t, err)

	var reports []*conformance.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.OK())
		assert.NotEmpty(t, r.Outcomes)
	}
}

func TestRunCommandText(t *testing.T) {
	out, err := execute(t, "run", "--backend", "wazero")
	require.NoError(t, err)
	assert.Contains(t, out, "backend=wazero")
	assert.Contains(t, out, "PASS c_return_primitive")
	assert.NotContains(t, out, "FAIL")
	assert.NotContains(t, out, "\x1b[", "plain output when not a terminal")
}

func TestRunCommandErrors(t *testing.T) {
	_, err := execute(t, "run", "--group", "nope")
	assert.Error(t, err)

	_, err = execute(t, "run", "--format", "yaml")
	assert.Error(t, err)
}

func TestRenderReportMarksFailures(t *testing.T) {
	r := &conformance.Report{
		Session: "s1",
		Backend: "arena",
		Outcomes: []conformance.Outcome{
			{Group: conformance.GroupTake, Symbol: "c_take_box", Passed: true},
			{Group: conformance.GroupTake, Symbol: "c_take_str", Message: "boom", Panicked: true},
		},
		Leaks: conformance.Leaks{Blocks: 1},
	}
	out := renderReport(r, false)
	assert.Contains(t, out, "PASS c_take_box")
	assert.Contains(t, out, "FAIL c_take_str")
	assert.Contains(t, out, "panic: boom")
	assert.Contains(t, out, "1 passed, 1 failed")
	assert.Contains(t, out, "leaked 1 blocks and 0 handles")
}

func TestHeaderCommand(t *testing.T) {
	out, err := execute(t, "header")
	require.NoError(t, err)
	assert.Contains(t, out, "struct Shared {")
	assert.Contains(t, out, "c_return_primitive")
}

func TestAtomsCommand(t *testing.T) {
	out, err := execute(t, "atoms")
	require.NoError(t, err)
	for _, a := range atom.All() {
		assert.Contains(t, out, a.Native())
	}
}

func TestInteractiveModel(t *testing.T) {
	m := newInteractiveModel(t.Context(), &conformance.Config{})
	require.Len(t, m.items, len(conformance.Groups())+1)
	assert.Equal(t, len(conformance.Suite()), m.items[0].cases)

	m.selected = 2
	res, ok := m.runGroup().(runResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	require.True(t, res.report.OK())
	for _, o := range res.report.Outcomes {
		assert.Equal(t, m.items[2].groups[0], o.Group)
	}

	m.Update(res)
	assert.Equal(t, stateShowResult, m.state)
	assert.Contains(t, m.View(), "passed")
}
