package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/roach88/tagstore/internal/store"
	"github.com/roach88/tagstore/internal/testutil"
)

// cliHarness runs root commands against one database with one
// deterministic clock shared across invocations.
type cliHarness struct {
	t     *testing.T
	db    string
	clock store.Clock
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	return &cliHarness{
		t:     t,
		db:    filepath.Join(t.TempDir(), "cli.db"),
		clock: testutil.NewDeterministicClock(),
	}
}

// run executes the root command with args and returns stdout.
func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCommand(&RootOptions{Clock: h.clock})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", h.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run that fails the test on error.
func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("tagstore %v: %v", args, err)
	}
	return out
}

// seedConns saves the two Conn records used across tests.
func (h *cliHarness) seedConns() {
	h.t.Helper()
	h.mustRun("save", "Conn", "--id", "1",
		"--tags", `{"state":"active","roles":["x"]}`,
		"--value", `{"label":"first"}`)
	h.mustRun("save", "Conn", "--id", "2",
		"--tags", `{"state":"done","roles":["x","y"]}`,
		"--value", `{"label": "second"}`)
}
