package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mezonai/snapledger/errors"
)

// run executes one CLI invocation against dataDir and returns its stdout
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, args...)
	require.NoError(t, err, out)
	return out
}

func TestCLI_DistributionFlow(t *testing.T) {
	dataDir := t.TempDir()
	genesis := filepath.Join("..", "config", "genesis.yml")

	out := mustRun(t, dataDir, "init", "--genesis", genesis)
	assert.Contains(t, out, "initialized CSI300")

	_, err := run(t, dataDir, "init", "--genesis", genesis)
	assert.Error(t, err, "init must refuse an initialized store")

	out = mustRun(t, dataDir, "balance", "user1")
	assert.Contains(t, out, "balance:     100 CSI300")

	out = mustRun(t, dataDir, "fund", "1000", "--caller", "owner")
	assert.Contains(t, out, "snapshot 1")

	out = mustRun(t, dataDir, "claim", "--caller", "user2")
	assert.Contains(t, out, "user2 claimed 0.3 USDT for snapshot 1")

	_, err = run(t, dataDir, "claim", "--caller", "user2")
	require.ErrorIs(t, err, errs.ErrAlreadyClaimed)

	out = mustRun(t, dataDir, "balance", "user2")
	assert.Contains(t, out, "payout:      0.3 USDT")

	out = mustRun(t, dataDir, "period", "--caller", "user1")
	assert.Contains(t, out, "entitlement of user1: 0.1 USDT (claimed=false)")

	// init, fund and one successful claim; the failed claim saved nothing
	out = mustRun(t, dataDir, "revisions")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1\t"))
	assert.True(t, strings.HasPrefix(lines[2], "3\t"))
	assert.NotEqual(t, lines[1][2:], lines[2][2:])
}

func TestCLI_RestrictionsAndSnapshots(t *testing.T) {
	dataDir := t.TempDir()
	mustRun(t, dataDir, "init", "--genesis", filepath.Join("..", "config", "genesis.yml"))

	// genesis hands the ledger to the engine; take it back to administer it from the CLI
	_, err := run(t, dataDir, "freeze", "user1", "60", "--caller", "owner")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = run(t, dataDir, "transfer", "user2", "1")
	assert.Error(t, err, "--caller is required")

	out := mustRun(t, dataDir, "supply", "--snapshot", "0")
	assert.Contains(t, out, "0 CSI300")

	_, err = run(t, dataDir, "balance", "user1", "--snapshot", "5")
	require.ErrorIs(t, err, errs.ErrNonexistentSnapshot)

	out = mustRun(t, dataDir, "transfer", "user2", "40", "--caller", "user1")
	assert.Contains(t, out, "transferred 40 CSI300 from user1 to user2")

	_, err = run(t, dataDir, "transfer", "user2", "61", "--caller", "user1")
	require.ErrorIs(t, err, errs.ErrInsufficientAvailableBalance)

	out = mustRun(t, dataDir, "accounts")
	assert.Contains(t, out, "user1\t60 CSI300")
}
