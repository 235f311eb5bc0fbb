package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"equivproof/domain/verdict"
	"equivproof/internal"
	"equivproof/internal/config"
	"equivproof/internal/ledger"
	"equivproof/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.GroundTruth.Dir = filepath.Join(t.TempDir(), "gt")
	cfg.Ledger.ExportPath = filepath.Join(t.TempDir(), "ledger.json")
	return cfg
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, internal.Discard())
	assert.Error(t, err)
}

func TestNew_WithoutDatabase(t *testing.T) {
	c, err := New(testConfig(t), internal.Discard())
	require.NoError(t, err)
	require.NoError(t, c.OpenDatabase(context.Background()))
	assert.Nil(t, c.Archive)

	gt, err := c.GroundTruth.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gt)
}

func TestShutdown_ExportsLedger(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, internal.Discard(), ledger.WithClock(testkit.NewFixedClock(testkit.Epoch)))
	require.NoError(t, err)

	_, err = c.Harness.Check("qr", verdict.L1, "reference", func() error { return nil })
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(context.Background()))

	_, err = os.Stat(cfg.Ledger.ExportPath)
	require.NoError(t, err)

	reopened, err := New(cfg, internal.Discard())
	require.NoError(t, err)
	require.NoError(t, reopened.LoadLedger(cfg.Ledger.ExportPath))
	assert.Equal(t, verdict.L1, reopened.Ledger.GetLevel("qr"))
	assert.Same(t, reopened.Ledger, reopened.Harness.Ledger)
}

func TestShutdown_EmptyLedgerWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, internal.Discard())
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(context.Background()))

	_, err = os.Stat(cfg.Ledger.ExportPath)
	assert.True(t, os.IsNotExist(err))
}
