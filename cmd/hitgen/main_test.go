package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpeedups(t *testing.T) {
	got, err := parseSpeedups(" 0.1, 0.25,,1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.25, 1}, got)

	_, err = parseSpeedups("0.1,fast")
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("HITGEN_TEST_STR", "x")
	t.Setenv("HITGEN_TEST_BOOL", "yes")
	t.Setenv("HITGEN_TEST_DUR", "3ms")
	t.Setenv("HITGEN_TEST_BAD", "soon")
	assert.Equal(t, "x", getEnvStr("HITGEN_TEST_STR", "y"))
	assert.Equal(t, "y", getEnvStr("HITGEN_TEST_UNSET", "y"))
	assert.True(t, getEnvBool("HITGEN_TEST_BOOL", false))
	assert.Equal(t, 3*time.Millisecond, getEnvDuration("HITGEN_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("HITGEN_TEST_BAD", time.Second))
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: vek\nseeds: [3, 4]\n"), 0o600))

	cmd := &cobra.Command{}
	addConfigFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--backend", "portable", "--seed1", "9"}))
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "portable", cfg.Backend)
	assert.Equal(t, [2]uint64{3, 9}, cfg.Seeds)
	assert.Equal(t, 1, cfg.Workers)
}

func TestGenerateAndDecode(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("layout: {doms: 2, mods: 2, capacity: 4096}\nseeds: [1, 2]\n"), 0o600))

	gen := &cobra.Command{}
	addConfigFlags(gen)
	gen.Flags().Int64("start", 0, "")
	gen.Flags().Duration("duration", time.Millisecond, "")
	gen.Flags().Int("slices", 2, "")
	gen.Flags().String("out", filepath.Join(dir, "s.hgs"), "")
	gen.Flags().String("store", filepath.Join(dir, "db"), "")
	gen.Flags().String("run-id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "")
	require.NoError(t, gen.Flags().Parse([]string{"--config", cfgPath}))
	require.NoError(t, runGenerate(gen, nil))

	dec := &cobra.Command{}
	dec.Flags().Int("n", 3, "")
	dec.Flags().String("store", "", "")
	dec.Flags().String("run-id", "", "")
	dec.Flags().Int64("start", 0, "")
	require.NoError(t, runDecode(dec, []string{filepath.Join(dir, "s.hgs")}))

	require.NoError(t, dec.Flags().Parse([]string{
		"--store", filepath.Join(dir, "db"),
		"--run-id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"--start", "1000000",
	}))
	require.NoError(t, runDecode(dec, nil))

	runs := &cobra.Command{}
	runs.Flags().String("store", filepath.Join(dir, "db"), "")
	runs.Flags().String("run-id", "", "")
	require.NoError(t, runRuns(runs, nil))
	require.NoError(t, runs.Flags().Parse([]string{"--run-id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}))
	require.NoError(t, runRuns(runs, nil))

	missing := &cobra.Command{}
	missing.Flags().String("store", "", "")
	missing.Flags().String("run-id", "", "")
	assert.Error(t, runRuns(missing, nil))
}
