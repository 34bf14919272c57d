package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ranmrdrakono/mmutable/mmu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, mmu.DefaultSlots, cfg.Slots)
	assert.Equal(t, DefaultTableSymbol, cfg.TableSymbol)
	assert.True(t, cfg.Privileged)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, `
soc: S5123AP
load_address: 0x40010000
table_address: 0x430178ac
slots: 12
privileged: false
`))
	require.NoError(t, err)
	assert.Equal(t, "S5123AP", cfg.SoC)
	assert.Equal(t, uint32(0x40010000), cfg.LoadAddress)
	assert.Equal(t, uint32(0x430178ac), cfg.TableAddress)
	assert.Equal(t, 12, cfg.Slots)
	assert.False(t, cfg.Privileged)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultTableSymbol, cfg.TableSymbol)
	assert.False(t, cfg.FallbackTable)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "slots: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "table_symbol: \"\"\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "table_symbol: \"\"\nfallback_table: true\n"))
	assert.NoError(t, err)

	_, err = Load(writeFile(t, "slots: [1, 2]\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
