package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestDefaultSizes(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	size, err := c.VolumeSize()
	require.NoError(t, err)
	assert.Equal(t, int64(1474560), size)

	stickies, err := c.StickiesSize()
	require.NoError(t, err)
	assert.Equal(t, 64*1024, stickies)

	ram, err := c.RAMSize()
	require.NoError(t, err)
	assert.Zero(t, ram)

	assert.Equal(t, 5, c.Emulator.ModelID)
	assert.Equal(t, filepath.Join("Images", "Speed Disk 3.1.3.dsk"), c.BootImagePath())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default().Volume, c.Volume)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	c := Default()
	c.ImagesDir = "/srv/images"
	c.Emulator.RAMSize = "64MB"
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/images", loaded.ImagesDir)

	ram, err := loaded.RAMSize()
	require.NoError(t, err)
	assert.Equal(t, uint64(64*1024*1024), ram)
	assert.Equal(t, "/srv/images/Speed Disk 3.1.3.dsk", loaded.BootImagePath())
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadSize(t *testing.T) {
	c := Default()
	c.Volume.Size = "lots"
	assert.Error(t, c.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvImagesDir:      "/images",
		EnvBasiliskBinary: "/opt/basilisk/BasiliskII",
		EnvBasiliskROM:    "/roms/IIci.rom",
		EnvModelID:        "14",
		EnvStagingDir:     "",
	}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, "/images", c.ImagesDir)
	assert.Equal(t, "/opt/basilisk/BasiliskII", c.Emulator.Binary)
	assert.Equal(t, "/roms/IIci.rom", c.Emulator.ROMPath)
	assert.Equal(t, 14, c.Emulator.ModelID)
	assert.Empty(t, c.Staging.Dir)

	require.NoError(t, Default().ApplyEnv(noEnv))
}

func TestApplyEnvBadModel(t *testing.T) {
	err := Default().ApplyEnv(func(k string) (string, bool) {
		if k == EnvModelID {
			return "iici", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BASILISK_ROM=/roms/from-dotenv.rom\n"), 0644))
	t.Setenv(EnvBasiliskROM, "")
	os.Unsetenv(EnvBasiliskROM)

	LoadDotEnv(path)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/roms/from-dotenv.rom", c.Emulator.ROMPath)
}
