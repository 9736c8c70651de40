package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"

	"github.com/jgarman/placeholder-disk/internal/catalog"
)

// Environment variables that override the configuration file.
const (
	EnvImagesDir      = "IMAGES_DIR"
	EnvBasiliskBinary = "BASILISK_BINARY"
	EnvBasiliskROM    = "BASILISK_ROM"
	EnvBasiliskRAM    = "BASILISK_RAM_SIZE"
	EnvModelID        = "BASILISK_MODEL_ID"
	EnvStagingDir     = "STAGING_DIR"
	EnvServerPort     = "PORT"
)

// Config represents the application configuration
type Config struct {
	// Volume layout of the placeholder disk
	Volume VolumeConfig `json:"volume"`

	// Seed file payloads
	Placeholder PlaceholderConfig `json:"placeholder"`

	// Emulator settings
	Emulator EmulatorConfig `json:"emulator"`

	// Directory holding the boot utility and the catalog disks
	ImagesDir string `json:"images_dir"`

	// Companion disks, in boot order
	Catalog []catalog.DiskImage `json:"catalog"`

	// Temporary storage for the staged image
	Staging StagingConfig `json:"staging"`

	// HTTP server configuration
	Server ServerConfig `json:"server"`
}

// VolumeConfig describes the rendered volume
type VolumeConfig struct {
	Name      string `json:"name"`
	ImageName string `json:"image_name"`
	// Size is a datasize string such as "1440KB"
	Size      string `json:"size"`
	Alignment int    `json:"alignment"`
	DesktopDB bool   `json:"desktop_db"`
}

// PlaceholderConfig contains seed file settings
type PlaceholderConfig struct {
	StickiesSize string `json:"stickies_size"`
	Welcome      string `json:"welcome"`
}

// EmulatorConfig contains Basilisk II settings
type EmulatorConfig struct {
	Binary     string   `json:"binary"`
	ROMPath    string   `json:"rom_path"`
	RAMSize    string   `json:"ram_size"`
	Screen     string   `json:"screen"`
	ModelID    int      `json:"model_id"`
	BootImage  string   `json:"boot_image"`
	ExtraPrefs []string `json:"extra_prefs"`
}

// StagingConfig contains temporary storage settings
type StagingConfig struct {
	// Parent directory for staging directories; empty uses the system default
	Dir string `json:"dir"`
	// Writer is "diskfs" or "file"
	Writer string `json:"writer"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	// Timeout settings in seconds
	ReadTimeout  int `json:"read_timeout"`
	WriteTimeout int `json:"write_timeout"`
	IdleTimeout  int `json:"idle_timeout"`

	// CORS settings
	CORS CORSConfig `json:"cors"`
}

// CORSConfig contains CORS settings
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Volume: VolumeConfig{
			Name:      "Stickies Placeholder",
			ImageName: "Stickies.dsk",
			Size:      "1440KB", // HD floppy
			Alignment: 512,
			DesktopDB: true,
		},
		Placeholder: PlaceholderConfig{
			StickiesSize: "64KB",
		},
		Emulator: EmulatorConfig{
			Binary:    "BasiliskII",
			ModelID:   5, // Macintosh IIci
			BootImage: "Speed Disk 3.1.3.dsk",
			Screen:    "win/640/480",
		},
		ImagesDir: "Images",
		Catalog:   catalog.Default(),
		Staging: StagingConfig{
			Writer: "diskfs",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 15,
			IdleTimeout:  60,
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
	}
}

// Load loads configuration from a JSON file and applies environment
// overrides. If path is empty or the file doesn't exist, it starts from
// the default configuration.
func Load(path string) (*Config, error) {
	config := Default() // Start with defaults

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDotEnv loads a .env file into the process environment if present.
func LoadDotEnv(paths ...string) {
	// Fail silently if not present
	_ = godotenv.Load(paths...)
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvImagesDir, &c.ImagesDir)
	str(EnvBasiliskBinary, &c.Emulator.Binary)
	str(EnvBasiliskROM, &c.Emulator.ROMPath)
	str(EnvBasiliskRAM, &c.Emulator.RAMSize)
	str(EnvStagingDir, &c.Staging.Dir)

	if v, ok := lookup(EnvModelID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvModelID, v, err)
		}
		c.Emulator.ModelID = id
	}
	if v, ok := lookup(EnvServerPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvServerPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks that sizes parse and required fields are present.
func (c *Config) Validate() error {
	if _, err := c.VolumeSize(); err != nil {
		return err
	}
	if _, err := c.StickiesSize(); err != nil {
		return err
	}
	if _, err := c.RAMSize(); err != nil {
		return err
	}
	if c.Volume.Name == "" || c.Volume.ImageName == "" {
		return fmt.Errorf("volume name and image name are required")
	}
	if c.Emulator.BootImage == "" {
		return fmt.Errorf("emulator boot image is required")
	}
	return nil
}

// VolumeSize returns the parsed volume size in bytes.
func (c *Config) VolumeSize() (int64, error) {
	n, err := parseSize("volume size", c.Volume.Size)
	return int64(n), err
}

// StickiesSize returns the parsed placeholder size in bytes.
func (c *Config) StickiesSize() (int, error) {
	n, err := parseSize("stickies size", c.Placeholder.StickiesSize)
	return int(n), err
}

// RAMSize returns the parsed emulator RAM size; empty means zero.
func (c *Config) RAMSize() (uint64, error) {
	if c.Emulator.RAMSize == "" {
		return 0, nil
	}
	return parseSize("ram size", c.Emulator.RAMSize)
}

// BootImagePath resolves the boot utility against ImagesDir.
func (c *Config) BootImagePath() string {
	if filepath.IsAbs(c.Emulator.BootImage) {
		return c.Emulator.BootImage
	}
	return filepath.Join(c.ImagesDir, c.Emulator.BootImage)
}

func parseSize(what, s string) (uint64, error) {
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return size.Bytes(), nil
}

// Save writes the configuration to a JSON file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
