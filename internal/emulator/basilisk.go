package emulator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/charmbracelet/log"
)

// DefaultBasiliskBinary is looked up on PATH when no binary is configured.
const DefaultBasiliskBinary = "BasiliskII"

// BasiliskConfig configures the Basilisk II launcher.
type BasiliskConfig struct {
	Binary  string
	ROMPath string
	// RAMSize in bytes; zero leaves the emulator default.
	RAMSize uint64
	// Screen is a Basilisk screen spec such as "win/640/480".
	Screen string
	// ExtraPrefs are appended verbatim, one per line.
	ExtraPrefs []string

	Stdout io.Writer
	Stderr io.Writer
}

// BasiliskLauncher runs sessions in Basilisk II.
type BasiliskLauncher struct {
	cfg      BasiliskConfig
	logger   *log.Logger
	lookPath func(string) (string, error)
}

// Verify BasiliskLauncher implements the interface
var _ Launcher = (*BasiliskLauncher)(nil)

// NewBasiliskLauncher creates a Basilisk II launcher.
func NewBasiliskLauncher(cfg BasiliskConfig, logger *log.Logger) *BasiliskLauncher {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBasiliskBinary
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &BasiliskLauncher{cfg: cfg, logger: logger, lookPath: exec.LookPath}
}

// Name returns "basilisk".
func (b *BasiliskLauncher) Name() string {
	return "basilisk"
}

// Prefs renders the Basilisk II preferences for a session. The launcher
// marks the boot disk with a leading '*'.
func (b *BasiliskLauncher) Prefs(s Session) []byte {
	var buf bytes.Buffer
	for _, m := range s.Media {
		if m.Boot {
			fmt.Fprintf(&buf, "disk *%s\n", m.Path)
		} else {
			fmt.Fprintf(&buf, "disk %s\n", m.Path)
		}
	}
	fmt.Fprintf(&buf, "modelid %d\n", s.ModelID)
	if b.cfg.ROMPath != "" {
		fmt.Fprintf(&buf, "rom %s\n", b.cfg.ROMPath)
	}
	if b.cfg.RAMSize > 0 {
		buf.WriteString("ramsize " + strconv.FormatUint(b.cfg.RAMSize, 10) + "\n")
	}
	if b.cfg.Screen != "" {
		fmt.Fprintf(&buf, "screen %s\n", b.cfg.Screen)
	}
	for _, line := range b.cfg.ExtraPrefs {
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}

// BinaryPath resolves the configured emulator binary.
func (b *BasiliskLauncher) BinaryPath() (string, error) {
	path, err := b.lookPath(b.cfg.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found: %v", ErrLaunchFailed, b.cfg.Binary, err)
	}
	return path, nil
}

// Launch writes a prefs file and runs Basilisk II until it exits so that
// staged media stay in place for the whole session. The exit status is
// logged and not returned.
func (b *BasiliskLauncher) Launch(ctx context.Context, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	binary, err := b.BinaryPath()
	if err != nil {
		return err
	}

	prefs, err := os.CreateTemp("", "basilisk-prefs-*")
	if err != nil {
		return fmt.Errorf("%w: create prefs: %v", ErrLaunchFailed, err)
	}
	defer os.Remove(prefs.Name())
	if _, err := prefs.Write(b.Prefs(s)); err != nil {
		prefs.Close()
		return fmt.Errorf("%w: write prefs: %v", ErrLaunchFailed, err)
	}
	if err := prefs.Close(); err != nil {
		return fmt.Errorf("%w: write prefs: %v", ErrLaunchFailed, err)
	}

	cmd := exec.CommandContext(ctx, binary, "--config", prefs.Name())
	cmd.Stdout = b.cfg.Stdout
	cmd.Stderr = b.cfg.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrLaunchFailed, binary, err)
	}
	b.logger.Info("emulator started", "pid", cmd.Process.Pid, "media", len(s.Media), "model", s.ModelID)

	if err := cmd.Wait(); err != nil {
		b.logger.Warn("emulator exited", "err", err)
		return nil
	}
	b.logger.Info("emulator exited")
	return nil
}
