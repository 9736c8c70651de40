// Package emulator builds emulation sessions and launches them.
package emulator

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

var (
	ErrInvalidSession = errors.New("invalid emulation session")
	ErrLaunchFailed   = errors.New("emulator launch failed")
)

// ModelIIci is the Basilisk II model id of a Macintosh IIci, the machine
// Speed Disk needs to boot.
const ModelIIci = 5

// Media is one disk attached to a session.
type Media struct {
	Path string `json:"path"`
	// Boot marks the primary boot device.
	Boot bool `json:"boot"`
}

// Session is everything a launcher needs to start the emulator.
type Session struct {
	Media   []Media `json:"media"`
	ModelID int     `json:"model_id"`
}

// NewSession orders the media list: the boot disk first, then the
// companion disks, then the placeholder image.
func NewSession(bootPath string, diskPaths []string, placeholderPath string, modelID int) (Session, error) {
	media := make([]Media, 0, len(diskPaths)+2)
	media = append(media, Media{Path: bootPath, Boot: true})
	for _, p := range diskPaths {
		media = append(media, Media{Path: p})
	}
	media = append(media, Media{Path: placeholderPath})

	s := Session{Media: media, ModelID: modelID}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Validate checks that exactly one medium is marked for boot and that it
// comes first.
func (s Session) Validate() error {
	if len(s.Media) == 0 {
		return fmt.Errorf("%w: no media", ErrInvalidSession)
	}
	for i, m := range s.Media {
		if m.Path == "" {
			return fmt.Errorf("%w: media %d has no path", ErrInvalidSession, i)
		}
	}
	boots := lo.CountBy(s.Media, func(m Media) bool { return m.Boot })
	if boots != 1 {
		return fmt.Errorf("%w: %d boot media, want exactly 1", ErrInvalidSession, boots)
	}
	if !s.Media[0].Boot {
		return fmt.Errorf("%w: boot media must come first", ErrInvalidSession)
	}
	if s.ModelID < 0 {
		return fmt.Errorf("%w: model id %d", ErrInvalidSession, s.ModelID)
	}
	return nil
}

// BootMedia returns the boot medium of a valid session.
func (s Session) BootMedia() Media {
	return s.Media[0]
}

// Paths returns the media paths in order.
func (s Session) Paths() []string {
	return lo.Map(s.Media, func(m Media, _ int) string { return m.Path })
}
