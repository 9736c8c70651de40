package emulator

import "context"

// Launcher starts an emulation session.
type Launcher interface {
	// Launch starts the session. It returns an error only when the
	// emulator could not be started; how the session ends is not reported.
	Launch(ctx context.Context, s Session) error

	// Name identifies the launcher in logs.
	Name() string
}
