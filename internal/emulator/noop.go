package emulator

import "context"

// NoOpLauncher records sessions instead of starting an emulator. It backs
// dry runs and tests.
type NoOpLauncher struct {
	Sessions []Session

	// OnLaunch, when set, runs during Launch and its error is returned.
	OnLaunch func(Session) error
}

// NewNoOpLauncher creates a launcher that only records sessions.
func NewNoOpLauncher() *NoOpLauncher {
	return &NoOpLauncher{}
}

// Launch validates and records the session.
func (l *NoOpLauncher) Launch(ctx context.Context, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.Sessions = append(l.Sessions, s)
	if l.OnLaunch != nil {
		return l.OnLaunch(s)
	}
	return nil
}

// Name returns "noop".
func (l *NoOpLauncher) Name() string {
	return "noop"
}
