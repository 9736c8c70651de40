package emulator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionOrdersMedia(t *testing.T) {
	s, err := NewSession("/images/Speed Disk 3.1.3.dsk", []string{"/images/A.dsk", "/images/B.dsk"}, "/tmp/x/Stickies.dsk", ModelIIci)
	require.NoError(t, err)

	assert.Equal(t, []Media{
		{Path: "/images/Speed Disk 3.1.3.dsk", Boot: true},
		{Path: "/images/A.dsk"},
		{Path: "/images/B.dsk"},
		{Path: "/tmp/x/Stickies.dsk"},
	}, s.Media)
	assert.Equal(t, 5, s.ModelID)
	assert.Equal(t, "/images/Speed Disk 3.1.3.dsk", s.BootMedia().Path)
}

func TestNewSessionWithoutCompanions(t *testing.T) {
	s, err := NewSession("/boot.dsk", nil, "/tmp/p.dsk", ModelIIci)
	require.NoError(t, err)
	assert.Equal(t, []string{"/boot.dsk", "/tmp/p.dsk"}, s.Paths())
}

func TestNewSessionRequiresBootPath(t *testing.T) {
	_, err := NewSession("", nil, "/tmp/p.dsk", ModelIIci)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{name: "valid", session: Session{Media: []Media{{Path: "a", Boot: true}, {Path: "b"}}}},
		{name: "empty", session: Session{}, wantErr: true},
		{name: "no boot", session: Session{Media: []Media{{Path: "a"}, {Path: "b"}}}, wantErr: true},
		{name: "two boot", session: Session{Media: []Media{{Path: "a", Boot: true}, {Path: "b", Boot: true}}}, wantErr: true},
		{name: "boot not first", session: Session{Media: []Media{{Path: "a"}, {Path: "b", Boot: true}}}, wantErr: true},
		{name: "negative model", session: Session{Media: []Media{{Path: "a", Boot: true}}, ModelID: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSession)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBootFlagIsNotAPathConvention(t *testing.T) {
	// A path that starts with '*' is just a path.
	s, err := NewSession("/boot.dsk", []string{"*weird.dsk"}, "/tmp/p.dsk", ModelIIci)
	require.NoError(t, err)
	assert.False(t, s.Media[1].Boot)
}

func TestNoOpLauncherRecords(t *testing.T) {
	l := NewNoOpLauncher()
	s, err := NewSession("/boot.dsk", nil, "/tmp/p.dsk", ModelIIci)
	require.NoError(t, err)

	require.NoError(t, l.Launch(context.Background(), s))
	require.Len(t, l.Sessions, 1)
	assert.Equal(t, s, l.Sessions[0])

	boom := errors.New("boom")
	l.OnLaunch = func(Session) error { return boom }
	assert.ErrorIs(t, l.Launch(context.Background(), s), boom)

	assert.ErrorIs(t, l.Launch(context.Background(), Session{}), ErrInvalidSession)
}
