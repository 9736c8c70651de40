package hfs

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const (
	maxVolumeNameLen = 27
	maxFileNameLen   = 31
)

// encodeName converts a name to Mac Roman and checks the HFS limits.
func encodeName(name string, limit int) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrFormat)
	}
	if strings.ContainsRune(name, ':') {
		return nil, fmt.Errorf("%w: name %q contains ':'", ErrFormat, name)
	}
	b, err := charmap.Macintosh.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: name %q is not Mac Roman: %v", ErrFormat, name, err)
	}
	if len(b) > limit {
		return nil, fmt.Errorf("%w: name %q is %d bytes, limit is %d", ErrFormat, name, len(b), limit)
	}
	return b, nil
}

func decodeName(b []byte) string {
	s, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// fourCC validates a type or creator code.
func fourCC(what, code string) ([4]byte, error) {
	var out [4]byte
	if len(code) != 4 {
		return out, fmt.Errorf("%w: %s code %q is %d bytes, want 4", ErrFormat, what, code, len(code))
	}
	copy(out[:], code)
	return out, nil
}

// compareNames orders catalog names the way the File Manager does for
// plain ASCII: case-insensitive, then by length.
func compareNames(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := foldByte(a[i]), foldByte(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func foldByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

var macEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

func toMacTime(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix() - macEpoch.Unix())
}

func fromMacTime(v uint32) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(macEpoch.Unix()+int64(v), 0).UTC()
}
