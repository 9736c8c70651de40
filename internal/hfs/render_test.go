package hfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func hdOptions() RenderOptions {
	return RenderOptions{Size: FloppyHD.Size, Align: 512, DesktopDB: true, Now: testNow}
}

func stickiesVolume(d1, d2 []byte) *Volume {
	v := NewVolume("Stickies Placeholder")
	v.Set("Stickies file", &File{Data: d1, Type: "notz", Creator: "notz"})
	v.Set("Welcome!", &File{Data: d2, Type: "TEXT", Creator: "ttxt"})
	return v
}

func TestRenderHighDensityFloppy(t *testing.T) {
	d1 := bytes.Repeat([]byte{0xA5}, 48*1024)
	d2 := []byte("Welcome to Stickies!\r")

	img, err := stickiesVolume(d1, d2).Render(hdOptions())
	require.NoError(t, err)
	assert.Len(t, img, 1474560)

	assert.Equal(t, uint16(mdbSignature), binary.BigEndian.Uint16(img[mdbOffset:]))
	assert.Equal(t, img[mdbOffset:mdbOffset+SectorSize], img[len(img)-1024:len(img)-512],
		"alternate MDB should mirror the primary")
}

func TestRenderRoundTrip(t *testing.T) {
	d1 := bytes.Repeat([]byte("placeholder"), 3000)
	d2 := []byte("Welcome!\rLine two\r")

	img, err := stickiesVolume(d1, d2).Render(hdOptions())
	require.NoError(t, err)

	vol, err := Read(img)
	require.NoError(t, err)
	assert.Equal(t, "Stickies Placeholder", vol.Name)

	stickies, ok := vol.Entry("Stickies file")
	require.True(t, ok)
	assert.Equal(t, "notz", stickies.File.Type)
	assert.Equal(t, "notz", stickies.File.Creator)
	assert.Equal(t, d1, stickies.File.Data)
	assert.True(t, testNow.Equal(stickies.File.Created))

	welcome, ok := vol.Entry("Welcome!")
	require.True(t, ok)
	assert.Equal(t, "TEXT", welcome.File.Type)
	assert.Equal(t, "ttxt", welcome.File.Creator)
	assert.Equal(t, d2, welcome.File.Data)
}

func TestRenderKeepsInsertionOrder(t *testing.T) {
	// Names sort the other way round in the catalog.
	v := NewVolume("Order")
	v.Set("Zebra", &File{Data: []byte("first"), Type: "TEXT", Creator: "ttxt"})
	v.Set("Apple", &File{Data: []byte("second"), Type: "TEXT", Creator: "ttxt"})

	img, err := v.Render(RenderOptions{Size: FloppyHD.Size, Align: 512, Now: testNow})
	require.NoError(t, err)

	vol, err := Read(img)
	require.NoError(t, err)
	require.Len(t, vol.Entries, 2)
	assert.Equal(t, "Zebra", vol.Entries[0].Name)
	assert.Equal(t, "Apple", vol.Entries[1].Name)
	assert.Less(t, vol.Entries[0].DataExtent.Start, vol.Entries[1].DataExtent.Start)
}

func TestRenderPlacesForksContiguously(t *testing.T) {
	d1 := make([]byte, 200*1024+17)
	img, err := stickiesVolume(d1, []byte("hi")).Render(hdOptions())
	require.NoError(t, err)

	vol, err := Read(img)
	require.NoError(t, err)
	e, ok := vol.Entry("Stickies file")
	require.True(t, ok)

	blocks := (len(d1) + int(vol.AllocBlockSize) - 1) / int(vol.AllocBlockSize)
	assert.Equal(t, uint16(blocks), e.DataExtent.Count, "data fork should be a single extent")
}

func TestRenderDesktopDatabase(t *testing.T) {
	img, err := stickiesVolume([]byte("a"), []byte("b")).Render(hdOptions())
	require.NoError(t, err)

	vol, err := Read(img)
	require.NoError(t, err)
	require.Len(t, vol.Entries, 4)

	db, ok := vol.Entry(DesktopDBName)
	require.True(t, ok)
	assert.Equal(t, "BTFL", db.File.Type)
	assert.Equal(t, "DMGR", db.File.Creator)
	assert.NotZero(t, db.File.Flags&FlagInvisible)

	df, ok := vol.Entry(DesktopDFName)
	require.True(t, ok)
	assert.Equal(t, "DTFL", df.File.Type)
	assert.Empty(t, df.File.Data)

	without, err := stickiesVolume([]byte("a"), []byte("b")).Render(RenderOptions{Size: FloppyHD.Size, Align: 512, Now: testNow})
	require.NoError(t, err)
	vol, err = Read(without)
	require.NoError(t, err)
	assert.Len(t, vol.Entries, 2)
}

func TestRenderManyFilesBuildsIndexNodes(t *testing.T) {
	v := NewVolume("Many")
	for i := 0; i < 60; i++ {
		v.Set(fmt.Sprintf("File %02d", i), &File{Data: []byte{byte(i)}, Type: "TEXT", Creator: "ttxt"})
	}
	img, err := v.Render(RenderOptions{Size: Floppy800K.Size, Align: 512, Now: testNow})
	require.NoError(t, err)

	vol, err := Read(img)
	require.NoError(t, err)
	require.Len(t, vol.Entries, 60)
	for i, e := range vol.Entries {
		assert.Equal(t, fmt.Sprintf("File %02d", i), e.Name)
		assert.Equal(t, []byte{byte(i)}, e.File.Data)
	}
}

func TestRenderFormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		volume func() *Volume
	}{
		{
			name: "short type code",
			volume: func() *Volume {
				v := NewVolume("Bad")
				v.Set("f", &File{Type: "TXT", Creator: "ttxt"})
				return v
			},
		},
		{
			name: "long creator code",
			volume: func() *Volume {
				v := NewVolume("Bad")
				v.Set("f", &File{Type: "TEXT", Creator: "ttxt!"})
				return v
			},
		},
		{
			name: "colon in name",
			volume: func() *Volume {
				v := NewVolume("Bad")
				v.Set("a:b", &File{Type: "TEXT", Creator: "ttxt"})
				return v
			},
		},
		{
			name: "file name too long",
			volume: func() *Volume {
				v := NewVolume("Bad")
				v.Set("This file name is far too long for HFS", &File{Type: "TEXT", Creator: "ttxt"})
				return v
			},
		},
		{
			name: "volume name too long",
			volume: func() *Volume {
				v := NewVolume("A volume name longer than 27")
				v.Set("f", &File{Type: "TEXT", Creator: "ttxt"})
				return v
			},
		},
		{
			name: "names differing only in case",
			volume: func() *Volume {
				v := NewVolume("Bad")
				v.Set("Welcome!", &File{Type: "TEXT", Creator: "ttxt"})
				v.Set("WELCOME!", &File{Type: "TEXT", Creator: "ttxt"})
				return v
			},
		},
		{
			name:   "no entries",
			volume: func() *Volume { return NewVolume("Empty") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.volume().Render(hdOptions())
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestRenderCapacityError(t *testing.T) {
	v := stickiesVolume(make([]byte, FloppyHD.Size), []byte("hi"))
	_, err := v.Render(hdOptions())
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestRenderGeometryErrors(t *testing.T) {
	v := stickiesVolume([]byte("a"), []byte("b"))

	_, err := v.Render(RenderOptions{Size: 1000 * 1024, Align: 512})
	assert.ErrorIs(t, err, ErrGeometry)

	_, err = v.Render(RenderOptions{Size: FloppyHD.Size, Align: 0})
	assert.ErrorIs(t, err, ErrGeometry)

	_, err = v.Render(RenderOptions{Size: FloppyHD.Size, Align: 700})
	assert.ErrorIs(t, err, ErrGeometry)
}

func TestRenderAlignment(t *testing.T) {
	img, err := stickiesVolume([]byte("a"), []byte("b")).Render(RenderOptions{Size: FloppyHD.Size, Align: 4096, Now: testNow})
	require.NoError(t, err)
	assert.Len(t, img, int(FloppyHD.Size))

	m, err := parseMDB(img[mdbOffset:])
	require.NoError(t, err)
	assert.Zero(t, int(m.allocStart)*SectorSize%4096)
	assert.Zero(t, m.allocBlockSize%4096)
}

func TestSetReplacesInPlace(t *testing.T) {
	v := NewVolume("Vol")
	v.Set("a", &File{Type: "TEXT", Creator: "ttxt"})
	v.Set("b", &File{Type: "TEXT", Creator: "ttxt"})
	v.Set("a", &File{Data: []byte("new"), Type: "TEXT", Creator: "ttxt"})

	assert.Equal(t, []string{"a", "b"}, v.Names())
	f, ok := v.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), f.Data)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(make([]byte, FloppyHD.Size))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Read([]byte("short"))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCompareNames(t *testing.T) {
	assert.Zero(t, compareNames([]byte("welcome"), []byte("WELCOME")))
	assert.Negative(t, compareNames([]byte("Apple"), []byte("banana")))
	assert.Negative(t, compareNames([]byte("abc"), []byte("abcd")))
	assert.Positive(t, compareNames([]byte("Zebra"), []byte("apple")))
}
