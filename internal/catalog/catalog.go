// Package catalog holds the companion system disks booted alongside the
// placeholder image and the filter that narrows them.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// EnvSystemFilter narrows the catalog to disks whose name contains it.
const EnvSystemFilter = "DEBUG_SYSTEM_FILTER"

// DiskImage is one entry of the companion disk catalog.
type DiskImage struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Path resolves the image file against imagesDir. Absolute files are
// returned unchanged.
func (d DiskImage) Path(imagesDir string) string {
	if filepath.IsAbs(d.File) {
		return d.File
	}
	return filepath.Join(imagesDir, d.File)
}

// Filter returns the disks whose name contains substring, in catalog
// order. Matching is case-sensitive. An empty substring keeps every disk.
func Filter(disks []DiskImage, substring string) []DiskImage {
	if substring == "" {
		return append([]DiskImage{}, disks...)
	}
	return lo.Filter(disks, func(d DiskImage, _ int) bool {
		return strings.Contains(d.Name, substring)
	})
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FilterFromEnv reads EnvSystemFilter. A variable that is unset and one
// that is set to the empty string both mean "no filter"; active is true
// only for a non-empty value.
func FilterFromEnv(lookup LookupFunc) (substring string, active bool) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, set := lookup(EnvSystemFilter)
	if !set {
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// Paths resolves every disk against imagesDir.
func Paths(disks []DiskImage, imagesDir string) []string {
	return lo.Map(disks, func(d DiskImage, _ int) string {
		return d.Path(imagesDir)
	})
}

// Default returns the built-in catalog of system disks, oldest first.
func Default() []DiskImage {
	names := []string{
		"System 1.0",
		"System 1.1",
		"System 2.0",
		"System 2.1",
		"System 3.0",
		"System 3.2",
		"System 3.3",
		"System 4.0",
		"System 4.1",
		"System 5.0",
		"System 5.1",
		"System 6.0",
		"System 6.0.8",
		"System 7.0",
		"System 7.1",
		"System 7.5",
		"System 7.5.3",
		"Mac OS 7.6",
		"Mac OS 8.0",
		"Mac OS 8.1",
	}
	return lo.Map(names, func(name string, _ int) DiskImage {
		return DiskImage{Name: name, File: name + ".dsk"}
	})
}
