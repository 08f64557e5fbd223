package dhi

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/msto63/bes/internal/beserr"
)

// Container is one addressable unit of backing data
type Container struct {
	SymbolicName   string
	RealName       string
	Type           string
	Constraint     string
	Attributes     string
	DAP4Constraint string
	DAP4Function   string
	Valid          bool
}

// NewContainer creates a valid container with no constraint
func NewContainer(symbolicName, realName, containerType string) *Container {
	return &Container{
		SymbolicName: symbolicName,
		RealName:     realName,
		Type:         containerType,
		Valid:        true,
	}
}

// Clone returns an independent copy
func (c *Container) Clone() *Container {
	cp := *c
	return &cp
}

// IsCompressed reports whether the real name ends in one of exts
// (given without the leading dot).
func (c *Container) IsCompressed(exts []string) bool {
	return compressedExt(c.RealName, exts) != ""
}

func compressedExt(name string, exts []string) string {
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" && strings.HasSuffix(name, "."+ext) {
			return ext
		}
	}
	return ""
}

// Access returns the path a data handler should read. Compressed
// containers are decompressed once into cacheDir and the cached path is
// returned; gz and bz2 are supported.
func (c *Container) Access(cacheDir string, exts []string) (string, error) {
	ext := compressedExt(c.RealName, exts)
	if ext == "" {
		return c.RealName, nil
	}

	target := filepath.Join(cacheDir, cacheName(c.RealName, ext))
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	src, err := os.Open(c.RealName)
	if err != nil {
		return "", beserr.NotFound("Unable to open container %s: %v", c.SymbolicName, err)
	}
	defer src.Close()

	var r io.Reader
	switch ext {
	case "gz":
		gz, err := gzip.NewReader(src)
		if err != nil {
			return "", beserr.Internal("Unable to decompress %s: %v", c.RealName, err)
		}
		defer gz.Close()
		r = gz
	case "bz2":
		r = bzip2.NewReader(src)
	default:
		return "", beserr.Internal("No decompression method for extension %s", ext)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", beserr.Internal("Unable to create cache directory %s: %v", cacheDir, err)
	}
	tmp, err := os.CreateTemp(cacheDir, ".bes-*")
	if err != nil {
		return "", beserr.Internal("Unable to create cache file: %v", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", beserr.Internal("Unable to decompress %s: %v", c.RealName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", beserr.Internal("Unable to write cache file: %v", err)
	}
	// Concurrent requests may race here; rename keeps the cache file whole.
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", beserr.Internal("Unable to write cache file: %v", err)
	}
	return target, nil
}

// cacheName flattens a path into a single cache file name with the
// compression extension removed.
func cacheName(realName, ext string) string {
	name := strings.TrimSuffix(realName, "."+ext)
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	return "bes_cache#" + strings.ReplaceAll(name, "/", "#")
}
