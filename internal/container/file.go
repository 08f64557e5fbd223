package container

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
)

// File is a read-only store loaded from a file of "symbolic real type"
// lines. Deletions only affect the loaded copy.
type File struct {
	name string
	path string
	mem  *memory
}

// NewFile loads the container file at path
func NewFile(name, path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beserr.Internal("Unable to open persistence file %s: %v", path, err)
	}
	defer f.Close()

	store := &File{name: name, path: path, mem: newMemory()}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case len(fields) > 3:
			return nil, beserr.Internal("Too many fields in persistence file %s line %d", path, lineNo)
		case len(fields) < 3:
			return nil, beserr.Internal("Incomplete container information in persistence file %s line %d", path, lineNo)
		}
		store.mem.put(dhi.NewContainer(fields[0], fields[1], fields[2]))
	}
	if err := scanner.Err(); err != nil {
		return nil, beserr.Internal("Unable to read persistence file %s: %v", path, err)
	}
	return store, nil
}

// Name returns the store name
func (f *File) Name() string {
	return f.name
}

// Add is not supported by file stores
func (f *File) Add(_ context.Context, sym, _, _ string) error {
	return beserr.Internal("Unable to add container %s, the file store %s is read-only", sym, f.name)
}

// Del removes a container from the loaded copy
func (f *File) Del(_ context.Context, sym string) (bool, error) {
	return f.mem.del(sym), nil
}

// DelAll empties the loaded copy
func (f *File) DelAll(_ context.Context) (bool, error) {
	f.mem.delAll()
	return true, nil
}

// LookFor returns a copy of the named container
func (f *File) LookFor(_ context.Context, sym string) (*dhi.Container, bool, error) {
	c, ok := f.mem.get(sym)
	return c, ok, nil
}

// Show lists the store
func (f *File) Show(_ context.Context, info dhi.InfoBuilder) error {
	showContainers(info, f.name, f.mem.all())
	return nil
}
