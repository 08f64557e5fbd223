// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     csvhandler
// Description: Data handler for comma separated value files
// License:     MIT
// ============================================================================

// Package csvhandler serves comma separated value files. The header row
// names the variables; a header such as temp<Float64> also gives the
// variable's type, the default being String.
package csvhandler

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/internal/request"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/pkg/core/cache"
	"github.com/msto63/bes/pkg/core/health"
	"github.com/msto63/bes/pkg/core/version"
)

// Name is the container type the handler serves
const Name = "csv"

// Version is reported by show version
const Version = version.CSV

var defaultExtensions = []string{"gz", "Z", "bz2"}

// Handler reads CSV containers
type Handler struct {
	*request.Base
	cacheDir   string
	extensions []string
	// headers holds parsed header rows keyed by file, size and mtime
	headers *cache.Cache[[]response.Variable]
}

// New creates the handler and registers its methods
func New(k *keys.Keys) *Handler {
	h := &Handler{
		Base:       request.NewBase(Name),
		cacheDir:   filepath.Join(os.TempDir(), "bes-cache"),
		extensions: defaultExtensions,
		headers:    cache.New[[]response.Variable](cache.DefaultConfig()),
	}
	if k != nil {
		if dir, ok := k.GetValue(keys.CacheDir); ok && dir != "" {
			h.cacheDir = dir
		}
		if exts := k.GetValues(keys.CompressedExtensions); len(exts) > 0 {
			h.extensions = exts
		}
	}

	h.AddMethod(response.ActionDAS, h.dataset)
	h.AddMethod(response.ActionDDS, h.dataset)
	h.AddMethod(response.ActionData, h.dataset)
	h.AddMethod(response.ActionDDX, h.ddx)
	h.AddMethod(response.ActionShowHelp, h.help)
	h.AddMethod(response.ActionShowVersion, h.version)
	return h
}

// dataset adds the current container to the data response
func (h *Handler) dataset(d *dhi.ExecutionContext) (bool, error) {
	resp, err := dataResponse(d)
	if err != nil {
		return false, err
	}
	ds, err := h.read(d.Current(), resp.Kind == response.KindData)
	if err != nil {
		return false, err
	}
	resp.AddDataset(ds)
	return true, nil
}

// ddx describes every valid container of the request in one response
func (h *Handler) ddx(d *dhi.ExecutionContext) (bool, error) {
	resp, err := dataResponse(d)
	if err != nil {
		return false, err
	}
	for _, c := range d.Containers {
		if !c.Valid {
			continue
		}
		if c.Type != Name {
			return false, beserr.Handler("The csv handler cannot describe container %s of type %s", c.SymbolicName, c.Type)
		}
		ds, err := h.read(c, false)
		if err != nil {
			return false, err
		}
		resp.AddDataset(ds)
	}
	return true, nil
}

func (h *Handler) help(d *dhi.ExecutionContext) (bool, error) {
	info, err := infoResponse(d)
	if err != nil {
		return false, err
	}
	info.BeginTag("module", dhi.Attr{Name: "name", Value: Name}, dhi.Attr{Name: "version", Value: Version})
	info.AddTag("description", "Serves comma separated value files. Headers may carry a type, as in temp<Float64>.")
	info.AddTag("constraint", "A comma separated list of the variables to return")
	info.EndTag("module")
	return true, nil
}

func (h *Handler) version(d *dhi.ExecutionContext) (bool, error) {
	info, err := infoResponse(d)
	if err != nil {
		return false, err
	}
	info.AddTag("module", Version, dhi.Attr{Name: "name", Value: Name})
	return true, nil
}

// CacheCheck reports the header cache use for show status
func (h *Handler) CacheCheck() health.Checker {
	return health.NewChecker("csv-header-cache", func(ctx context.Context) health.CheckResult {
		hits, misses, rate := h.headers.Stats()
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d entries, %d hits, %d misses (%.0f%% hit rate)", h.headers.Size(), hits, misses, rate),
		}
	})
}

func dataResponse(d *dhi.ExecutionContext) (*response.DataResponse, error) {
	if d.ResponseHandler != nil {
		if resp, ok := d.ResponseHandler.Response().(*response.DataResponse); ok {
			return resp, nil
		}
	}
	return nil, beserr.Internal("The csv handler needs a data response for %s", d.Action)
}

func infoResponse(d *dhi.ExecutionContext) (*response.Info, error) {
	if d.ResponseHandler != nil {
		if info, ok := d.ResponseHandler.Response().(*response.Info); ok {
			return info, nil
		}
	}
	return nil, beserr.Internal("The csv handler needs an informational response for %s", d.Action)
}

// read loads c, applying its projection. Rows are kept only when withRows
// is set.
func (h *Handler) read(c *dhi.Container, withRows bool) (*response.Dataset, error) {
	if c == nil {
		return nil, beserr.Internal("The csv handler was called without a container")
	}
	path, err := c.Access(h.cacheDir, h.extensions)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, openError(c, path, err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, fi.Size(), fi.ModTime().UnixNano())

	var (
		vars []response.Variable
		r    *csv.Reader
	)
	if withRows {
		f, rd, header, err := openCSV(c, path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r, vars = rd, header
		h.headers.Set(key, vars)
	} else {
		vars, err = h.headers.GetOrSet(key, func() ([]response.Variable, error) {
			f, _, header, err := openCSV(c, path)
			if err != nil {
				return nil, err
			}
			f.Close()
			return header, nil
		})
		if err != nil {
			return nil, err
		}
	}

	cols, err := project(vars, c)
	if err != nil {
		return nil, err
	}

	ds := &response.Dataset{
		Name:       c.SymbolicName,
		Source:     c.RealName,
		Constraint: c.Constraint,
	}
	for _, i := range cols {
		ds.Variables = append(ds.Variables, filterAttributes(vars[i], c.Attributes))
	}
	if !withRows {
		return ds, nil
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, beserr.Internal("Unable to read %s: %v", path, err)
		}
		row := make([]string, len(cols))
		for j, i := range cols {
			if i >= len(rec) {
				return nil, beserr.Internal("Line %d of %s has %d fields, the header has %d", line, path, len(rec), len(vars))
			}
			if err := checkValue(vars[i].Type, rec[i]); err != nil {
				return nil, beserr.Internal("Invalid %s value %q for %s on line %d of %s", vars[i].Type, rec[i], vars[i].Name, line, path)
			}
			row[j] = rec[i]
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// openCSV opens path and reads its header row. The reader is left on the
// first data row.
func openCSV(c *dhi.Container, path string) (*os.File, *csv.Reader, []response.Variable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, openError(c, path, err)
	}
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, nil, nil, beserr.Internal("The data file of container %s has no header row", c.SymbolicName)
		}
		return nil, nil, nil, beserr.Internal("Unable to read %s: %v", path, err)
	}
	vars := make([]response.Variable, len(header))
	for i, col := range header {
		vars[i] = parseHeader(col, i)
	}
	return f, r, vars, nil
}

func openError(c *dhi.Container, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return beserr.NotFound("The data file of container %s does not exist", c.SymbolicName)
	}
	if errors.Is(err, os.ErrPermission) {
		return beserr.Forbidden("The data file of container %s cannot be read", c.SymbolicName)
	}
	return beserr.Internal("Unable to open %s: %v", path, err)
}

// parseHeader splits name<Type> into a variable
func parseHeader(col string, index int) response.Variable {
	col = strings.TrimSpace(col)
	name, typ := col, "String"
	if open := strings.IndexByte(col, '<'); open > 0 && strings.HasSuffix(col, ">") {
		name = strings.TrimSpace(col[:open])
		typ = strings.TrimSpace(col[open+1 : len(col)-1])
	}
	return response.Variable{
		Name: name,
		Type: typ,
		Attributes: []response.Attribute{
			{Name: "column", Type: "Int32", Value: strconv.Itoa(index)},
			{Name: "header", Value: col},
		},
	}
}

// project returns the column indices selected by the container's
// constraint, a comma separated variable list. An empty constraint selects
// every column.
func project(vars []response.Variable, c *dhi.Container) ([]int, error) {
	if strings.TrimSpace(c.Constraint) == "" {
		cols := make([]int, len(vars))
		for i := range vars {
			cols[i] = i
		}
		return cols, nil
	}
	var cols []int
	for _, name := range strings.Split(c.Constraint, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := -1
		for i, v := range vars {
			if v.Name == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, beserr.SyntaxUser("No such variable %s in container %s", name, c.SymbolicName)
		}
		cols = append(cols, found)
	}
	return cols, nil
}

// filterAttributes keeps the attributes named in list, all when empty
func filterAttributes(v response.Variable, list string) response.Variable {
	if strings.TrimSpace(list) == "" {
		return v
	}
	keep := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		keep[strings.TrimSpace(name)] = true
	}
	out := v
	out.Attributes = nil
	for _, a := range v.Attributes {
		if keep[a.Name] {
			out.Attributes = append(out.Attributes, a)
		}
	}
	return out
}

func checkValue(typ, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch typ {
	case "Byte":
		_, err = strconv.ParseUint(value, 10, 8)
	case "Int16":
		_, err = strconv.ParseInt(value, 10, 16)
	case "UInt16":
		_, err = strconv.ParseUint(value, 10, 16)
	case "Int32":
		_, err = strconv.ParseInt(value, 10, 32)
	case "UInt32":
		_, err = strconv.ParseUint(value, 10, 32)
	case "Float32":
		_, err = strconv.ParseFloat(value, 32)
	case "Float64":
		_, err = strconv.ParseFloat(value, 64)
	}
	return err
}
