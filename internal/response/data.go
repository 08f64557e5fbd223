package response

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Kind names a data response
type Kind string

const (
	KindDAS  Kind = "das"
	KindDDS  Kind = "dds"
	KindData Kind = "dods"
	KindDDX  Kind = "ddx"
)

// Attribute is one named attribute of a variable
type Attribute struct {
	Name  string
	Type  string
	Value string
}

// Variable describes one variable of a dataset
type Variable struct {
	Name       string
	Type       string
	Attributes []Attribute
}

// Dataset is what a data handler reports for one container
type Dataset struct {
	Name       string
	Source     string
	Constraint string
	Variables  []Variable
	// Rows holds the values of a data response, one slice per record in
	// Variables order.
	Rows [][]string
}

// DataResponse collects datasets for a DAS, DDS, data or DDX response. It
// renders a plain textual description of every dataset.
type DataResponse struct {
	Kind     Kind
	datasets []*Dataset
	mu       sync.Mutex
}

// NewDataResponse creates an empty data response
func NewDataResponse(kind Kind) *DataResponse {
	return &DataResponse{Kind: kind}
}

// AddDataset appends a dataset
func (r *DataResponse) AddDataset(ds *Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets = append(r.datasets, ds)
}

// Datasets returns the datasets in the order they were added
func (r *DataResponse) Datasets() []*Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Dataset(nil), r.datasets...)
}

// WriteTo renders the response
func (r *DataResponse) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	switch r.Kind {
	case KindDAS:
		r.writeDAS(cw)
	case KindDDS:
		for _, ds := range r.Datasets() {
			writeDDS(cw, ds, "")
		}
	case KindData:
		for _, ds := range r.Datasets() {
			writeDDS(cw, ds, "")
			writeRows(cw, ds)
		}
	case KindDDX:
		cw.printf("DDX {\n")
		for _, ds := range r.Datasets() {
			writeDDS(cw, ds, "    ")
		}
		cw.printf("}\n")
	default:
		return 0, fmt.Errorf("unknown data response kind %q", r.Kind)
	}
	if cw.err == nil {
		cw.err = bw.Flush()
	}
	return cw.n, cw.err
}

func (r *DataResponse) writeDAS(cw *countingWriter) {
	cw.printf("Attributes {\n")
	for _, ds := range r.Datasets() {
		cw.printf("    %s {\n", ds.Name)
		for _, v := range ds.Variables {
			cw.printf("        %s {\n", v.Name)
			for _, a := range v.Attributes {
				typ := a.Type
				if typ == "" {
					typ = "String"
				}
				cw.printf("            %s %s %q;\n", typ, a.Name, a.Value)
			}
			cw.printf("        }\n")
		}
		cw.printf("    }\n")
	}
	cw.printf("}\n")
}

func writeDDS(cw *countingWriter, ds *Dataset, indent string) {
	cw.printf("%sDataset {\n", indent)
	for _, v := range ds.Variables {
		cw.printf("%s    %s %s;\n", indent, v.Type, v.Name)
	}
	cw.printf("%s} %s;\n", indent, ds.Name)
}

func writeRows(cw *countingWriter, ds *Dataset) {
	cw.printf("Data:\n")
	for _, row := range ds.Rows {
		cw.printf("%s\n", strings.Join(row, ", "))
	}
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) printf(format string, args ...interface{}) {
	if c.err != nil {
		return
	}
	n, err := fmt.Fprintf(c.w, format, args...)
	c.n += int64(n)
	c.err = err
}

// Replace swaps the datasets for ds, e.g. after aggregation
func (r *DataResponse) Replace(ds []*Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets = append([]*Dataset(nil), ds...)
}
