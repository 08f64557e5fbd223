package reporter

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/pkg/core/logging"
)

type memReporter struct {
	records []*Record
	err     error
	closed  bool
}

func (m *memReporter) Report(_ context.Context, r *Record) error {
	m.records = append(m.records, r)
	return m.err
}

func (m *memReporter) Close() error {
	m.closed = true
	return nil
}

func newContext(id string) *dhi.ExecutionContext {
	d := dhi.NewExecutionContext(context.Background(), dhi.Transport{Origin: "test", RequestID: id}, nil)
	d.Action = "get.das"
	d.Set(dhi.RealNameList, "/a.csv")
	d.Set(dhi.LogInfo, "get das for d;")
	return d
}

func TestNewRecord(t *testing.T) {
	d := newContext("r1")
	d.Error = beserr.NewInfo(beserr.SyntaxUser("bad"))

	rec := NewRecord(d)
	if rec.ID == "" {
		t.Error("NewRecord() ID should be set")
	}
	if rec.RequestID != "r1" || rec.Origin != "test" || rec.Action != "get.das" {
		t.Errorf("NewRecord() = %+v", rec)
	}
	if rec.RealNames != "/a.csv" || rec.Command != "get das for d;" {
		t.Errorf("NewRecord() names/command = %q/%q", rec.RealNames, rec.Command)
	}
	if rec.Status != 3 || rec.ErrorType != "SyntaxUserError" {
		t.Errorf("NewRecord() status = %d %s, want 3 SyntaxUserError", rec.Status, rec.ErrorType)
	}
}

func TestList_AddFindRemove(t *testing.T) {
	l := NewList()
	a, b := &memReporter{}, &memReporter{}
	if !l.Add("a", a) || !l.Add("b", b) {
		t.Fatal("Add() should accept new names")
	}
	if l.Add("a", b) {
		t.Error("Add() should reject a duplicate name")
	}
	if got := strings.Join(l.Names(), ","); got != "a,b" {
		t.Errorf("Names() = %s, want a,b", got)
	}
	if r, ok := l.Find("b"); !ok || r != b {
		t.Error("Find(b) should return b")
	}
	if _, ok := l.Remove("a"); !ok {
		t.Error("Remove(a) should succeed")
	}
	if _, ok := l.Remove("a"); ok {
		t.Error("Remove(a) twice should fail")
	}
}

func TestList_ReportAll(t *testing.T) {
	l := NewList()
	failing := &memReporter{err: errors.New("disk full")}
	ok := &memReporter{}
	l.Add("failing", failing)
	l.Add("ok", ok)

	err := l.ReportAll(newContext("r2"))
	if err == nil || !strings.Contains(err.Error(), "failing") {
		t.Errorf("ReportAll() error = %v, want the failing reporter named", err)
	}
	if len(ok.records) != 1 || ok.records[0].RequestID != "r2" {
		t.Errorf("ReportAll() should still reach later reporters, got %v", ok.records)
	}
	if failing.records[0] != ok.records[0] {
		t.Error("ReportAll() should hand every reporter the same record")
	}

	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !ok.closed || !failing.closed {
		t.Error("Close() should close every closable reporter")
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(logging.NewWithWriter("bes", &buf))

	d := newContext("r3")
	if err := r.Report(context.Background(), NewRecord(d)); err != nil {
		t.Fatal(err)
	}
	d.Error = beserr.NewInfo(beserr.NotFound("gone"))
	if err := r.Report(context.Background(), NewRecord(d)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"request_id=r3", "action=get.das", "real_names=/a.csv", "error_type=NotFoundError"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSQLiteReporter(t *testing.T) {
	ctx := context.Background()
	r, err := NewSQLiteReporter(filepath.Join(t.TempDir(), "sub", "requests.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	base := time.Now().Add(-time.Hour)
	records := []*Record{
		{ID: "1", Timestamp: base, RequestID: "a", Action: "get.das", Duration: 3 * time.Millisecond},
		{ID: "2", Timestamp: base.Add(time.Minute), RequestID: "b", Action: "get.dds", Status: 5, ErrorType: "NotFoundError"},
		{ID: "3", Timestamp: base.Add(2 * time.Minute), RequestID: "c", Action: "get.das"},
	}
	for _, rec := range records {
		if err := r.Report(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"all newest first", Filter{}, "3,2,1"},
		{"by action", Filter{Action: "get.das"}, "3,1"},
		{"by request id", Filter{RequestID: "b"}, "2"},
		{"failed only", Filter{FailedOnly: true}, "2"},
		{"since", Filter{Since: base.Add(30 * time.Second)}, "3,2"},
		{"limit", Filter{Limit: 1}, "3"},
		{"offset", Filter{Offset: 1}, "2,1"},
		{"limit and offset", Filter{Limit: 1, Offset: 1}, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Query(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			ids := make([]string, len(got))
			for i, rec := range got {
				ids[i] = rec.ID
			}
			if s := strings.Join(ids, ","); s != tt.want {
				t.Errorf("Query() = %s, want %s", s, tt.want)
			}
		})
	}

	got, _ := r.Query(ctx, Filter{RequestID: "a"})
	if got[0].Duration != 3*time.Millisecond {
		t.Errorf("Query() duration = %v, want 3ms", got[0].Duration)
	}

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Failed != 1 || stats.ByAction["get.das"] != 2 {
		t.Errorf("Stats() = %+v", stats)
	}

	n, err := r.Prune(ctx, time.Hour-30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
}

func TestSQLiteReporter_Closed(t *testing.T) {
	r, err := NewSQLiteReporter(filepath.Join(t.TempDir(), "requests.db"))
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	err = r.Report(context.Background(), &Record{ID: "x", Timestamp: time.Now()})
	if err == nil || beserr.Status(err) != 1 {
		t.Errorf("Report() on closed reporter error = %v, want internal", err)
	}
}
