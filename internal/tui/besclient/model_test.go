package besclient

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/bes/internal/client"
)

type stubExecutor struct {
	legacy []string
	docs   []string
	err    error
}

func (s *stubExecutor) ExecuteAll(_ context.Context, raw string) ([]*client.Response, error) {
	s.legacy = append(s.legacy, raw)
	if s.err != nil {
		return nil, s.err
	}
	return []*client.Response{{Body: []byte("reply to " + raw), RequestID: "r1"}}, nil
}

func (s *stubExecutor) ExecuteXML(_ context.Context, doc string) (*client.Response, error) {
	s.docs = append(s.docs, doc)
	return &client.Response{Body: []byte("<response/>"), Status: 3}, nil
}

func typeAndSend(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("Enter on %q produced no command", text)
	}
	if !m.waiting {
		t.Error("model should wait for the reply")
	}
	next, _ = m.Update(cmd())
	return next.(Model)
}

func ready(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestModel_SendLegacy(t *testing.T) {
	exec := &stubExecutor{}
	m := ready(New(exec, Config{Target: "localhost:10022"}))
	m = typeAndSend(t, m, "show version;")

	if len(exec.legacy) != 1 || exec.legacy[0] != "show version;" {
		t.Errorf("ExecuteAll() calls = %v", exec.legacy)
	}
	if m.waiting {
		t.Error("model should stop waiting after the reply")
	}
	if len(m.exchanges) != 1 || m.exchanges[0].Responses[0].RequestID != "r1" {
		t.Fatalf("exchanges = %+v", m.exchanges)
	}
	if got := renderTranscript(m.exchanges); !strings.Contains(got, "reply to show version;") {
		t.Errorf("transcript = %q", got)
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q, want it cleared", m.input.Value())
	}
}

func TestModel_TranslateToggle(t *testing.T) {
	exec := &stubExecutor{}
	m := ready(New(exec, Config{}))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	m = next.(Model)
	if !m.config.Translate {
		t.Fatal("Ctrl+X should enable translation")
	}

	m = typeAndSend(t, m, "show status;")
	if len(exec.docs) != 1 || !strings.Contains(exec.docs[0], "<showStatus/>") {
		t.Errorf("ExecuteXML() calls = %v", exec.docs)
	}
	if got := renderTranscript(m.exchanges); !strings.Contains(got, "status 3") {
		t.Errorf("transcript = %q, want the error status", got)
	}

	m = typeAndSend(t, m, "frobnicate;")
	if m.exchanges[1].Err == nil {
		t.Error("untranslatable input should record an error")
	}
}

func TestModel_Errors(t *testing.T) {
	exec := &stubExecutor{err: errors.New("connection refused")}
	m := ready(New(exec, Config{}))
	m = typeAndSend(t, m, "show version;")
	if got := renderTranscript(m.exchanges); !strings.Contains(got, "connection refused") {
		t.Errorf("transcript = %q", got)
	}
}

func TestModel_History(t *testing.T) {
	m := ready(New(&stubExecutor{}, Config{}))
	m = typeAndSend(t, m, "show version;")
	m = typeAndSend(t, m, "show status;")

	keys := []struct {
		key  tea.KeyType
		want string
	}{
		{tea.KeyUp, "show status;"},
		{tea.KeyUp, "show version;"},
		{tea.KeyUp, "show version;"},
		{tea.KeyDown, "show status;"},
		{tea.KeyDown, ""},
	}
	for i, k := range keys {
		next, _ := m.Update(tea.KeyMsg{Type: k.key})
		m = next.(Model)
		if got := m.input.Value(); got != k.want {
			t.Errorf("step %d: input = %q, want %q", i, got, k.want)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	m := ready(New(&stubExecutor{}, Config{}))
	m.input.SetValue("exit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("exit should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("exit should return tea.Quit")
	}

	m.input.SetValue("   ")
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("blank input should not send")
	}
}
