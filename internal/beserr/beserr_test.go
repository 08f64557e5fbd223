package beserr

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	mdwerror "github.com/msto63/bes/foundation/core/error"
)

func TestConstructors_StatusAndType(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantFatal  bool
	}{
		{"syntax", SyntaxUser("bad %s", "token"), 3, "SyntaxUserError", false},
		{"handler", Handler("no handler"), 1, "HandlerError", false},
		{"internal", Internal("boom"), 1, "InternalError", false},
		{"fatal", InternalFatal("dead"), 2, "InternalFatalError", true},
		{"forbidden", Forbidden("no"), 4, "ForbiddenError", false},
		{"not found", NotFound("gone"), 5, "NotFoundError", false},
		{"plain", errors.New("plain"), 1, "InternalError", false},
		{"wrapped syntax", fmt.Errorf("ctx: %w", SyntaxUser("x")), 3, "SyntaxUserError", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.wantStatus {
				t.Errorf("Status() = %v, want %v", got, tt.wantStatus)
			}
			if got := TypeName(tt.err); got != tt.wantType {
				t.Errorf("TypeName() = %v, want %v", got, tt.wantType)
			}
			if got := IsFatal(tt.err); got != tt.wantFatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.wantFatal)
			}
		})
	}
	if Status(nil) != 0 {
		t.Error("Status(nil) should be 0")
	}
}

func TestSyntaxUser_KeepsPercentWithoutArgs(t *testing.T) {
	err := SyntaxUser("Parse error. x=100% <----HERE IS THE ERROR")
	if err.Error() != "Parse error. x=100% <----HERE IS THE ERROR" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCallerProvenance(t *testing.T) {
	err := Internal("boom")
	file, line := err.Caller()
	if filepath.Base(file) != "beserr_test.go" || line == 0 {
		t.Errorf("Caller() = %s:%d, want beserr_test.go", file, line)
	}
}

func TestNewInfo(t *testing.T) {
	if NewInfo(nil) != nil {
		t.Error("NewInfo(nil) should be nil")
	}

	user := NewInfo(SyntaxUser("Could not find the symbolic name c9"))
	if user.Message != "Could not find the symbolic name c9" {
		t.Errorf("user Message = %q", user.Message)
	}

	internal := NewInfo(Internal("nil pointer in csv handler"))
	if internal.Message != GenericInternalMessage {
		t.Errorf("internal Message = %q, want generic", internal.Message)
	}
	if internal.Detail != "nil pointer in csv handler" || internal.File == "" {
		t.Errorf("internal detail/provenance missing: %+v", internal)
	}

	handler := NewInfo(Handler("The data handler 'nc' does not exist"))
	if handler.Message != "The data handler 'nc' does not exist" {
		t.Errorf("handler Message = %q", handler.Message)
	}

	fatal := NewInfo(InternalFatal("disk gone"))
	if !fatal.Fatal || fatal.Status != mdwerror.StatusInternalFatal {
		t.Errorf("fatal info = %+v", fatal)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, mdwerror.CodeBESInternal, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrap(errors.New("disk I/O"), mdwerror.CodeBESInternal, "sqlite insert failed")
	if Status(err) != mdwerror.StatusInternal {
		t.Errorf("Status() = %v", Status(err))
	}
}
