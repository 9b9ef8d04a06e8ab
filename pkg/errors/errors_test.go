package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeParse, "unknown identifier %q", "foo")

	if err.Code != ErrCodeParse {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeParse)
	}
	if !strings.Contains(err.Error(), "PARSE_ERROR") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
	if !strings.Contains(err.Error(), `"foo"`) {
		t.Errorf("Error() = %q, want formatted message", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("exit status 1")
	err := Wrap(ErrCodeRenderFailed, cause, "renderer exited")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause with errors.Is")
	}
	if !strings.Contains(err.Error(), "exit status 1") {
		t.Errorf("Error() = %q, want cause text", err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeTimeout, "too slow"), ErrCodeTimeout, true},
		{"different code", New(ErrCodeTimeout, "too slow"), ErrCodeBusy, false},
		{"wrapped matching", Wrap(ErrCodeBusy, stderrors.New("locked"), "path in use"), ErrCodeBusy, true},
		{"plain error", stderrors.New("plain"), ErrCodeTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %q) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeArtifactMissing, "no video")); got != ErrCodeArtifactMissing {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeArtifactMissing)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeParse, "unexpected token ')'")
	if got := UserMessage(err); got != "unexpected token ')'" {
		t.Errorf("UserMessage = %q, want message without code prefix", got)
	}

	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
