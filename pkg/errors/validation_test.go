package errors

import (
	"strings"
	"testing"
)

func TestValidateExpressionText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"valid expression", "sin(x) + x**2/8", false},
		{"valid with spaces", "  exp(-x**2)*cos(3*x)  ", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"newline", "sin(x)\nrm -rf", true},
		{"tab", "sin(\tx)", true},
		{"null byte", "sin(x)\x00", true},
		{"too long", strings.Repeat("x+", MaxExpressionLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpressionText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExpressionText(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"simple file", "out/graph2d.mp4", false},
		{"absolute path", "/tmp/render/out.mp4", false},
		{"empty", "", true},
		{"traversal", "out/../../etc/passwd", true},
		{"null byte", "out/a\x00b.mp4", true},
		{"newline", "out/a\nb.mp4", true},
		{"too long", strings.Repeat("a/", 300) + "x.mp4", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvValue(t *testing.T) {
	if err := ValidateEnvValue("expression", "sin(x)*cos(y)"); err != nil {
		t.Errorf("unexpected error for clean value: %v", err)
	}
	if err := ValidateEnvValue("expression", "sin(x)\x00"); err == nil {
		t.Error("expected error for NUL byte")
	}
	if err := ValidateEnvValue("x range", "-6,6\n"); err == nil {
		t.Error("expected error for newline")
	}
	if got := GetCode(ValidateEnvValue("f", "a\nb")); got != ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", got, ErrCodeInvalidInput)
	}
}
