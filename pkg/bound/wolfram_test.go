package bound

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mathmotion/mathmotion/pkg/cache"
	"github.com/mathmotion/mathmotion/pkg/errors"
)

// fakeHelper writes an executable script that prints the given stdout and
// exits with the given code, standing in for wolframscript.
func fakeHelper(t *testing.T, stdout string, exitCode int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-wolframscript")
	script := "#!/bin/sh\nprintf '%s\\n' '" + stdout + "'\nexit " + string(rune('0'+exitCode)) + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write fake helper: %v", err)
	}
	return path
}

func TestWolframEstimateSuccess(t *testing.T) {
	bin := fakeHelper(t, `{"yMaxNumeric": 7.39, "integralTeX": "V = \\\\pi \\\\int_{1}^{2} e^{2x} dx"}`, 0)
	e := NewWolfram(WolframConfig{Bin: bin}, nil)

	est, err := e.Estimate(context.Background(), Request{Text: "exp(x)", A: 1, B: 2})
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}
	if math.Abs(est.Magnitude-7.39) > 1e-9 {
		t.Errorf("Magnitude = %v, want 7.39", est.Magnitude)
	}
	if est.IntegralTeX == "" {
		t.Error("IntegralTeX should be populated")
	}
}

func TestWolframEstimateFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *WolframEstimator
	}{
		{"missing binary", func(t *testing.T) *WolframEstimator {
			return NewWolfram(WolframConfig{Bin: filepath.Join(t.TempDir(), "nope")}, nil)
		}},
		{"non-zero exit", func(t *testing.T) *WolframEstimator {
			return NewWolfram(WolframConfig{Bin: fakeHelper(t, "kernel panic", 1)}, nil)
		}},
		{"malformed output", func(t *testing.T) *WolframEstimator {
			return NewWolfram(WolframConfig{Bin: fakeHelper(t, "not json", 0)}, nil)
		}},
		{"empty reply object", func(t *testing.T) *WolframEstimator {
			return NewWolfram(WolframConfig{Bin: fakeHelper(t, "{}", 0)}, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.setup(t)
			_, err := e.Estimate(context.Background(), Request{Text: "sin(x)", A: 0, B: 1})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeHelperUnavailable) {
				t.Errorf("code = %q, want HELPER_UNAVAILABLE", errors.GetCode(err))
			}
		})
	}
}

func TestWolframServesFromCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	ctx := context.Background()
	key := cache.HelperKey("sin(x)", 1, 2)
	if err := c.Set(ctx, key, []byte(`{"yMaxNumeric": 2.5}`), 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	// Binary does not exist; a cache hit must answer anyway.
	e := NewWolfram(WolframConfig{Bin: filepath.Join(t.TempDir(), "nope")}, c)
	est, err := e.Estimate(ctx, Request{Text: "sin(x)", A: 1, B: 2})
	if err != nil {
		t.Fatalf("Estimate error: %v", err)
	}
	if est.Magnitude != 2.5 {
		t.Errorf("Magnitude = %v, want cached 2.5", est.Magnitude)
	}
}

func TestChainFallsBackToLocal(t *testing.T) {
	helper := NewWolfram(WolframConfig{Bin: filepath.Join(t.TempDir(), "nope")}, nil)
	chain := NewChain(nil, helper, NewLocal())

	f := compile(t, "sin(x)")
	est, err := chain.Estimate(context.Background(), Request{Text: "sin(x)", Func: f, A: 1, B: 2})
	if err != nil {
		t.Fatalf("chain must not error: %v", err)
	}
	if math.Abs(est.Magnitude-localHeadroom) > 1e-9 {
		t.Errorf("Magnitude = %v, want local fallback %v", est.Magnitude, localHeadroom)
	}
}

func TestChainPrefersHelper(t *testing.T) {
	bin := fakeHelper(t, `{"yMaxNumeric": 9.5}`, 0)
	chain := NewChain(nil, NewWolfram(WolframConfig{Bin: bin}, nil), NewLocal())

	f := compile(t, "sin(x)")
	est, err := chain.Estimate(context.Background(), Request{Text: "sin(x)", Func: f, A: 1, B: 2})
	if err != nil {
		t.Fatalf("chain error: %v", err)
	}
	if est.Magnitude != 9.5 {
		t.Errorf("Magnitude = %v, want helper's 9.5", est.Magnitude)
	}
}
