package bound

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mathmotion/mathmotion/pkg/cache"
	"github.com/mathmotion/mathmotion/pkg/errors"
)

// WolframConfig configures the external symbolic helper invocation.
type WolframConfig struct {
	// Bin is the helper binary, usually "wolframscript" on PATH.
	Bin string

	// Script is the helper script passed via -file. It receives the
	// expression text and both bounds as positional arguments and prints
	// one JSON line on stdout.
	Script string
}

// WolframEstimator asks an external symbolic toolkit for a magnitude bound
// and a typeset integral form. Every failure mode (missing binary, non-zero
// exit, malformed output, context expiry) surfaces as HELPER_UNAVAILABLE so
// a chain can silently fall back to local sampling.
//
// Replies are memoized in the cache: the helper is pure in its inputs and
// slow enough that re-asking for the same (expression, bounds) would
// dominate a render request.
type WolframEstimator struct {
	cfg   WolframConfig
	cache cache.Cache
}

// NewWolfram creates a helper-backed estimator. A nil cache disables
// memoization.
func NewWolfram(cfg WolframConfig, c cache.Cache) *WolframEstimator {
	if cfg.Bin == "" {
		cfg.Bin = "wolframscript"
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &WolframEstimator{cfg: cfg, cache: c}
}

// helperReply is the single JSON line the helper script prints. Both fields
// are optional; a reply with neither is treated as the helper declining.
type helperReply struct {
	YMaxNumeric *float64 `json:"yMaxNumeric"`
	IntegralTeX string   `json:"integralTeX"`
}

// Estimate implements Estimator.
func (e *WolframEstimator) Estimate(ctx context.Context, req Request) (Estimate, error) {
	raw, err := e.query(ctx, req)
	if err != nil {
		return Estimate{}, err
	}

	var reply helperReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Estimate{}, errors.Wrap(errors.ErrCodeHelperUnavailable, err, "helper output is not valid JSON")
	}

	est := Estimate{IntegralTeX: reply.IntegralTeX}
	if reply.YMaxNumeric != nil && *reply.YMaxNumeric > 0 {
		est.Magnitude = *reply.YMaxNumeric
	}
	if est.Magnitude == 0 && est.IntegralTeX == "" {
		return Estimate{}, errors.New(errors.ErrCodeHelperUnavailable, "helper reply carries no usable fields")
	}
	if est.Magnitude == 0 {
		// Helper produced only the integral form; fill the magnitude from
		// local sampling so callers get a complete estimate.
		local, _ := NewLocal().Estimate(ctx, req)
		est.Magnitude = local.Magnitude
	}
	return est, nil
}

// query runs the helper process (or serves its reply from cache) and
// returns the raw JSON line.
func (e *WolframEstimator) query(ctx context.Context, req Request) ([]byte, error) {
	key := cache.HelperKey(req.Text, req.A, req.B)
	if data, hit, err := e.cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	bin, err := exec.LookPath(e.cfg.Bin)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeHelperUnavailable, err, "helper binary %q not found", e.cfg.Bin)
	}

	args := []string{}
	if e.cfg.Script != "" {
		args = append(args, "-file", e.cfg.Script)
	}
	args = append(args,
		req.Text,
		strconv.FormatFloat(req.A, 'g', -1, 64),
		strconv.FormatFloat(req.B, 'g', -1, 64),
	)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeHelperUnavailable, err, "helper exited: %s", strings.TrimSpace(stderr.String()))
	}

	line := bytes.TrimSpace(stdout.Bytes())
	if len(line) == 0 {
		return nil, errors.New(errors.ErrCodeHelperUnavailable, "helper produced no output")
	}
	// Keep only the last line; wolframscript sometimes prefixes kernel
	// startup chatter.
	if i := bytes.LastIndexByte(line, '\n'); i >= 0 {
		line = bytes.TrimSpace(line[i+1:])
	}

	_ = e.cache.Set(ctx, key, line, cache.TTLHelper)
	return line, nil
}

// Ensure WolframEstimator implements Estimator.
var _ Estimator = (*WolframEstimator)(nil)
