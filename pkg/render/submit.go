package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mathmotion/mathmotion/pkg/bound"
	"github.com/mathmotion/mathmotion/pkg/errors"
)

// Submitter runs render jobs against one renderer installation. It is safe
// for concurrent use: jobs are independent, and submissions targeting the
// same output path are serialized by a per-path lock so two renders can
// never interleave writes to one file.
type Submitter struct {
	cfg       Config
	estimator bound.Estimator
	logger    *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSubmitter creates a Submitter. A nil estimator disables auxiliary
// display data (labels still work); a nil logger discards logs.
func NewSubmitter(cfg Config, estimator bound.Estimator, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Submitter{
		cfg:       cfg.withDefaults(),
		estimator: estimator,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Submit validates the job, invokes the renderer once, and relocates the
// artifact to job.OutputPath. Exactly one of result and error is non-nil.
//
// Failure classification:
//   - BUSY: another job is in flight for the same output path
//   - TIMEOUT: the renderer exceeded the configured wall-clock limit
//   - RENDER_FAILED: the renderer exited non-zero (streams on the cause)
//   - ARTIFACT_MISSING: exit zero but no artifact found under the media root
//
// There are no retries: renders are slow and expensive, and silently
// retrying would mask persistent input errors.
func (s *Submitter) Submit(ctx context.Context, job *Job) (*Result, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	logger := s.logger.With("job", job.ID, "scene", string(job.Scene))

	target, err := filepath.Abs(job.OutputPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve output path %q", job.OutputPath)
	}

	lock := s.pathLock(target)
	if !lock.TryLock() {
		return nil, errors.New(errors.ErrCodeBusy, "a render targeting %q is already in flight", filepath.Base(target))
	}
	defer lock.Unlock()

	// A stale artifact from a previous run must never be mistaken for this
	// job's output.
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "remove stale artifact")
	}

	estimate := s.estimate(ctx, job, logger)

	res, err := s.invoke(ctx, job, target, estimate, logger)
	if err != nil {
		return nil, err
	}
	res.Label = job.Label()
	res.Magnitude = estimate.Magnitude
	res.IntegralTeX = estimate.IntegralTeX
	return res, nil
}

// estimate asks the bound estimator for auxiliary display data. Best-effort
// only: a failing or absent estimator yields a unit magnitude and the job
// proceeds identically.
func (s *Submitter) estimate(ctx context.Context, job *Job, logger *log.Logger) bound.Estimate {
	fallback := bound.Estimate{Magnitude: 1}
	if s.estimator == nil {
		return fallback
	}
	fn := job.Fn()
	if fn == nil || fn.Arity() != 1 {
		return fallback
	}
	est, err := s.estimator.Estimate(ctx, bound.Request{
		Text: fn.Text(),
		Func: fn,
		A:    job.X.Min,
		B:    job.X.Max,
	})
	if err != nil {
		logger.Debug("bound estimation declined, using unit magnitude", "err", err)
		return fallback
	}
	return est
}

// invoke spawns the renderer, waits for it under the configured timeout,
// classifies the outcome, and moves the artifact into place.
func (s *Submitter) invoke(ctx context.Context, job *Job, target string, estimate bound.Estimate, logger *log.Logger) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	outName := filepath.Base(target)

	var args []string
	if job.Preview {
		args = append(args, "-p")
	}
	args = append(args, "-q", job.Quality.Code(), "-o", outName, s.cfg.SceneFile, string(job.Scene))

	env, err := jobEnv(job, estimate)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, s.cfg.Bin, args...)
	cmd.Dir = s.cfg.WorkDir
	cmd.Env = append(os.Environ(), env...)
	// The renderer spawns its own children (ffmpeg, latex); don't let an
	// orphan holding the output pipes stall Wait forever after a kill.
	cmd.WaitDelay = 10 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("invoking renderer", "quality", string(job.Quality), "output", outName)
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		// The child was killed; drop any partial artifact it left behind.
		if partial, ok := s.findArtifact(outName); ok {
			_ = os.Remove(partial)
		}
		return nil, errors.New(errors.ErrCodeTimeout, "renderer exceeded %s", s.cfg.Timeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			logger.Warn("renderer failed", "exit", exitErr.ExitCode(), "duration", elapsed.Round(time.Millisecond))
			cause := &RenderError{
				Stdout: stdout.String(),
				Stderr: stderr.String(),
				Exit:   exitErr.ExitCode(),
			}
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, cause, "renderer exited with status %d", exitErr.ExitCode())
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, runErr, "start renderer %q", s.cfg.Bin)
	}

	src, ok := s.findArtifact(outName)
	if !ok {
		return nil, errors.New(errors.ErrCodeArtifactMissing,
			"renderer reported success but produced no file named %q under %s", outName, s.cfg.MediaDir)
	}
	if err := moveFile(src, target); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "relocate artifact to %q", target)
	}

	logger.Info("render complete", "artifact", target, "duration", elapsed.Round(time.Millisecond))
	return &Result{
		JobID:        job.ID,
		ArtifactPath: target,
		Stdout:       stdout.String(),
		Stderr:       stderr.String(),
		Duration:     elapsed,
	}, nil
}

// jobEnv serializes the job's scalar fields into the renderer's environment
// contract. Values are opaque strings; anything carrying control characters
// is rejected before it can corrupt the encoding.
func jobEnv(job *Job, estimate bound.Estimate) ([]string, error) {
	env := []string{
		"XRANGE=" + job.X.envString(),
		"YRANGE=" + job.Y.envString(),
		"ZRANGE=" + job.Z.envString(),
		// The renderer must never block on a prompt in a headless run.
		"ALLOW_INPUT=0",
	}
	if job.TypesetLabels {
		env = append(env, "USE_LATEX=1")
	} else {
		env = append(env, "USE_LATEX=0")
	}
	if job.fn2D != nil {
		env = append(env, "FUNC2D="+job.fn2D.Text())
	}
	if job.fn3D != nil {
		env = append(env, "FUNC3D="+job.fn3D.Text())
	}
	if estimate.Magnitude > 0 {
		env = append(env, "YMAX="+strconv.FormatFloat(estimate.Magnitude, 'g', -1, 64))
	}
	if estimate.IntegralTeX != "" {
		env = append(env, "INTEGRAL_TEX="+estimate.IntegralTeX)
	}

	for _, kv := range env {
		eq := 0
		for eq < len(kv) && kv[eq] != '=' {
			eq++
		}
		if err := errors.ValidateEnvValue(kv[:eq], kv[eq+1:]); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// pathLock returns the mutex guarding one absolute target path.
func (s *Submitter) pathLock(target string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[target]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[target] = l
	return l
}

// findArtifact searches the media root recursively for a file with the
// expected base name. The renderer owns its output directory layout
// (media/videos/<module>/<quality>/...), so the only stable handle is the
// filename itself.
func (s *Submitter) findArtifact(name string) (string, bool) {
	var found string
	_ = filepath.WalkDir(s.cfg.MediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking siblings
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found, found != ""
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems. The destination directory is created as
// needed and any pre-existing file is overwritten.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// RenderError carries the renderer's captured streams for a non-zero exit.
// It is the cause inside a RENDER_FAILED error; extract it with errors.As
// when the full streams are needed for diagnostics.
type RenderError struct {
	Stdout string
	Stderr string
	Exit   int
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if line := firstLine(e.Stderr); line != "" {
		return fmt.Sprintf("exit status %d: %s", e.Exit, line)
	}
	return fmt.Sprintf("exit status %d", e.Exit)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
