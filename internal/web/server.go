// Package web serves the browser form: one page to type an expression,
// pick a scene and quality, and get the rendered video back.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/expr"
	"github.com/mathmotion/mathmotion/pkg/render"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Submitter runs render jobs. Satisfied by *render.Submitter.
type Submitter interface {
	Submit(ctx context.Context, job *render.Job) (*render.Result, error)
}

// Server is the web form handler. Artifacts are written under OutDir and
// served back from /videos/.
type Server struct {
	submitter Submitter
	outDir    string
	logger    *log.Logger
	tmpl      *template.Template
}

// NewServer creates a Server writing artifacts under outDir.
func NewServer(submitter Submitter, outDir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		submitter: submitter,
		outDir:    outDir,
		logger:    logger,
		tmpl:      template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl")),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/render", s.handleRender)
	r.Get("/videos/{name}", s.handleVideo)

	return r
}

// formData is the state round-tripped through the form page so a failed
// submission keeps the user's input.
type formData struct {
	Mode       string
	Expression string
	XMin, XMax string
	Quality    string
	Latex      bool
	Error      string

	Examples2D []string
	Examples3D []string
}

// Example expressions offered as one-click chips on the form.
var (
	examples2D = []string{
		"sin(x)*exp(-x/4)",
		"x^2 - 2*x",
		"abs(sin(x)) + 0.5*cos(3*x)",
		"log(x + 7)",
	}
	examples3D = []string{
		"sin(x)*cos(y)",
		"x^2 - y^2",
		"exp(-(x^2+y^2)/4)",
	}
)

func newFormData() formData {
	return formData{
		Mode:       "2d",
		Quality:    "fast",
		XMin:       "-6",
		XMax:       "6",
		Examples2D: examples2D,
		Examples3D: examples3D,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index.html.tmpl", newFormData())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := newFormData()
	form.Mode = r.PostFormValue("mode")
	form.Expression = strings.TrimSpace(r.PostFormValue("expression"))
	form.XMin = r.PostFormValue("xmin")
	form.XMax = r.PostFormValue("xmax")
	form.Quality = r.PostFormValue("quality")
	form.Latex = r.PostFormValue("latex") == "on"

	job, err := s.buildJob(form)
	if err != nil {
		s.formError(w, form, err)
		return
	}

	res, err := s.submitter.Submit(r.Context(), job)
	if err != nil {
		s.logger.Warn("render failed", "err", err)
		s.formError(w, form, err)
		return
	}

	s.renderPage(w, "result.html.tmpl", struct {
		Label string
		Video string
	}{
		Label: res.Label,
		Video: "/videos/" + filepath.Base(res.ArtifactPath),
	})
}

// handleVideo serves one artifact from the output directory. Only a bare
// file name is accepted so the form cannot be used to read other paths.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.outDir, name))
}

// buildJob maps the posted form onto a render job with a unique artifact name.
func (s *Server) buildJob(form formData) (*render.Job, error) {
	quality, err := render.ParseQuality(form.Quality)
	if err != nil {
		return nil, err
	}

	xrange := render.AxisRange{}
	if form.XMin != "" || form.XMax != "" {
		xrange, err = parseAxis(form.XMin, form.XMax)
		if err != nil {
			return nil, err
		}
	}

	job := &render.Job{
		Quality:       quality,
		X:             xrange,
		TypesetLabels: form.Latex,
		OutputPath:    filepath.Join(s.outDir, uuid.NewString()+".mp4"),
	}

	switch form.Mode {
	case "2d", "":
		job.Scene = render.SceneGraph2D
		job.Expr2D = form.Expression
	case "3d":
		job.Scene = render.SceneGraph3D
		job.Expr3D = form.Expression
	case "volume":
		job.Scene = render.SceneVolume
		job.Expr2D = form.Expression
	default:
		return nil, errors.New(errors.ErrCodeInvalidScene, "invalid scene: %q", form.Mode)
	}
	return job, nil
}

func parseAxis(minStr, maxStr string) (render.AxisRange, error) {
	var r render.AxisRange
	var err error
	if r.Min, err = parseFloatField("x min", minStr); err != nil {
		return r, err
	}
	if r.Max, err = parseFloatField("x max", maxStr); err != nil {
		return r, err
	}
	return r, nil
}

// parseFloatField accepts any variable-free expression, so "2*pi" is a
// valid axis limit.
func parseFloatField(field, s string) (float64, error) {
	v, err := expr.ParseBound(s)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidRange, "%s %q is not a number", field, strings.TrimSpace(s))
	}
	return v, nil
}

// formError re-renders the form with the user's input intact plus the error
// message inline. Render failures are still a 200: the page is the result.
func (s *Server) formError(w http.ResponseWriter, form formData, err error) {
	form.Error = errors.UserMessage(err)
	s.renderPage(w, "index.html.tmpl", form)
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "err", err)
	}
}
