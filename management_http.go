package framestats

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v3"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/framestats/internal/sentinel"
	"github.com/hyp3rd/framestats/pkg/aggregator"
	"github.com/hyp3rd/framestats/pkg/backend"
	"github.com/hyp3rd/framestats/pkg/display"
	"github.com/hyp3rd/framestats/pkg/export"
	"github.com/hyp3rd/framestats/pkg/sample"
)

// ManagementHTTPOption configures the management HTTP server.
type ManagementHTTPOption func(*ManagementHTTPServer)

// ManagementHTTPServer holds Fiber app and settings.
type ManagementHTTPServer struct {
	addr         string
	app          *fiber.App
	readTimeout  time.Duration
	writeTimeout time.Duration
	authFunc     func(fiber.Ctx) error
	thresholds   []display.Threshold
	ln           net.Listener
	started      bool
}

// WithMgmtAuth sets an auth function (return error to block).
func WithMgmtAuth(fn func(fiber.Ctx) error) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.authFunc = fn }
}

// WithMgmtReadTimeout sets read timeout.
func WithMgmtReadTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.readTimeout = d }
}

// WithMgmtWriteTimeout sets write timeout.
func WithMgmtWriteTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.writeTimeout = d }
}

// WithMgmtThresholds replaces the reference lines of the stage views.
func WithMgmtThresholds(thresholds ...display.Threshold) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.thresholds = thresholds }
}

const (
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	defaultShutdownTimeout = 2 * time.Second
)

// NewManagementHTTPServer builds an HTTP server holder (lazy start).
func NewManagementHTTPServer(addr string, opts ...ManagementHTTPOption) *ManagementHTTPServer {
	srv := &ManagementHTTPServer{
		addr:         addr,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		thresholds:   display.DefaultThresholds(),
	}
	for _, opt := range opts { // apply options
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
	})

	return srv
}

// managementBenchmark is what the routes need from a Benchmark.
type managementBenchmark interface {
	Stages() []*Stage
	Stage(name string) (*Stage, error)
	CancelStage(name string) error
	Results(ctx context.Context, filters ...backend.IFilter) ([]backend.Result, error)
}

// Start launches listener (idempotent). Caller provides the benchmark for handler wiring.
func (s *ManagementHTTPServer) Start(ctx context.Context, bm managementBenchmark) error {
	if s.started { // idempotent
		return nil
	}

	s.mountRoutes(bm)

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "mgmt listen")
	}

	s.ln = ln

	go func() { // serve in background; Shutdown closes the listener
		_ = s.app.Listener(ln)
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for ephemeral port). Empty if not started yet.
func (s *ManagementHTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *ManagementHTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return sentinel.ErrMgmtHTTPShutdownTimeout
	case err := <-ch:
		s.started = false

		return err
	}
}

func (s *ManagementHTTPServer) mountRoutes(bm managementBenchmark) {
	useAuth := s.wrapAuth
	s.registerBasic(useAuth, bm)
	s.registerStage(useAuth, bm)
	s.registerControl(useAuth, bm)
	s.registerResults(useAuth, bm)
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *ManagementHTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler { //nolint:ireturn
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

type stageInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	Enabled       bool   `json:"enabled"`
	BenchmarkType string `json:"benchmarkType"`
	Window        string `json:"window"`
	Progress      int    `json:"progress"`
	Count         int    `json:"count"`
}

type stageDetail struct {
	stageInfo

	Snapshot aggregator.Snapshot `json:"snapshot"`
	Summary  *aggregator.Summary `json:"summary,omitempty"`
	View     display.View        `json:"view"`
}

func infoOf(stage *Stage) stageInfo {
	return stageInfo{
		ID:            stage.ID(),
		Name:          stage.Name(),
		Status:        stage.Status().String(),
		Enabled:       stage.Enabled(),
		BenchmarkType: stage.BenchmarkType().String(),
		Window:        stage.Window().String(),
		Progress:      stage.Progress(),
		Count:         stage.Current().Count,
	}
}

func (s *ManagementHTTPServer) registerBasic(useAuth func(fiber.Handler) fiber.Handler, bm managementBenchmark) {
	s.app.Get("/health", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))
	s.app.Get("/stages", useAuth(func(fiberCtx fiber.Ctx) error {
		stages := bm.Stages()

		infos := make([]stageInfo, len(stages))
		for i, stage := range stages {
			infos[i] = infoOf(stage)
		}

		return fiberCtx.JSON(fiber.Map{"count": len(infos), "stages": infos})
	}))
}

func (s *ManagementHTTPServer) registerStage(useAuth func(fiber.Handler) fiber.Handler, bm managementBenchmark) {
	s.app.Get("/stages/:name", useAuth(func(fiberCtx fiber.Ctx) error {
		stage, err := bm.Stage(fiberCtx.Params("name"))
		if err != nil {
			return writeError(fiberCtx, err)
		}

		kind, err := sample.ParseMetricKind(fiberCtx.Query("metric", sample.FrameTime.String()))
		if err != nil {
			return writeError(fiberCtx, err)
		}

		detail := stageDetail{stageInfo: infoOf(stage), Snapshot: stage.Current()}
		samples := stage.Samples()

		if summary, ok := stage.Summary(); ok {
			summary.Samples = nil
			detail.Summary = &summary
			detail.Snapshot = summary.Snapshot()
		}

		detail.View = display.Build(kind, detail.Snapshot, detail.Summary, samples, s.thresholds)

		return fiberCtx.JSON(detail)
	}))
	s.app.Get("/stages/:name/export", useAuth(func(fiberCtx fiber.Ctx) error {
		stage, err := bm.Stage(fiberCtx.Params("name"))
		if err != nil {
			return writeError(fiberCtx, err)
		}

		summary, ok := stage.Summary()
		if !ok {
			return writeError(fiberCtx, ewrap.Wrapf(sentinel.ErrInvalidState, "stage %q is not finalized", stage.Name()))
		}

		format := strings.ToLower(fiberCtx.Query("format", export.FormatCSV))

		data, err := export.Encode(format, export.NewTable(stage.Name(), summary, export.WithTimeline(true)))
		if err != nil {
			return writeError(fiberCtx, err)
		}

		fiberCtx.Set(fiber.HeaderContentType, export.ContentType(format))

		return fiberCtx.Send(data)
	}))
}

func (s *ManagementHTTPServer) registerControl(useAuth func(fiber.Handler) fiber.Handler, bm managementBenchmark) {
	s.app.Post("/stages/:name/cancel", useAuth(func(fiberCtx fiber.Ctx) error {
		err := bm.CancelStage(fiberCtx.Params("name"))
		if err != nil {
			return writeError(fiberCtx, err)
		}

		return fiberCtx.SendStatus(fiber.StatusAccepted)
	}))
}

func (s *ManagementHTTPServer) registerResults(useAuth func(fiber.Handler) fiber.Handler, bm managementBenchmark) {
	s.app.Get("/results", useAuth(func(fiberCtx fiber.Ctx) error {
		var filters []backend.IFilter

		if sortBy := fiberCtx.Query("sort"); sortBy != "" {
			filters = append(filters, backend.WithSortBy(sortBy))
		}

		if fiberCtx.Query("order") == "desc" {
			filters = append(filters, backend.WithSortOrderAsc(false))
		}

		results, err := bm.Results(fiberCtx.Context(), filters...)
		if err != nil {
			return fiberCtx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		return fiberCtx.JSON(fiber.Map{"count": len(results), "results": results})
	}))
}

func writeError(fiberCtx fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, sentinel.ErrStageNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, sentinel.ErrInvalidMetric), errors.Is(err, sentinel.ErrSerializerNotFound):
		status = fiber.StatusBadRequest
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrInsufficientData):
		status = fiber.StatusConflict
	}

	return fiberCtx.Status(status).JSON(fiber.Map{"error": err.Error()})
}
