package framestats

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/framestats/pkg/source"
)

func finishedBenchmark(t *testing.T) *Benchmark {
	t.Helper()

	stages := newStages(t, "forest", "city")

	bm, err := NewBenchmark(source.NewReplay(frames(10, 20, 30, 40), source.WithStageFrames("city", nil)),
		WithWarmup(0),
		WithStages(stages...),
	)
	assert.NoError(t, err)

	// city has no frames: it finishes without samples and fails, leaving forest stored
	_ = bm.Run(context.Background())

	return bm
}

func mountedServer(t *testing.T, bm *Benchmark, opts ...ManagementHTTPOption) *ManagementHTTPServer {
	t.Helper()

	srv := NewManagementHTTPServer("127.0.0.1:0", opts...)
	srv.mountRoutes(bm)

	return srv
}

func doRequest(t *testing.T, srv *ManagementHTTPServer, method, target string) (int, string, []byte) {
	t.Helper()

	resp, err := srv.app.Test(httptest.NewRequest(method, target, nil))
	assert.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	return resp.StatusCode, resp.Header.Get("Content-Type"), body
}

func TestManagementHTTP_Stages(t *testing.T) {
	srv := mountedServer(t, finishedBenchmark(t))

	status, _, body := doRequest(t, srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, _, body = doRequest(t, srv, http.MethodGet, "/stages")
	assert.Equal(t, http.StatusOK, status)

	var list struct {
		Count  int         `json:"count"`
		Stages []stageInfo `json:"stages"`
	}

	assert.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "forest", list.Stages[0].Name)
	assert.Equal(t, "Finished", list.Stages[0].Status)
	assert.Equal(t, 4, list.Stages[0].Count)
}

func TestManagementHTTP_StageDetail(t *testing.T) {
	srv := mountedServer(t, finishedBenchmark(t))

	status, _, body := doRequest(t, srv, http.MethodGet, "/stages/forest?metric=fps")
	assert.Equal(t, http.StatusOK, status)

	var detail stageDetail
	assert.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "fps", detail.View.Metric)
	assert.True(t, detail.View.Finalized)
	assert.Equal(t, 4, len(detail.View.Graph))
	assert.Equal(t, 3, len(detail.View.Lines))
	assert.Equal(t, 35.0, detail.Summary.UpperQuartile.FrameTime)
	assert.Nil(t, detail.Summary.Samples)

	status, _, _ = doRequest(t, srv, http.MethodGet, "/stages/forest?metric=latency")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = doRequest(t, srv, http.MethodGet, "/stages/desert")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestManagementHTTP_Export(t *testing.T) {
	srv := mountedServer(t, finishedBenchmark(t))

	status, contentType, body := doRequest(t, srv, http.MethodGet, "/stages/forest/export")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(contentType, "text/csv"))
	assert.True(t, strings.Contains(string(body), "Scene,forest"))
	assert.True(t, strings.Contains(string(body), "Captured frames,4"))

	status, contentType, _ = doRequest(t, srv, http.MethodGet, "/stages/forest/export?format=msgpack")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/msgpack", contentType)

	status, _, _ = doRequest(t, srv, http.MethodGet, "/stages/forest/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, status)

	// city never produced a summary
	status, _, _ = doRequest(t, srv, http.MethodGet, "/stages/city/export")
	assert.Equal(t, http.StatusConflict, status)
}

func TestManagementHTTP_CancelAndResults(t *testing.T) {
	stages := newStages(t, "forest")
	bm, _ := NewBenchmark(source.NewReplay(nil), WithStages(stages...))
	srv := mountedServer(t, bm)

	status, _, _ := doRequest(t, srv, http.MethodPost, "/stages/forest/cancel")
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, StatusSkipped, stages[0].Status())

	status, _, _ = doRequest(t, srv, http.MethodPost, "/stages/desert/cancel")
	assert.Equal(t, http.StatusNotFound, status)

	srv = mountedServer(t, finishedBenchmark(t))

	status, _, body := doRequest(t, srv, http.MethodGet, "/results?sort=stage&order=desc")
	assert.Equal(t, http.StatusOK, status)

	var results struct {
		Count int `json:"count"`
	}

	assert.NoError(t, json.Unmarshal(body, &results))
	assert.Equal(t, 1, results.Count)

	status, _, _ = doRequest(t, srv, http.MethodGet, "/results?sort=color")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestManagementHTTP_Auth(t *testing.T) {
	srv := mountedServer(t, finishedBenchmark(t), WithMgmtAuth(func(fiberCtx fiber.Ctx) error {
		if fiberCtx.Get("Authorization") != "Bearer token" {
			return fiber.ErrUnauthorized
		}

		return nil
	}))

	status, _, _ := doRequest(t, srv, http.MethodGet, "/stages")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestManagementHTTP_Lifecycle(t *testing.T) {
	ctx := context.Background()
	bm := finishedBenchmark(t)

	srv := NewManagementHTTPServer("127.0.0.1:0")
	assert.Equal(t, "", srv.Address())
	assert.NoError(t, srv.Shutdown(ctx))

	assert.NoError(t, srv.Start(ctx, bm))
	assert.NoError(t, srv.Start(ctx, bm))

	// wait briefly for listener
	time.Sleep(30 * time.Millisecond)

	addr := srv.Address()
	assert.True(t, addr != "")

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get("http://" + addr + "/health")
	assert.Nil(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	assert.NoError(t, srv.Shutdown(shutdownCtx))
}
