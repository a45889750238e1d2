package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"worldforge/internal/application/forge"
	"worldforge/internal/domain/world"
	"worldforge/internal/domain/world/worldtest"

	"github.com/gin-gonic/gin"
)

const testBase = "/v1/forge"

// stubGateway 立即返回预设结果
type stubGateway struct {
	world    *world.World
	worldErr error
	image    world.Image
	imageErr error
}

func (g *stubGateway) RequestWorld(ctx context.Context, seed string) (*world.World, error) {
	if g.worldErr != nil {
		return nil, g.worldErr
	}
	return g.world.Clone(), nil
}

func (g *stubGateway) RequestImage(ctx context.Context, prompt string) (world.Image, error) {
	return g.image, g.imageErr
}

func newTestEngine(t *testing.T, gw *stubGateway) (*gin.Engine, *forge.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := forge.NewStore(gw, forge.Options{MaxParallel: 2})
	h := NewForgeHandler(store, testBase, WithHeartbeat(50*time.Millisecond))

	r := gin.New()
	g := r.Group(testBase)
	g.GET("/state", h.GetState)
	g.GET("/events", h.Events)
	g.POST("/world", h.SubmitSeed)
	g.POST("/reset", h.Reset)
	g.DELETE("/error", h.DismissError)
	g.GET("/export", h.Export)
	g.POST("/locations/images", h.RequestAllLocationImages)
	g.POST("/locations/:id/image", h.RequestLocationImage)
	g.GET("/locations/:id/image", h.DownloadLocationImage)
	g.POST("/expanded", h.ExpandImage)
	g.DELETE("/expanded", h.CloseExpandedImage)
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func drain(t *testing.T, store *forge.Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

type stateEnvelope struct {
	Code int `json:"code"`
	Data struct {
		View          string `json:"view"`
		IsLoading     bool   `json:"isLoading"`
		Error         string `json:"error"`
		ExpandedImage *struct {
			Image string `json:"image"`
			Label string `json:"label"`
		} `json:"expandedImage"`
		World *struct {
			Title     string `json:"title"`
			Locations []struct {
				ID                string   `json:"id"`
				MoodTags          []string `json:"mood_tags"`
				IsGeneratingImage bool     `json:"isGeneratingImage"`
				ImageURL          string   `json:"image_url"`
			} `json:"locations"`
		} `json:"world"`
	} `json:"data"`
}

func getState(t *testing.T, r http.Handler) stateEnvelope {
	t.Helper()
	w := do(r, http.MethodGet, testBase+"/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /state status=%d body=%s", w.Code, w.Body.String())
	}
	var env stateEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return env
}

func forgeWorld(t *testing.T, r http.Handler, store *forge.Store) {
	t.Helper()
	w := do(r, http.MethodPost, testBase+"/world", `{"seed":"flooded neon city"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST /world status=%d body=%s", w.Code, w.Body.String())
	}
	drain(t, store)
}

func TestSubmitSeed_BlankIsIgnored(t *testing.T) {
	r, _ := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6)})

	w := do(r, http.MethodPost, testBase+"/world", `{"seed":"   "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"accepted":false`) {
		t.Fatalf("body=%s", w.Body.String())
	}
	if got := getState(t, r).Data.View; got != string(forge.ViewIdle) {
		t.Fatalf("view=%s want idle", got)
	}
}

func TestSubmitSeed_InvalidBody(t *testing.T) {
	r, _ := newTestEngine(t, &stubGateway{})
	if w := do(r, http.MethodPost, testBase+"/world", `{"seed":`); w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", w.Code)
	}
}

func TestSubmitSeed_ProducesResult(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6)})
	forgeWorld(t, r, store)

	env := getState(t, r)
	if env.Data.View != string(forge.ViewResult) || env.Data.World == nil {
		t.Fatalf("unexpected state: %+v", env.Data)
	}
	if n := len(env.Data.World.Locations); n != 6 {
		t.Fatalf("locations=%d want 6", n)
	}
	if tags := env.Data.World.Locations[0].MoodTags; len(tags) != 3 || tags[0] != "foggy" {
		t.Fatalf("mood_tags=%v", tags)
	}
}

func TestSubmitSeed_FailureThenDismiss(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{worldErr: errors.New("boom")})
	forgeWorld(t, r, store)

	env := getState(t, r)
	if env.Data.View != string(forge.ViewError) || env.Data.Error != forge.WorldFailureMessage {
		t.Fatalf("unexpected state: %+v", env.Data)
	}

	if w := do(r, http.MethodDelete, testBase+"/error", ""); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE /error status=%d", w.Code)
	}
	if got := getState(t, r).Data.View; got != string(forge.ViewIdle) {
		t.Fatalf("view=%s want idle", got)
	}
}

func TestRequestLocationImage(t *testing.T) {
	img := worldtest.SampleImage("dock")
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6), image: img})

	if w := do(r, http.MethodPost, testBase+"/locations/dock_01/image", ""); w.Code != http.StatusNotFound {
		t.Fatalf("without world status=%d want 404", w.Code)
	}

	forgeWorld(t, r, store)

	if w := do(r, http.MethodPost, testBase+"/locations/nowhere/image", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown location status=%d want 404", w.Code)
	}
	if w := do(r, http.MethodPost, testBase+"/locations/dock_01/image", `{"override_text":"heavy rain"}`); w.Code != http.StatusAccepted {
		t.Fatalf("status=%d want 202 body=%s", w.Code, w.Body.String())
	}
	drain(t, store)

	loc := getState(t, r).Data.World.Locations[0]
	if loc.IsGeneratingImage || loc.ImageURL != testBase+"/locations/dock_01/image" {
		t.Fatalf("location=%+v", loc)
	}

	w := do(r, http.MethodGet, loc.ImageURL+"?download=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("download status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "worldforge-ai-place-1.jpg") {
		t.Fatalf("content-disposition=%q", cd)
	}
	if w.Body.String() != string(img.Data) {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestDownloadLocationImage_NotGenerated(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6)})
	forgeWorld(t, r, store)

	if w := do(r, http.MethodGet, testBase+"/locations/dock_01/image", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", w.Code)
	}
}

func TestRequestAllLocationImages(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6), image: worldtest.SampleImage("x")})

	if w := do(r, http.MethodPost, testBase+"/locations/images", ""); w.Code != http.StatusOK {
		t.Fatalf("without world status=%d want 200", w.Code)
	}

	forgeWorld(t, r, store)
	if w := do(r, http.MethodPost, testBase+"/locations/images", ""); w.Code != http.StatusAccepted {
		t.Fatalf("status=%d want 202", w.Code)
	}
	drain(t, store)

	for _, loc := range getState(t, r).Data.World.Locations {
		if loc.ImageURL == "" {
			t.Fatalf("location %s has no image", loc.ID)
		}
	}
}

func TestExpandImage(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6), image: worldtest.SampleImage("dock")})
	forgeWorld(t, r, store)

	if w := do(r, http.MethodPost, testBase+"/expanded", `{"location_id":"dock_01"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expand without image status=%d want 404", w.Code)
	}
	if w := do(r, http.MethodPost, testBase+"/expanded", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expand without id status=%d want 400", w.Code)
	}

	do(r, http.MethodPost, testBase+"/locations/dock_01/image", "")
	drain(t, store)

	if w := do(r, http.MethodPost, testBase+"/expanded", `{"location_id":"dock_01"}`); w.Code != http.StatusNoContent {
		t.Fatalf("expand status=%d want 204", w.Code)
	}
	exp := getState(t, r).Data.ExpandedImage
	if exp == nil || exp.Label != "Place 1" || !strings.HasPrefix(exp.Image, "data:image/jpeg;base64,") {
		t.Fatalf("expanded=%+v", exp)
	}

	if w := do(r, http.MethodDelete, testBase+"/expanded", ""); w.Code != http.StatusNoContent {
		t.Fatalf("close status=%d", w.Code)
	}
	if getState(t, r).Data.ExpandedImage != nil {
		t.Fatalf("expanded image not closed")
	}
}

func TestExport(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6)})

	if w := do(r, http.MethodGet, testBase+"/export", ""); w.Code != http.StatusNotFound {
		t.Fatalf("export without world status=%d want 404", w.Code)
	}

	forgeWorld(t, r, store)
	w := do(r, http.MethodGet, testBase+"/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "drowned_neon_covenant.json") {
		t.Fatalf("content-disposition=%q", cd)
	}
	doc, err := world.ParseDocument(w.Body.Bytes())
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if doc.Title != "Drowned Neon Covenant" || len(doc.Locations) != 6 {
		t.Fatalf("doc=%+v", doc)
	}
}

func TestReset(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{world: worldtest.SampleWorld(6)})
	forgeWorld(t, r, store)

	if w := do(r, http.MethodPost, testBase+"/reset", ""); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	env := getState(t, r)
	if env.Data.View != string(forge.ViewIdle) || env.Data.World != nil {
		t.Fatalf("state after reset=%+v", env.Data)
	}
}

func TestEvents_StreamsInitialState(t *testing.T) {
	r, _ := newTestEngine(t, &stubGateway{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+testBase+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content-type=%q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	var sawEvent, sawData bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event:state" {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data:") {
			sawData = strings.Contains(line, `"view":"idle"`)
			break
		}
	}
	if !sawEvent || !sawData {
		t.Fatalf("initial state event not received (event=%v data=%v)", sawEvent, sawData)
	}
}

func TestEvents_ShutdownClosesOpenStreams(t *testing.T) {
	r, store := newTestEngine(t, &stubGateway{})
	srv := httptest.NewServer(r)
	defer srv.Close()
	srv.Config.RegisterOnShutdown(store.Close)

	resp, err := http.Get(srv.URL + testBase + "/events")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "data:") {
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := srv.Config.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown with an open stream: %v after %s", err, time.Since(start))
	}
	if err := store.Drain(ctx); err != nil {
		t.Fatalf("Drain after shutdown: %v", err)
	}
}
