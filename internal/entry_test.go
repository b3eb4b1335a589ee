package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDraft = `{
  "materials": {
    "videos": [{"id": "v1", "path": "C:/Users/me/beach.mp4"}],
    "texts": [{"id": "t1", "content": "Hello"}]
  },
  "tracks": [
    {"segments": [{"material_id": "v1", "target_timerange": {"start": 0, "duration": 4000000}}]},
    {"segments": [{"material_id": "t1", "target_timerange": {"start": 60000000, "duration": 10000000}}]}
  ]
}`

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Media.Path = filepath.Join(dir, "media")
	cfg.Media.Watch = false
	cfg.SQLite.Path = filepath.Join(dir, "montage.db")
	if err := os.MkdirAll(filepath.Join(cfg.Media.Path, "footage"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Media.Path, "footage", "beach.mp4"), []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
}

func TestNewHandler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "secret"}

	rt, err := build(&application{config: cfg, logOutput: io.Discard})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(rt.close)

	srv := httptest.NewServer(NewHandler(rt.svc, rt.broker, rt.store.Root(), cfg.Auth))
	t.Cleanup(srv.Close)

	get := func(path, token string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	if resp := get("/health/live", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("live = %d", resp.StatusCode)
	}
	if resp := get("/api/project", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("project without token = %d, want 401", resp.StatusCode)
	}

	resp := get("/api/project", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("project = %d", resp.StatusCode)
	}
	var body struct {
		Project struct {
			Duration float64 `json:"duration"`
			Tracks   []any   `json:"tracks"`
		} `json:"project"`
		Zoom float64 `json:"zoom"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Project.Duration != 60 || len(body.Project.Tracks) != 2 || body.Zoom != 20 {
		t.Errorf("project = %+v", body)
	}

	resp = get("/api/assets", "secret")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assets = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `"total":1`) {
		t.Errorf("initial sync missing: %s", data)
	}

	resp = get("/media/footage/beach.mp4", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("media = %d", resp.StatusCode)
	}
	data, _ = io.ReadAll(resp.Body)
	if string(data) != "video" {
		t.Errorf("media body = %q", data)
	}
}

func TestBuild_AppliesTimelineConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeline.DefaultDuration = 90
	cfg.Timeline.Zoom.Default = 40

	rt, err := build(&application{config: cfg, logOutput: io.Discard})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(rt.close)

	ctx := context.Background()
	if d := rt.svc.Project(ctx).Duration; d != 90 {
		t.Errorf("duration = %v, want 90", d)
	}
	if z := rt.svc.Zoom(ctx); z != 40 {
		t.Errorf("zoom = %v, want 40", z)
	}
}

func writeDraft(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft_content.json")
	if err := os.WriteFile(path, []byte(testDraft), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvert(t *testing.T) {
	cfg := testConfig(t)

	p, report, err := Convert(context.Background(), writeDraft(t), WithConfig(cfg))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if report.Clips != 2 || report.Linked != 1 || len(report.Missing) != 0 {
		t.Errorf("report = %+v", report)
	}
	if p.Duration != 75 {
		t.Errorf("duration = %v, want 75", p.Duration)
	}
	if src := p.Tracks[0].Clips[0].MediaSrc; src != "/media/footage/beach.mp4" {
		t.Errorf("mediaSrc = %q", src)
	}

	if _, _, err := Convert(context.Background(), filepath.Join(t.TempDir(), "nope.json"), WithConfig(cfg)); err == nil {
		t.Error("missing draft should fail")
	}
}

func TestConvertEDL(t *testing.T) {
	cfg := testConfig(t)

	edl, err := ConvertEDL(context.Background(), writeDraft(t), "Beach Cut", 25, WithConfig(cfg))
	if err != nil {
		t.Fatalf("ConvertEDL: %v", err)
	}
	if !strings.HasPrefix(edl, "TITLE: Beach Cut\nFCM: NON-DROP FRAME\n") {
		t.Errorf("header:\n%s", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  beach.mp4") {
		t.Errorf("clip name missing:\n%s", edl)
	}
}
