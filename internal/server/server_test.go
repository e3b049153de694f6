package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/export"
	"github.com/cwbudde/algo-compose/song"
	"github.com/cwbudde/algo-compose/synth"
	"gitlab.com/gomidi/midi/v2/smf"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	plan := song.Plan{
		Stages: []song.Stage{
			{Role: "lead", Params: compose.DefaultParams()},
			{Role: "low", Seed: "low", Counterpoint: true, Against: []string{"lead"},
				Params: compose.DefaultParams(), MaxDissonance: 3, Harmonic: compose.HarmonicIntervals, Transpose: -12},
		},
		Output: []string{"lead", "low"},
	}
	cfg := song.DefaultConfig()
	cfg.TickMillis = 10
	cfg.Synth.SampleRate = 8000
	r, err := song.NewRenderer(cfg)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	s, err := New(plan, r, []synth.Kind{synth.Square}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestSongJSONIsDeterministic(t *testing.T) {
	ts := newTestServer(t)
	resp, a := get(t, ts.URL+"/songs/quiet-heron.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status mismatch: got=%d body=%s", resp.StatusCode, a)
	}
	_, b := get(t, ts.URL+"/songs/quiet-heron.json")
	if !bytes.Equal(a, b) {
		t.Fatalf("same name served different sheets")
	}
	var doc export.SheetDocument
	if err := json.Unmarshal(a, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Name != "quiet-heron" || len(doc.Sheet) != 2 || doc.Sheet[1].Notes[0].Pitch != -12 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestSongWAVAndMIDI(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/songs/quiet-heron.wav?instrument=sine,guitar")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wav status: got=%d body=%s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Fatalf("content type mismatch: got=%q", ct)
	}
	if len(body) < 44 || string(body[:4]) != "RIFF" || string(body[8:12]) != "WAVE" {
		t.Fatalf("expected a RIFF/WAVE body, got %d bytes", len(body))
	}

	resp, body = get(t, ts.URL+"/songs/quiet-heron.mid")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mid status: got=%d body=%s", resp.StatusCode, body)
	}
	s, err := smf.ReadFrom(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(s.Tracks) != 3 {
		t.Fatalf("track count mismatch: got=%d want=3", len(s.Tracks))
	}
}

func TestSongRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)
	if resp, _ := get(t, ts.URL+"/songs/x.wav?instrument=theremin"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown instrument: got=%d want=400", resp.StatusCode)
	}
	if resp, _ := get(t, ts.URL+"/songs/x.flac"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown format: got=%d want=404", resp.StatusCode)
	}
}

func TestHealthAndNames(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Fatalf("unexpected health response: %d %s", resp.StatusCode, body)
	}
	resp, body = get(t, ts.URL+"/names")
	var out map[string]string
	if err := json.Unmarshal(body, &out); err != nil || out["name"] == "" {
		t.Fatalf("unexpected names response: %d %s", resp.StatusCode, body)
	}
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin mismatch: got=%q want=*", got)
	}
}
