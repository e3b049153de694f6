// Package server exposes song rendering over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/export"
	"github.com/cwbudde/algo-compose/internal/names"
	"github.com/cwbudde/algo-compose/song"
	"github.com/cwbudde/algo-compose/synth"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server renders songs on request. All requests share one renderer, so
// repeated notes across songs are synthesized once.
type Server struct {
	plan     song.Plan
	renderer *song.Renderer
	kinds    []synth.Kind
	logger   *log.Logger
}

// New builds a server for plan. kinds is the instrument used when a request
// names none.
func New(plan song.Plan, renderer *song.Renderer, kinds []synth.Kind, logger *log.Logger) (*Server, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: no default instrument", compose.ErrConfig)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Server{plan: plan, renderer: renderer, kinds: kinds, logger: logger}, nil
}

// Handler returns the routed handler with permissive CORS for GET requests.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/songs/{name}.{format:wav|mid|json}", s.handleSong).Methods("GET")
	router.HandleFunc("/names", s.handleName).Methods("GET")
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cache := s.renderer.Cache()
	writeJSON(w, map[string]any{
		"status":    "ok",
		"buffers":   cache.Len(),
		"syntheses": cache.Syntheses(),
		"hits":      cache.Hits(),
	})
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"name": names.New()})
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, format := vars["name"], vars["format"]
	if !names.Valid(name) {
		http.Error(w, "invalid song name", http.StatusBadRequest)
		return
	}
	kinds, err := s.parseKinds(r.URL.Query().Get("instrument"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	sheet, tracks, err := song.Compose(r.Context(), s.plan, name)
	if err != nil {
		s.fail(w, name, err)
		return
	}
	cfg := s.renderer.Config()

	switch format {
	case "json":
		writeJSON(w, export.SheetDocument{Name: name, Key: cfg.Key, Tracks: tracks, Sheet: sheet})
	case "mid":
		cues, err := cfg.Cues(sheet)
		if err != nil {
			s.fail(w, name, err)
			return
		}
		opts := export.DefaultMIDIOptions()
		opts.Title = name
		opts.TickMillis = cfg.TickMillis
		var buf bytes.Buffer
		if err := export.WriteMIDI(&buf, cues, opts); err != nil {
			s.fail(w, name, err)
			return
		}
		w.Header().Set("Content-Type", "audio/midi")
		w.Write(buf.Bytes())
	case "wav":
		res, err := s.renderer.Render(r.Context(), sheet, kinds, nil)
		if err != nil {
			s.fail(w, name, err)
			return
		}
		if err := s.serveWAV(w, r, name, res); err != nil {
			s.fail(w, name, err)
			return
		}
	}
	s.logger.Printf("served %s.%s in %s", name, format, time.Since(start).Round(time.Millisecond))
}

// serveWAV encodes through a temporary file since the encoder needs to seek.
func (s *Server) serveWAV(w http.ResponseWriter, r *http.Request, name string, res *song.Result) error {
	f, err := os.CreateTemp("", "songgen-*.wav")
	if err != nil {
		return fmt.Errorf("%w: %v", export.ErrIO, err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	cfg := s.renderer.Config()
	maxAmp := cfg.Synth.MaxAmplitude()
	if err := export.WriteWAV(f, res.Wave.Float32(maxAmp), res.SampleRate, res.BitDepth); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("%w: %v", export.ErrIO, err)
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeContent(w, r, name+".wav", time.Time{}, f)
	return nil
}

func (s *Server) parseKinds(raw string) ([]synth.Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return s.kinds, nil
	}
	var kinds []synth.Kind
	for _, part := range strings.Split(raw, ",") {
		k, err := synth.ParseKind(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (s *Server) fail(w http.ResponseWriter, name string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, compose.ErrConfig), errors.Is(err, synth.ErrSynthesis):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, compose.ErrSamplingExhausted):
		status = http.StatusConflict
	}
	s.logger.Printf("song %s: %v", name, err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
