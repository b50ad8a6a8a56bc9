// Package api exposes a canvas over HTTP. One scene is served per process;
// all handlers funnel through a single mutex, so the canvas only ever sees
// one mutation at a time.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/scene"
)

// Server serves a single scene over HTTP.
type Server struct {
	mu     sync.Mutex
	name   string
	built  *scene.Built
	logger *log.Logger
}

// NewServer wraps a built scene. logger may be nil.
func NewServer(name string, b *scene.Built, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{name: name, built: b, logger: logger}
}

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/scene", s.handleScene)
	r.Post("/update", s.handleUpdate)

	r.Route("/items", func(r chi.Router) {
		r.Post("/elements", s.handleAddElement)
		r.Post("/lines", s.handleAddLine)
		r.Delete("/{name}", s.handleRemoveItem)
		r.Post("/{name}/move", s.handleMove)
		r.Post("/{name}/handles/{index}", s.handleMoveHandle)
	})
	r.Post("/constraints", s.handleAddConstraint)
	r.Post("/connections", s.handleConnect)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeScene(w)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.built.Canvas.UpdateNow(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeScene(w)
}

type elementRequest struct {
	Name      string    `json:"name"`
	Position  []float64 `json:"position"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	MinWidth  *float64  `json:"min_width"`
	MinHeight *float64  `json:"min_height"`
	Parent    string    `json:"parent"`
}

func (s *Server) handleAddElement(w http.ResponseWriter, r *http.Request) {
	var req elementRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.built.AddElement(scene.Element{
		Name:      req.Name,
		Position:  req.Position,
		Width:     req.Width,
		Height:    req.Height,
		MinWidth:  req.MinWidth,
		MinHeight: req.MinHeight,
		Parent:    req.Parent,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("element added", "name", req.Name)
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

type lineRequest struct {
	Name       string      `json:"name"`
	Points     [][]float64 `json:"points"`
	Orthogonal bool        `json:"orthogonal"`
	Horizontal bool        `json:"horizontal"`
	Parent     string      `json:"parent"`
}

func (s *Server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.built.AddLine(scene.Line{
		Name:       req.Name,
		Points:     req.Points,
		Orthogonal: req.Orthogonal,
		Horizontal: req.Horizontal,
		Parent:     req.Parent,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("line added", "name", req.Name)
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.built.RemoveItem(name); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("item removed", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.built.Item(name)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeItemNotFound, "no item %q", name))
		return
	}
	it.SetMatrix(geom.Translation(req.X, req.Y))
	s.built.Canvas.RequestMatrixUpdate(it)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveHandle(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}
	name := chi.URLParam(r, "name")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "bad handle index %q", chi.URLParam(r, "index")))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.built.Item(name)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeItemNotFound, "no item %q", name))
		return
	}
	handles := it.Handles()
	if index < 0 || index >= len(handles) {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "item %q has no handle %d", name, index))
		return
	}
	handles[index].SetPos(geom.Point{X: req.X, Y: req.Y})
	s.built.Canvas.RequestUpdate(it)
	w.WriteHeader(http.StatusNoContent)
}

type constraintRequest struct {
	Kind  string  `json:"kind"`
	A     string  `json:"a"`
	B     string  `json:"b"`
	V     string  `json:"v"`
	Delta float64 `json:"delta"`
}

func (s *Server) handleAddConstraint(w http.ResponseWriter, r *http.Request) {
	var req constraintRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.built.AddConstraint(scene.Constraint{
		Kind: req.Kind, A: req.A, B: req.B, V: req.V, Delta: req.Delta,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type connectionRequest struct {
	Line   string `json:"line"`
	Handle int    `json:"handle"`
	Item   string `json:"item"`
	Port   int    `json:"port"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.built.Connect(scene.Connection{
		Line: req.Line, Handle: req.Handle, Item: req.Item, Port: req.Port,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// writeScene is called with the mutex held.
func (s *Server) writeScene(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.built.WriteJSON(s.name, w); err != nil {
		s.logger.Error("write scene", "err", err)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScene, errors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeItemNotFound, errors.ErrCodeNotRegistered:
		status = http.StatusNotFound
	case errors.ErrCodeJuggle, errors.ErrCodeUpdateCycleLimit:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    string(code),
			"message": errors.UserMessage(err),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
