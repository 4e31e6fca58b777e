package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	loctek "github.com/bxjrke/loctekbridge"
)

// Desk is the part of the bridge the HTTP surface drives.
type Desk interface {
	SendUp()
	SendDown()
	SendStop()
	SendWakeUp()
	SendCommand(loctek.Frame)
	Control(loctek.CoverCall)
	Traits() loctek.CoverTraits
	EnableActive() bool
}

// Server routes HTTP requests to the desk and its virtual triggers.
type Server struct {
	Desk  Desk
	Board *Board
	Wake  *Switch
	// Buttons are the M button and the preset buttons, in display order.
	Buttons []*Button
}

type stateResponse struct {
	Operation    string             `json:"operation"`
	Awake        bool               `json:"awake"`
	EnableActive bool               `json:"enable_active"`
	Traits       loctek.CoverTraits `json:"traits"`
}

type coverRequest struct {
	Stop     bool     `json:"stop"`
	Position *float64 `json:"position,omitempty"`
}

type switchRequest struct {
	On bool `json:"on"`
}

type commandRequest struct {
	Data string `json:"data"`
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "service": "deskbridge"})
	})

	r.Route("/desk", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Post("/up", s.action(s.Desk.SendUp, "up"))
		r.Post("/down", s.action(s.Desk.SendDown, "down"))
		r.Post("/stop", s.action(s.Desk.SendStop, "stop"))
		r.Post("/wake", s.action(s.Desk.SendWakeUp, "wake"))
		r.Post("/cover", s.postCover)
		r.Post("/command", s.postCommand)

		r.Get("/buttons", s.listButtons)
		r.Post("/buttons/{name}/press", s.pressButton)
		r.Post("/switches/wake", s.setWake)
	})

	return r
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		Operation:    loctek.Idle.String(),
		EnableActive: s.Desk.EnableActive(),
		Traits:       s.Desk.Traits(),
	}
	if s.Board != nil {
		op, awake := s.Board.Snapshot()
		resp.Operation = op.String()
		resp.Awake = awake
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) action(fn func(), name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn()
		successResponse(w, "sent "+name)
	}
}

func (s *Server) postCover(w http.ResponseWriter, r *http.Request) {
	r = limitBody(r, 1<<10)

	var req coverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Stop && req.Position == nil {
		errorResponse(w, http.StatusBadRequest, "stop or position is required")
		return
	}
	if req.Position != nil && *req.Position != 0 && *req.Position != 1 {
		errorResponse(w, http.StatusUnprocessableEntity, "only positions 0 and 1 are supported, use presets")
		return
	}

	s.Desk.Control(loctek.CoverCall{Stop: req.Stop, Position: req.Position})
	successResponse(w, "cover call sent")
}

func (s *Server) postCommand(w http.ResponseWriter, r *http.Request) {
	r = limitBody(r, 1<<10)

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	frame, ok := loctek.Lookup(req.Data)
	if !ok {
		var err error
		if frame, err = loctek.ParseFrame(req.Data); err != nil {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.Desk.SendCommand(frame)
	successResponse(w, "sent "+frame.String())
}

func (s *Server) listButtons(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.Buttons))
	for _, b := range s.Buttons {
		names = append(names, b.Name())
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"buttons": names})
}

func (s *Server) pressButton(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, b := range s.Buttons {
		if b.Name() == name {
			b.Press()
			successResponse(w, "pressed "+name)
			return
		}
	}
	errorResponse(w, http.StatusNotFound, "no button named "+name)
}

func (s *Server) setWake(w http.ResponseWriter, r *http.Request) {
	if s.Wake == nil {
		errorResponse(w, http.StatusNotFound, "no wake switch configured")
		return
	}
	r = limitBody(r, 1<<10)

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.Wake.Set(req.On)
	jsonResponse(w, http.StatusOK, map[string]bool{"on": s.Wake.On()})
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

func successResponse(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"message": message,
	})
}

func limitBody(r *http.Request, maxBytes int64) *http.Request {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	return r
}
