package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/PetoAdam/homenavi/weather-widget/internal/session"
	"github.com/PetoAdam/homenavi/weather-widget/internal/widget"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	sessions  *session.Registry
	newWidget func() *widget.Widget
	upgrader  websocket.Upgrader
}

func NewServer(sessions *session.Registry, newWidget func() *widget.Widget) *Server {
	return &Server{
		sessions:  sessions,
		newWidget: newWidget,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/widget", func(r chi.Router) {
		r.Get("/weather", s.handleLookup)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/search", s.handleSearch)
			r.Get("/stream", s.handleStream)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type searchRequest struct {
	Query string `json:"query"`
}

// handleLookup runs a single search on a throwaway widget.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	view := s.newWidget().Search(r.Context(), r.URL.Query().Get("city"))
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, wg := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id.String(), "view": wg.View()})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, *widget.Widget, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return uuid.Nil, nil, false
	}
	wg, ok := s.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return uuid.Nil, nil, false
	}
	return id, wg, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	_, wg, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wg.View())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch always answers 200 once the session exists; search failures
// are part of the returned view.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	_, wg, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	writeJSON(w, http.StatusOK, wg.Search(r.Context(), req.Query))
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, wg, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch, cancel := wg.Subscribe()
	defer cancel()

	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(wg.View()); err != nil {
		return
	}

	// Read pump just to detect disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(2*time.Second)); err != nil {
				return
			}
			// Keep an open stream from expiring the session.
			if _, ok := s.sessions.Get(id); !ok {
				return
			}
		case view, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(view); err != nil {
				slog.Debug("ws write failed", "error", err)
				return
			}
		}
	}
}
