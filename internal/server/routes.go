package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.ListRoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomCode}/qr", s.RoomQRHandler).Methods(http.MethodGet)

	r.HandleFunc("/ws/{roomCode}", s.hub.HandleWebSocket)

	r.HandleFunc("/api/questions", s.ListQuestionsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/questions", s.CreateQuestionHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/questions/{id}", s.GetQuestionHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/questions/{id}", s.UpdateQuestionHandler).Methods(http.MethodPut)
	r.HandleFunc("/api/questions/{id}", s.DeleteQuestionHandler).Methods(http.MethodDelete)
	r.HandleFunc("/api/categories", s.ListCategoriesHandler).Methods(http.MethodGet)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRoomsHandler serves the lobby browser: every room in the catalog
// with its live occupancy and joinability.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.ListRooms())
}

// RoomQRHandler renders a PNG QR code pointing at the room's join URL,
// for sharing a lobby to phones.
func (s *Server) RoomQRHandler(w http.ResponseWriter, r *http.Request) {
	roomCode := mux.Vars(r)["roomCode"]
	if _, ok := s.registry.GetRoom(roomCode); !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	joinURL := strings.TrimSuffix(base, "/") + "/join/" + roomCode

	const qrSize = 320
	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[writeJSON] encode failed: %v", err)
	}
}
