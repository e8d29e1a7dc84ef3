package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize       = 256
	maxQRContent = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", serveWS(hub)).Methods("GET")
	r.HandleFunc("/api/leaderboard", leaderboardHandler(hub.db)).Methods("GET")
	r.HandleFunc("/qr", qrHandler).Methods("GET")
	r.HandleFunc("/healthz", healthHandler(hub)).Methods("GET")

	return r
}

func serveWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		if !hub.Register(client) {
			// game already stopped
			hub.TrackDisconnect(ip)
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

func leaderboardHandler(db *DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLeaderboardLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries := []LeaderboardEntry{}
		if db != nil {
			var err error
			entries, err = db.Leaderboard(limit)
			if err != nil {
				log.Printf("leaderboard error: %v", err)
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, entries)
	}
}

// qrHandler renders a join link as a PNG for phones
func qrHandler(w http.ResponseWriter, r *http.Request) {
	content := r.URL.Query().Get("url")
	if content == "" || len(content) > maxQRContent {
		http.Error(w, "url parameter required", http.StatusBadRequest)
		return
	}
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("qr encode error: %v", err)
		http.Error(w, "could not encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

type healthResponse struct {
	Status string `json:"status"`
	GameStats
	Conns int `json:"conns"`
}

func healthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, healthResponse{
			Status:    "ok",
			GameStats: hub.game.Stats(),
			Conns:     hub.TotalConns(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response error: %v", err)
	}
}
