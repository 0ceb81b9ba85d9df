package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/StageGo/internal/dmx"
	"github.com/cjeanneret/StageGo/internal/logic/fixture"
	"github.com/cjeanneret/StageGo/internal/logic/show"
)

// maxBodyBytes caps request bodies accepted by POST handlers.
const maxBodyBytes = 1 << 20

// Controller is the part of show.Runner the handlers drive.
type Controller interface {
	SetTarget(name string, pan, tilt float64) error
	Start(seq *show.Sequence) (<-chan struct{}, error)
	Snapshot() show.Frame
	Universe() dmx.Universe
}

// TargetRequest is the body of POST /target. Pan and tilt are fractions (0-1).
type TargetRequest struct {
	Fixture string  `json:"fixture"`
	Pan     float64 `json:"pan"`
	Tilt    float64 `json:"tilt"`
}

// FixtureInfo describes a patched fixture for the UI.
type FixtureInfo struct {
	Name    string        `json:"name"`
	Model   string        `json:"model"`
	Address int           `json:"address"`
	Profile dmx.Profile   `json:"profile"`
	Pan     fixture.Range `json:"pan"`
	Tilt    fixture.Range `json:"tilt"`
}

// FormConfig holds the static rig description served by GET /config.
type FormConfig struct {
	Fixtures []FixtureInfo `json:"fixtures"`
	Cues     []string      `json:"cues"`
	TickHz   int           `json:"tick_hz"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster  *StatusBroadcaster
	Controller   Controller
	Cues         []show.Cue
	FormDefaults FormConfig

	telemetryInterval time.Duration
	upgrader          websocket.Upgrader
	staticFS          fs.FS

	// stop releases goroutines that outlive their request.
	stop     chan struct{}
	stopOnce sync.Once
	watchers sync.WaitGroup
}

// NewHandlers creates handlers with the given dependencies.
// If cues is empty, POST /run will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, ctrl Controller, cues []show.Cue, formDefaults FormConfig, telemetryInterval time.Duration, staticFS fs.FS) *Handlers {
	if telemetryInterval <= 0 {
		telemetryInterval = 50 * time.Millisecond
	}
	return &Handlers{
		Broadcaster:       broadcaster,
		Controller:        ctrl,
		Cues:              cues,
		FormDefaults:      formDefaults,
		telemetryInterval: telemetryInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the control UI may be served from another host on the show network
			},
		},
		staticFS: staticFS,
		stop:     make(chan struct{}),
	}
}

// Close stops background watchers started by handlers and waits for them.
// Call it once the HTTP server no longer dispatches requests.
func (h *Handlers) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
	h.watchers.Wait()
}

// ValidateTarget checks a target request before it reaches the controller.
func ValidateTarget(req TargetRequest) error {
	if req.Fixture == "" {
		return fmt.Errorf("fixture is required")
	}
	if !validFraction(req.Pan) {
		return fmt.Errorf("pan must be between 0 and 1")
	}
	if !validFraction(req.Tilt) {
		return fmt.Errorf("tilt must be between 0 and 1")
	}
	return nil
}

func validFraction(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// HandleConfig returns the rig description as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.FormDefaults)
}

// HandleState returns the latest state of every fixture.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Controller.Snapshot())
}

// HandleDMX returns the last encoded universe, one value per channel.
func (h *Handlers) HandleDMX(w http.ResponseWriter, r *http.Request) {
	u := h.Controller.Universe()
	channels := make([]int, dmx.UniverseSize)
	for ch := 1; ch <= dmx.UniverseSize; ch++ {
		channels[ch-1] = int(u.Get(ch))
	}
	writeJSON(w, http.StatusOK, map[string][]int{"channels": channels})
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleTarget handles POST /target to command a fixture.
func (h *Handlers) HandleTarget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := ValidateTarget(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Controller.SetTarget(req.Fixture, req.Pan, req.Tilt); err != nil {
		if errors.Is(err, show.ErrUnknownFixture) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "moving"})
}

// HandleRun handles POST /run to play the configured cue list.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if len(h.Cues) == 0 {
		http.Error(w, "no cues configured", http.StatusServiceUnavailable)
		return
	}

	done, err := h.Controller.Start(show.NewSequence(h.Cues))
	if errors.Is(err, show.ErrBusy) {
		http.Error(w, "cue list already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The runner may stop before the cue list ends; stop covers that.
	h.watchers.Add(1)
	go func() {
		defer h.watchers.Done()
		select {
		case <-done:
			h.Broadcaster.BroadcastMsg("Sequence complete")
		case <-h.stop:
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()
		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// HandleTelemetry handles GET /ws: it pushes a show.Frame as JSON every
// telemetry interval until the client goes away.
func (h *Handlers) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Reader: only there to notice the client closing and to answer pings.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(4096)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket read: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.telemetryInterval)
	defer ticker.Stop()

	for {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(h.Controller.Snapshot()); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-r.Context().Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
