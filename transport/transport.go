// Package transport exposes the FD daemon's local control plane: a
// process_message/session_status/ping HTTP API served over a
// Unix domain socket or, on Windows, a go-winio named pipe, the same
// split kryptco-kr keeps between socket_unix.go and socket_windows.go,
// repurposed from "talk to krd" to "talk to pldm-fd".
package transport

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/cerberusfw/pldm/dispatch"
)

// MessageHandler answers process_message requests. It is the dispatcher's
// ProcessMessage method in production and a stub in tests.
type MessageHandler interface {
	ProcessMessage(eid uint8, msg []byte) dispatch.Result
}

// ControlListener serves the local control plane API over listener,
// which a platform-specific Listen function has already bound.
type ControlListener struct {
	handler  MessageHandler
	upgrader websocket.Upgrader

	subscriber chan []byte
}

// NewControlListener wires handler (normally a *dispatch.Dispatcher) into
// a ControlListener ready to Serve.
func NewControlListener(handler MessageHandler) *ControlListener {
	return &ControlListener{
		handler:    handler,
		subscriber: make(chan []byte, 16),
	}
}

type processMessageRequest struct {
	PeerEID uint8  `json:"peer_eid"`
	Message []byte `json:"message"`
}

type processMessageResponse struct {
	Outcome string `json:"outcome"`
	Message []byte `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func outcomeName(o dispatch.Outcome) string {
	switch o {
	case dispatch.Emit:
		return "emit"
	case dispatch.NoReply:
		return "no_reply"
	default:
		return "error"
	}
}

func (c *ControlListener) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req processMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	result := c.handler.ProcessMessage(req.PeerEID, req.Message)
	resp := processMessageResponse{Outcome: outcomeName(result.Outcome), Message: result.Message}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	c.publishStatus(req.PeerEID, resp)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type sessionStatusEvent struct {
	PeerEID uint8  `json:"peer_eid"`
	Outcome string `json:"outcome"`
}

// publishStatus queues a process_message outcome on the single
// session_status channel. Each queued event goes to exactly one
// connected websocket reader; it is not copied to every subscriber. A
// full channel drops the update rather than blocking the control path.
func (c *ControlListener) publishStatus(peer uint8, resp processMessageResponse) {
	body, err := json.Marshal(sessionStatusEvent{PeerEID: peer, Outcome: resp.Outcome})
	if err != nil {
		return
	}
	select {
	case c.subscriber <- body:
	default:
	}
}

func (c *ControlListener) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("session_status upgrade:", err)
		return
	}
	defer conn.Close()
	for body := range c.subscriber {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			return
		}
	}
}

func (c *ControlListener) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Serve blocks, handling process_message and session_status requests on
// listener until it is closed.
func (c *ControlListener) Serve(listener net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/process_message", c.handleProcessMessage)
	mux.HandleFunc("/session_status", c.handleSessionStatus)
	mux.HandleFunc("/ping", c.handlePing)
	return http.Serve(listener, mux)
}
