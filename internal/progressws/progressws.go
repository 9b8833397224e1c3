// Package progressws is an optional, off-by-default debug bridge: a
// browser panel connects over WebSocket, receives whatever notifications
// are sent through Broadcast/BroadcastProgress, and can call a small RPC
// surface to inspect open documents. Grounded on odvcencio-mane/web/server.go's Server/
// wsClient/rpcRequest/handleWebSocket/handleRPC/Broadcast shape,
// retargeted from editor buffer RPCs to analyzer inspection RPCs.
package progressws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/metal-analyzer/metal-analyzer/internal/logging"
)

// Inspector is the subset of server state the debug bridge can read.
// It never mutates documents, unlike the teacher's EditorState (whose
// RPCs include writeBuffer/saveFile) — this bridge is read-only.
type Inspector interface {
	OpenURIs() []string
	DocumentText(uri string) (string, bool)
	FileIndexingState(uri string) (generation uint64, cached bool)
}

// Server upgrades /ws and fans JSON progress frames out to every
// connected client.
type Server struct {
	inspector Inspector
	log       *logging.Logger
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients []*wsClient
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     any       `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// New builds a debug bridge backed by inspector. log may be nil, in
// which case failures are dropped silently (mirrors the teacher's own
// best-effort WriteMessage error handling).
func New(inspector Inspector, log *logging.Logger) *Server {
	return &Server{
		inspector: inspector,
		log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Debugf(format, args...)
	}
}

// ServeHTTP handles the single /ws upgrade endpoint; unlike the
// teacher's Server, this bridge has no static file surface to serve.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ws" {
		http.NotFound(w, r)
		return
	}
	s.handleWebSocket(w, r)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("websocket upgrade: %v", err)
		return
	}
	client := &wsClient{conn: conn}
	s.mu.Lock()
	s.clients = append(s.clients, client)
	s.mu.Unlock()

	defer func() {
		conn.Close()
		s.mu.Lock()
		for i, c := range s.clients {
			if c == client {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		resp := s.handleRPC(req)
		data, err := json.Marshal(resp)
		if err != nil {
			continue
		}
		client.mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()
	}
}

func (s *Server) handleRPC(req rpcRequest) rpcResponse {
	switch req.Method {
	case "listOpenFiles":
		return s.rpcListOpenFiles(req)
	case "readDocument":
		return s.rpcReadDocument(req)
	case "indexingState":
		return s.rpcIndexingState(req)
	default:
		return rpcResponse{
			ID:    req.ID,
			Error: &rpcError{Code: -32601, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}
	}
}

func (s *Server) rpcListOpenFiles(req rpcRequest) rpcResponse {
	return rpcResponse{ID: req.ID, Result: map[string]any{"uris": s.inspector.OpenURIs()}}
}

func (s *Server) rpcReadDocument(req rpcRequest) rpcResponse {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return rpcResponse{ID: req.ID, Error: &rpcError{Code: -32602, Message: err.Error()}}
	}
	text, ok := s.inspector.DocumentText(p.URI)
	if !ok {
		return rpcResponse{ID: req.ID, Error: &rpcError{Code: -32000, Message: "document not open: " + p.URI}}
	}
	return rpcResponse{ID: req.ID, Result: map[string]string{"text": text}}
}

func (s *Server) rpcIndexingState(req rpcRequest) rpcResponse {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return rpcResponse{ID: req.ID, Error: &rpcError{Code: -32602, Message: err.Error()}}
	}
	gen, cached := s.inspector.FileIndexingState(p.URI)
	return rpcResponse{ID: req.ID, Result: map[string]any{"generation": gen, "cached": cached}}
}

// ProgressEvent mirrors the payload shape of an LSP $/progress
// notification closely enough that the debug panel can reuse the same
// renderer for both transports.
type ProgressEvent struct {
	Token   string `json:"token"`
	Kind    string `json:"kind"` // "begin", "report", "end"
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Percent int    `json:"percentage,omitempty"`
}

// Broadcast sends a named notification to every connected client.
// BroadcastProgress uses it for "indexing/progress" frames.
func (s *Server) Broadcast(method string, params any) {
	msg, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	clients := append([]*wsClient(nil), s.clients...)
	s.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
		c.mu.Unlock()
	}
}

// BroadcastProgress is a typed convenience wrapper over Broadcast for
// ProgressEvent payloads.
func (s *Server) BroadcastProgress(ev ProgressEvent) {
	s.Broadcast("indexing/progress", ev)
}
