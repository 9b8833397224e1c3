// Package lspwire is the stdio JSON-RPC transport and LSP wire types
// the server command speaks. Grounded on odvcencio-mane/lsp/client.go's
// jsonrpcRequest/jsonrpcResponse/Content-Length framing and
// lsp/protocol.go's Position/Range/Location — that package implements
// an LSP *client* (mane drives an external clangd-like server); this
// package inverts the same framing and wire shapes to speak the server
// role instead.
package lspwire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/metal-analyzer/metal-analyzer/internal/navigation"
)

// Position is a 0-based UTF-16 line/character pair.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location names a file and a range within it.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// Request is an inbound JSON-RPC request or notification; ID is nil
// for notifications.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is an outbound JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError mirrors the JSON-RPC error object.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notification is an outbound notification (server-to-client push,
// e.g. textDocument/publishDiagnostics or $/progress).
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Reader decodes Content-Length-framed JSON-RPC messages from stdin,
// the server-side mirror of client.go's readMessage.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

func (r *Reader) Read() (Request, error) {
	contentLength := -1
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			return Request{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			val := strings.TrimSpace(line[len("content-length:"):])
			n, err := strconv.Atoi(val)
			if err == nil {
				contentLength = n
			}
		}
	}
	if contentLength < 0 {
		return Request{}, fmt.Errorf("lspwire: missing Content-Length header")
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, fmt.Errorf("lspwire: decoding request: %w", err)
	}
	return req, nil
}

// Writer encodes Content-Length-framed JSON-RPC messages to stdout,
// the server-side mirror of client.go's sendMessage.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := io.WriteString(w.w, header); err != nil {
		return err
	}
	_, err = w.w.Write(data)
	return err
}

func (w *Writer) WriteResult(id json.RawMessage, result any) error {
	return w.write(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (w *Writer) WriteError(id json.RawMessage, code int, message string) error {
	return w.write(Response{JSONRPC: "2.0", ID: id, Error: &ResponseError{Code: code, Message: message}})
}

func (w *Writer) WriteNotification(method string, params any) error {
	return w.write(Notification{JSONRPC: "2.0", Method: method, Params: params})
}

// FromNavLocation converts a resolver location into its wire shape.
// navigation.Location carries a bare filesystem path; callers are
// expected to have already turned that into a file:// URI upstream if
// needed (this package doesn't own URI<->path policy).
func FromNavLocation(loc navigation.Location, uri string) Location {
	return Location{
		URI: uri,
		Range: Range{
			Start: Position{Line: loc.Range.Start.Line, Character: loc.Range.Start.Character},
			End:   Position{Line: loc.Range.End.Line, Character: loc.Range.End.Character},
		},
	}
}

// FromNavTarget converts a resolver Target to the wire result LSP
// expects: null for no match, a single Location for one match, an
// array for several. toURI maps a navigation.Location's File field to
// a document URI (file:// scheme).
func FromNavTarget(target navigation.Target, toURI func(file string) string) any {
	if len(target) == 0 {
		return nil
	}
	if len(target) == 1 {
		return FromNavLocation(target[0], toURI(target[0].File))
	}
	out := make([]Location, len(target))
	for i, loc := range target {
		out[i] = FromNavLocation(loc, toURI(loc.File))
	}
	return out
}
