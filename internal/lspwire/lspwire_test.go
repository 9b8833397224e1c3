package lspwire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/metal-analyzer/metal-analyzer/internal/navigation"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteResult(json.RawMessage("1"), map[string]string{"ok": "yes"}); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	req, err := r.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if req.Method != "" {
		t.Fatalf("round-tripped a response through Request decoding unexpectedly got method %q", req.Method)
	}
	if string(req.ID) != "1" {
		t.Fatalf("ID = %q, want \"1\"", req.ID)
	}
}

func TestReadHonorsContentLength(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":7,"method":"textDocument/hover","params":{}}`
	framed := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
	r := NewReader(bytes.NewReader([]byte(framed)))

	req, err := r.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if req.Method != "textDocument/hover" {
		t.Fatalf("Method = %q, want textDocument/hover", req.Method)
	}
	if req.IsNotification() {
		t.Fatalf("IsNotification() = true for a request carrying an id")
	}
}

func TestReadMissingContentLengthErrors(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("\r\n{}")))
	if _, err := r.Read(); err == nil {
		t.Fatalf("Read() error = nil, want an error for a missing Content-Length header")
	}
}

func TestNotificationHasNoID(t *testing.T) {
	req := Request{Method: "textDocument/didOpen"}
	if !req.IsNotification() {
		t.Fatalf("IsNotification() = false for a request with no id")
	}
}

func TestFromNavTargetShapesByCardinality(t *testing.T) {
	toURI := func(file string) string { return "file://" + file }

	if got := FromNavTarget(nil, toURI); got != nil {
		t.Fatalf("FromNavTarget(nil) = %v, want nil", got)
	}

	one := navigation.Single(navigation.Location{File: "/a.metal"})
	single, ok := FromNavTarget(one, toURI).(Location)
	if !ok {
		t.Fatalf("FromNavTarget() with one location did not return a bare Location")
	}
	if single.URI != "file:///a.metal" {
		t.Fatalf("URI = %q, want file:///a.metal", single.URI)
	}

	many := navigation.FromLocations([]navigation.Location{{File: "/a.metal"}, {File: "/b.metal"}})
	list, ok := FromNavTarget(many, toURI).([]Location)
	if !ok {
		t.Fatalf("FromNavTarget() with two locations did not return a slice")
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
}
