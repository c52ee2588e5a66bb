package transport

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/cerberusfw/pldm/dispatch"
)

type stubHandler struct {
	result dispatch.Result
}

func (s stubHandler) ProcessMessage(eid uint8, msg []byte) dispatch.Result {
	return s.result
}

func TestProcessMessageRoundTrip(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	cl := NewControlListener(stubHandler{result: dispatch.Result{Outcome: dispatch.Emit, Message: []byte{0x01, 0x02}}})
	go cl.Serve(listener)
	time.Sleep(10 * time.Millisecond)

	body, _ := json.Marshal(map[string]interface{}{"peer_eid": 1, "message": []byte{0xAA}})
	resp, err := http.Post("http://"+listener.Addr().String()+"/process_message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var decoded processMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Outcome != "emit" {
		t.Fatalf("expected emit outcome, got %q", decoded.Outcome)
	}
	if !bytes.Equal(decoded.Message, []byte{0x01, 0x02}) {
		t.Fatalf("unexpected message: %v", decoded.Message)
	}
}

func TestPing(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	cl := NewControlListener(stubHandler{})
	go cl.Serve(listener)
	time.Sleep(10 * time.Millisecond)

	resp, err := http.Get("http://" + listener.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
