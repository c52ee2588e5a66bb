package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/cerberusfw/pldm/dispatch"
)

// Client talks to a running pldm-fd's control plane over the socket at
// path, the UA-side counterpart of ControlListener, mirroring
// kryptco-kr's DaemonDial/pingDaemon split between listener and client.
type Client struct {
	path string
	http *http.Client
}

// NewClient targets the control socket at path. Dialing happens lazily
// per request, the same as kryptco-kr's DaemonDial being called fresh
// on every daemon round trip rather than held open.
func NewClient(path string) *Client {
	c := &Client{path: path}
	c.http = &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return Dial(path)
			},
		},
	}
	return c
}

// ProcessMessage sends msg to peer eid through the daemon's
// process_message endpoint and returns its outcome and reply bytes.
func (c *Client) ProcessMessage(eid uint8, msg []byte) (dispatch.Outcome, []byte, error) {
	body, err := json.Marshal(map[string]interface{}{"peer_eid": eid, "message": msg})
	if err != nil {
		return dispatch.ErrorOutcome, nil, err
	}
	resp, err := c.http.Post("http://pldm-fd/process_message", "application/json", bytes.NewReader(body))
	if err != nil {
		return dispatch.ErrorOutcome, nil, err
	}
	defer resp.Body.Close()

	var decoded processMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return dispatch.ErrorOutcome, nil, err
	}
	if decoded.Error != "" {
		return dispatch.ErrorOutcome, decoded.Message, fmt.Errorf("%s", decoded.Error)
	}
	outcome := dispatch.Emit
	if decoded.Outcome == "no_reply" {
		outcome = dispatch.NoReply
	}
	return outcome, decoded.Message, nil
}

// Ping checks that the daemon is reachable, the UA-side equivalent of
// kryptco-kr's pingDaemon.
func (c *Client) Ping() error {
	resp, err := c.http.Get("http://pldm-fd/ping")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}
