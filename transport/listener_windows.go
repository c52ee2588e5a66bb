//go:build windows

package transport

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// Listen binds the FD daemon's control plane at path, a Windows named
// pipe, mirroring kryptco-kr's npipe-backed DaemonListen but on top of
// go-winio so the pipe gets a real security descriptor instead of the
// default (everyone-accessible) one.
func Listen(path string) (net.Listener, error) {
	return winio.ListenPipe(path, &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;AU)",
		MessageMode:        false,
	})
}

// Dial connects to a named pipe bound with Listen, mirroring
// kryptco-kr's npipe-backed DaemonDial.
func Dial(path string) (net.Conn, error) {
	return winio.DialPipe(path, nil)
}
