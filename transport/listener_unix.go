//go:build !windows

package transport

import (
	"net"
	"os"
)

// Listen binds the FD daemon's control socket at path, a Unix domain
// socket. Any stale socket file from an unclean shutdown is removed
// first, mirroring kryptco-kr's DaemonListen.
func Listen(path string) (net.Listener, error) {
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to a control socket bound with Listen, mirroring
// kryptco-kr's DaemonDial.
func Dial(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}
