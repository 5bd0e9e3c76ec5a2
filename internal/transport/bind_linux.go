//go:build linux

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// bindToDevice prende o socket à interface (equivalente ao CURLOPT_INTERFACE).
// Precisa de CAP_NET_RAW.
func bindToDevice(iface string) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, iface)
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}
