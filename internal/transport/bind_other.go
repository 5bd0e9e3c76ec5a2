//go:build !linux

package transport

import (
	"fmt"
	"syscall"
)

func bindToDevice(iface string) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		return fmt.Errorf("binding to interface %s is only supported on linux", iface)
	}
}
