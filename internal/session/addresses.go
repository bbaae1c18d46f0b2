package session

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("session: invalid address")

// ValidateAddresses checks the address list is non-empty and every
// entry is syntactically a host:port pair. It performs no I/O.
func ValidateAddresses(addrs []string) error {
	if len(addrs) == 0 {
		return fmt.Errorf("%w: empty address list", ErrInvalidAddress)
	}
	for i, addr := range addrs {
		host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
		if err != nil {
			return fmt.Errorf("%w: addresses[%d] %q", ErrInvalidAddress, i, addr)
		}
		if host == "" {
			return fmt.Errorf("%w: addresses[%d] %q missing host", ErrInvalidAddress, i, addr)
		}
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%w: addresses[%d] %q bad port", ErrInvalidAddress, i, addr)
		}
	}
	return nil
}
