package utils

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"
)

const (
	// DefaultPort is the first port tried when the listen address leaves it open.
	DefaultPort = 3500

	// PortSearchRange is how many consecutive ports are tried from DefaultPort.
	PortSearchRange = 1000

	aliveTimeout = 2 * time.Second
)

// ListenAddress resolves addr into a concrete host:port. A missing or
// zero port is replaced by the first free port from DefaultPort on.
func ListenAddress(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("ListenAddress parse error: %w", err)
	}

	if host == "" {
		host = "127.0.0.1"
	}

	if port != "" && port != "0" {
		return net.JoinHostPort(host, port), nil
	}

	free, err := pickPort(host, DefaultPort, PortSearchRange)
	if err != nil {
		return "", fmt.Errorf("ListenAddress port error: %w", err)
	}

	return net.JoinHostPort(host, strconv.Itoa(free)), nil
}

// pickPort tries at most count ports on host starting at start and
// returns the first one that can be bound. Ports in use are skipped, any
// other listen error stops the search.
func pickPort(host string, start, count int) (int, error) {
	last := min(start+count-1, 65535)

	for port := start; port <= last; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if errors.Is(err, syscall.EADDRINUSE) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("pickPort %s: %w", host, err)
		}

		ln.Close()
		return port, nil
	}

	return 0, fmt.Errorf("pickPort %s: no free port in %d-%d", host, start, last)
}

// HostPortIsAlive reports whether something accepts TCP connections on h.
func HostPortIsAlive(h string) bool {
	conn, err := net.DialTimeout("tcp", h, aliveTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
