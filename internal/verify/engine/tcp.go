package engine

import (
	"context"
	"fmt"
	"net"
	"time"
)

// checkTCPAlive attempts a TCP connect to ip:port up to retries times,
// returning true on the first success. This is the liveness gate that
// keeps the probe phase from stalling on dead hosts (spec.md §4.6
// step 1).
func checkTCPAlive(ctx context.Context, ip string, port int, timeout time.Duration, retries int) bool {
	if retries <= 0 {
		retries = 1
	}

	dialer := &net.Dialer{Timeout: timeout}
	addr := fmt.Sprintf("%s:%d", ip, port)

	for attempt := 0; attempt < retries; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}
