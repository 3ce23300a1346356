// Package test holds helpers shared by server tests.
package test

import (
	"fmt"
	"net"
	"sync"
)

var (
	used = map[int]struct{}{}
	lock sync.Mutex
)

// RandomPort returns a free TCP port that was not handed out before in this
// process.
func RandomPort() int {
	lock.Lock()
	defer lock.Unlock()
	for {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			panic(fmt.Sprintf("listen on a random port: %v", err))
		}
		port := l.Addr().(*net.TCPAddr).Port
		_ = l.Close()
		if _, ok := used[port]; !ok {
			used[port] = struct{}{}
			return port
		}
	}
}

// LocalAddr returns a localhost listen address on a random port.
func LocalAddr() string {
	return fmt.Sprintf("localhost:%d", RandomPort())
}
