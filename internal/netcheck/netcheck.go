// Package netcheck reports whether the document store is reachable before a
// store call is issued.
package netcheck

import (
	"context"
	"net"
	"sync/atomic"
	"time"
)

// DefaultProbeTimeout bounds a single TCP probe.
const DefaultProbeTimeout = 2 * time.Second

// Checker reports connectivity.
type Checker interface {
	Online(ctx context.Context) bool
}

// Always is a Checker that always reports online. Local backends use it.
type Always struct{}

// Online implements Checker.
func (Always) Online(context.Context) bool { return true }

// Static is a Checker whose answer is set explicitly. Tests and the
// network.offline setting use it.
type Static struct {
	offline atomic.Bool
}

// NewStatic returns a Static checker starting in the given state.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.offline.Store(!online)
	return s
}

// Online implements Checker.
func (s *Static) Online(context.Context) bool { return !s.offline.Load() }

// SetOnline switches the reported state.
func (s *Static) SetOnline(online bool) { s.offline.Store(!online) }

// Probe dials a TCP address and reports online when the dial succeeds.
type Probe struct {
	Addr    string
	Timeout time.Duration

	dialer net.Dialer
}

// NewProbe returns a Probe for addr. A non-positive timeout selects
// DefaultProbeTimeout.
func NewProbe(addr string, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Probe{Addr: addr, Timeout: timeout}
}

// Online implements Checker.
func (p *Probe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Settings selects a Checker.
type Settings struct {
	Offline      bool
	ProbeAddr    string
	ProbeTimeout time.Duration
}

// New builds the Checker described by s: forced offline, a TCP probe when
// an address is configured, otherwise Always.
func New(s Settings) Checker {
	switch {
	case s.Offline:
		return NewStatic(false)
	case s.ProbeAddr != "":
		return NewProbe(s.ProbeAddr, s.ProbeTimeout)
	default:
		return Always{}
	}
}
