package registry

import (
	"fmt"
	"sync/atomic"
)

// Picker selects one endpoint from a discovered list. Unlike per-request
// load balancing, a pick happens once per session: the transport layer
// binds one long-lived connection to the chosen endpoint.
type Picker interface {
	Pick(instances []Instance) (*Instance, error)
}

// RoundRobinPicker cycles through endpoints with an atomic counter, so
// reconnects after a failure spread across the advertised servers.
type RoundRobinPicker struct {
	counter int64
}

func (p *RoundRobinPicker) Pick(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no bridge endpoints available")
	}
	index := atomic.AddInt64(&p.counter, 1) % int64(len(instances))
	return &instances[index], nil
}
