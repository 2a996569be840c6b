// Package registry locates bridge server endpoints.
//
// A bridge deployment usually runs one terminal-backed server, but nothing
// stops several (one per terminal login). Servers advertise themselves
// under /mt5bridge/{service}/{addr}; clients discover an endpoint at
// connect time. The registry is optional: both sides run registry-free
// when an endpoint address is configured directly.
package registry

// ServiceName is the discovery key bridge servers advertise under.
const ServiceName = "mt5"

// Instance is one advertised bridge endpoint.
type Instance struct {
	Addr    string `json:"addr"`
	Version string `json:"version,omitempty"` // contract catalog version
}

// Registry is the endpoint discovery interface.
type Registry interface {
	Register(service string, instance Instance, ttl int64) error
	Deregister(service string, addr string) error
	Discover(service string) ([]Instance, error)
	Watch(service string) <-chan []Instance
}
