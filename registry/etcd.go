package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/mt5bridge/"

// EtcdRegistry implements Registry on etcd v3.
//
// Registration uses TTL-based leases: if the bridge server crashes, the
// lease expires and the entry disappears on its own, so clients never
// discover a dead endpoint for long.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Close releases the underlying etcd client.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}

// Register advertises an endpoint with a TTL lease and starts KeepAlive to
// renew it. The lease id stays local so concurrent registrations through
// one EtcdRegistry do not race.
func (r *EtcdRegistry) Register(service string, instance Instance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, keyPrefix+service+"/"+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Drain KeepAlive responses so the channel never fills up.
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes an endpoint. Called during graceful shutdown before
// the listener closes.
func (r *EtcdRegistry) Deregister(service string, addr string) error {
	_, err := r.client.Delete(context.TODO(), keyPrefix+service+"/"+addr)
	return err
}

// Discover returns the currently advertised endpoints for a service.
func (r *EtcdRegistry) Discover(service string) ([]Instance, error) {
	resp, err := r.client.Get(context.TODO(), keyPrefix+service+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance Instance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // skip malformed entries
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Watch emits the full endpoint list whenever registrations change
// (new servers, deregistrations, lease expirations).
func (r *EtcdRegistry) Watch(service string) <-chan []Instance {
	ch := make(chan []Instance, 1)
	prefix := keyPrefix + service + "/"

	go func() {
		watchChan := r.client.Watch(context.TODO(), prefix, clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch the full list on any change; simpler than
			// replaying individual events.
			instances, _ := r.Discover(service)
			ch <- instances
		}
	}()

	return ch
}
