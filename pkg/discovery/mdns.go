package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Advertiser announces a sealink endpoint via mDNS.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server

	// Interface restricts advertising to one network interface.
	// Empty string means all interfaces.
	Interface string
}

// getInterfaces returns the network interfaces to advertise on.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise registers the endpoint under the given instance name.
// An already-running advertisement is replaced.
func (a *Advertiser) Advertise(instance string, port int, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	if len(instance) > MaxInstanceNameLen {
		instance = instance[:MaxInstanceNameLen]
	}
	if port == 0 {
		port = DefaultPort
	}

	txtStrings := TXTRecordsToStrings(EncodeTXT(name))

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		txtStrings,
		a.getInterfaces(),
	)
	if err != nil {
		return fmt.Errorf("failed to register sealink service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the advertisement. It is safe to call multiple times.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Browse searches for sealink endpoints until the context is done or the
// timeout elapses, and returns everything found. Endpoints advertising an
// unparseable version record are skipped.
func Browse(ctx context.Context, timeout time.Duration) ([]*Endpoint, error) {
	if timeout == 0 {
		timeout = BrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	found := make(map[string]*Endpoint)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				ep := entryToEndpoint(entry)
				if ep == nil {
					continue
				}
				mu.Lock()
				found[ep.Instance] = ep
				mu.Unlock()

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				mu.Lock()
				delete(found, entry.Instance)
				mu.Unlock()

			case <-ctx.Done():
				return
			}
		}
	}()

	// Browse blocks until the context is done.
	_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	<-done

	mu.Lock()
	defer mu.Unlock()
	result := make([]*Endpoint, 0, len(found))
	for _, ep := range found {
		result = append(result, ep)
	}
	return result, nil
}

// Find returns the first endpoint whose instance name matches, or
// ErrNotFound after the timeout.
func Find(ctx context.Context, instance string, timeout time.Duration) (*Endpoint, error) {
	eps, err := Browse(ctx, timeout)
	if err != nil {
		return nil, err
	}
	for _, ep := range eps {
		if ep.Instance == instance {
			return ep, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, instance)
}

// entryToEndpoint converts a zeroconf entry, or returns nil for entries
// that are not valid sealink endpoints.
func entryToEndpoint(entry *zeroconf.ServiceEntry) *Endpoint {
	txt := StringsToTXTRecords(entry.Text)
	v, name, err := DecodeTXT(txt)
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &Endpoint{
		Instance:  entry.Instance,
		Name:      name,
		Host:      entry.HostName,
		Port:      uint16(entry.Port),
		Addresses: addrs,
		Version:   v,
	}
}
