package client

import (
	"sync"

	"github.com/luma/meshlink/protocol"
)

// Node is a remote node found by discovery.
type Node struct {
	Address        protocol.Address64 `json:"address"`
	NetworkAddress protocol.Address16 `json:"networkAddress"`
	Identifier     string             `json:"identifier"`
	SignalLoss     byte               `json:"signalLoss"`
	Strength       SignalStrength     `json:"strength"`
}

// DataReceived is data sent to us by another node. Depending on how the
// sender addressed us either Source64 or Source16 identifies it;
// Source16 is protocol.UnknownAddress16 for 64-bit addressed data.
type DataReceived struct {
	Source64 protocol.Address64
	Source16 protocol.Address16
	RSSI     byte
	Options  byte
	Payload  []byte
}

// Source returns whichever source address the packet carried.
func (d DataReceived) Source() string {
	if d.Source16 == protocol.UnknownAddress16 {
		return d.Source64.String()
	}

	return d.Source16.String()
}

// OnNodeDiscovered calls fn for every node reported by Discover. fn runs
// on the discovery stream's executor.
func (c *Conn) OnNodeDiscovered(fn func(Node)) *Subscription {
	return c.nodes.subscribe(fn)
}

// OnDataReceived calls fn for every RX packet. fn runs on the transport's
// receive goroutine and must not block.
func (c *Conn) OnDataReceived(fn func(DataReceived)) *Subscription {
	return c.data.subscribe(fn)
}

type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops further notifications. It is safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

type observers[T any] struct {
	mu   sync.RWMutex
	next uint64
	fns  map[uint64]func(T)
}

func (o *observers[T]) subscribe(fn func(T)) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fns == nil {
		o.fns = make(map[uint64]func(T))
	}

	o.next++
	key := o.next
	o.fns[key] = fn

	return &Subscription{cancel: func() {
		o.mu.Lock()
		delete(o.fns, key)
		o.mu.Unlock()
	}}
}

func (o *observers[T]) publish(v T) {
	o.mu.RLock()
	fns := make([]func(T), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}
