package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

var ErrNotFound = errors.New("Not found")

// Directory records what is known about remote nodes: the latest discovery
// reply from each, and the data traffic received from it. Nodes are keyed
// by their address in hex with a 0x prefix so gjson never mistakes one for
// an array index.
type Directory struct {
	// mu makes the read-modify-write in RecordData atomic
	mu    sync.Mutex
	store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) Store() Store {
	return d.store
}

// PutNode stores node, which must marshal to JSON, under address.
func (d *Directory) PutNode(ctx context.Context, address string, node interface{}) error {
	return d.store.Set(ctx, nodeKey(address), node)
}

// Node returns the JSON stored for address.
func (d *Directory) Node(ctx context.Context, address string) ([]byte, error) {
	return d.getOrNotFound(ctx, nodeKey(address))
}

// Nodes returns every known node as a JSON object keyed by address.
func (d *Directory) Nodes(ctx context.Context) ([]byte, error) {
	nodes, err := d.store.Get(ctx, []byte("nodes"))
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return []byte("{}"), nil
	}

	return nodes, nil
}

// Dump returns everything the directory holds, nodes and traffic, as one
// JSON document.
func (d *Directory) Dump() ([]byte, error) {
	return d.store.Backup()
}

// RecordData counts a packet of size bytes received from source at the
// given time.
func (d *Directory) RecordData(ctx context.Context, source string, size int, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := "traffic." + addressKey(source)

	current, err := d.store.Get(ctx, []byte(key))
	if err != nil {
		return err
	}

	stats := gjson.ParseBytes(current)

	return d.store.Set(ctx, []byte(key), map[string]interface{}{
		"packets":  stats.Get("packets").Int() + 1,
		"bytes":    stats.Get("bytes").Int() + int64(size),
		"lastSeen": at.UTC().Format(time.RFC3339Nano),
	})
}

// Traffic returns the data statistics recorded for source.
func (d *Directory) Traffic(ctx context.Context, source string) ([]byte, error) {
	return d.getOrNotFound(ctx, []byte("traffic."+addressKey(source)))
}

func (d *Directory) getOrNotFound(ctx context.Context, key []byte) ([]byte, error) {
	value, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(value) == 0 {
		return nil, ErrNotFound
	}

	return value, nil
}

func nodeKey(address string) []byte {
	return []byte("nodes." + addressKey(address))
}

func addressKey(address string) string {
	return "0x" + address
}
