package storage

import "context"

// Update is sent to listeners every time a key is written. Value is the
// raw JSON now stored under Key.
type Update struct {
	Key   []byte
	Value []byte
}

type Store interface {
	Set(ctx context.Context, key []byte, value interface{}) error
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Backup returns the whole document
	Backup() ([]byte, error)

	ListenToUpdates() <-chan *Update

	Close() error
}
