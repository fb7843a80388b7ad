package store

import "context"

// Store is the history interface used by the CLI.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	LatestFor(ctx context.Context, sha string) (Record, error)
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = NopStore{}
)

// NopStore records nothing. It is used when history is disabled.
type NopStore struct{}

// NewNopStore returns a store that discards every record.
func NewNopStore() NopStore { return NopStore{} }

func (NopStore) Save(context.Context, *Record) error { return nil }

func (NopStore) Recent(context.Context, int) ([]Record, error) { return nil, nil }

func (NopStore) LatestFor(context.Context, string) (Record, error) { return Record{}, ErrNotFound }

func (NopStore) Close() error { return nil }
