package cache

import (
	"context"
	"time"
)

// NopStore never stores anything. Every Get is a miss.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
