package cache

import (
	"context"
	"time"
)

type nopCache struct{}

func (nopCache) Get(context.Context, string) (any, error) {
	return nil, ErrMiss
}

func (nopCache) Set(context.Context, string, any, time.Duration) error {
	return nil
}

func (nopCache) Delete(context.Context, string) error {
	return nil
}

func (nopCache) Clear(context.Context) error {
	return nil
}
