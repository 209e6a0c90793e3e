package main

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// redisPinger adapts the go-redis client to the readiness Pinger port.
type redisPinger struct {
	client *goredis.Client
}

func (p *redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
