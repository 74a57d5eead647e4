// Package redis connects to the optional Redis server used to persist
// training examples.
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	recorder := training.NewRedisRecorder(client, "conntrack:training", 500)
//
// Connect retries the initial ping according to Config. Probe plugs the
// client into the /health endpoint. Errors wrap the go-redis cause with
// errors.Join, so both the sentinel and the cause can be matched.
package redis
