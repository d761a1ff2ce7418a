// Package redis provides a Redis-backed GraphStore built on go-redis.
//
// Each snapshot is stored as JSON under <prefix>snapshot:<id>, and a set at
// <prefix>run:<run>:snapshots indexes the ids of a run. With a TTL both the
// snapshot key and the run index expire; List skips index entries whose
// snapshot is already gone.
//
// # Basic Usage
//
//	s := redis.NewRedisGraphStore(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "tracegraph:", // optional
//		TTL:    24 * time.Hour, // optional
//	})
//	defer s.Close()
package redis
