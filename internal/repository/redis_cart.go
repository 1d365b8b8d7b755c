package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cake_heaven_back_end/internal/cart"

	"github.com/redis/go-redis/v9"
)

// maxWatchRetries bounds optimistic retries when two requests update the same cart.
const maxWatchRetries = 10

func cartKey(userID string) string {
	return "cart:" + userID
}

// cartChannel shares the key's name; Redis keeps keys and channels apart.
func cartChannel(userID string) string {
	return "cart:" + userID
}

// RedisCartStore keeps one JSON session per shopper and announces changes on a pub/sub channel.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) Load(ctx context.Context, userID string) (*cart.Session, error) {
	return s.load(ctx, s.client, userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisCartStore) load(ctx context.Context, c getter, userID string) (*cart.Session, error) {
	data, err := c.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.NewSession(userID, cart.InvalidateOnMutation), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess cart.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	sess.UserID = userID
	return &sess, nil
}

// Update runs fn under WATCH and retries when another writer got there first. Errors from fn are
// returned unchanged.
func (s *RedisCartStore) Update(ctx context.Context, userID string, fn func(*cart.Session) error) (*cart.Session, error) {
	key := cartKey(userID)

	var result *cart.Session
	txf := func(tx *redis.Tx) error {
		sess, err := s.load(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}

		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = sess
		return nil
	}

	for range maxWatchRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, cart.ErrSessionChanged
}

func (s *RedisCartStore) Publish(ctx context.Context, userID, event string) error {
	return s.client.Publish(ctx, cartChannel(userID), event).Err()
}

// Subscribe streams cart events for userID until ctx is done or the returned stop func is called.
func (s *RedisCartStore) Subscribe(ctx context.Context, userID string) (<-chan string, func(), error) {
	pubsub := s.client.Subscribe(ctx, cartChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	events := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case events <- msg.Payload:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return events, stop, nil
}
