package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client provides namespaced Redis operations for match records.
// It is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient creates a ledger client for the given namespace.
// Returns an error if namespace is empty.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client.
func NewClientFromURL(url, namespace string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewClient(opts, namespace)
}

// Namespace returns the namespace all keys are scoped by.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveMatch validates and writes a record, then publishes it on the match
// events channel. Saving the same record twice is safe.
func (c *Client) SaveMatch(ctx context.Context, r *MatchRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid match record: %w", err)
	}

	key := MatchKey(c.namespace, r.ID)
	if err := c.rdb.HSet(ctx, key, RecordToHash(r)).Err(); err != nil {
		return fmt.Errorf("failed to write match to Redis: %w", err)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal match for event: %w", err)
	}
	if err := c.rdb.Publish(ctx, MatchEventsChannel(c.namespace), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish match event: %w", err)
	}
	return nil
}

// GetMatch retrieves a record by ID.
// Returns (nil, redis.Nil) if it does not exist; use IsNotFound to check.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchRecord, error) {
	hash, err := c.rdb.HGetAll(ctx, MatchKey(c.namespace, matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read match from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, redis.Nil
	}

	r, err := HashToRecord(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize match: %w", err)
	}
	return r, nil
}

// ScanMatches returns the IDs of all matches whose ID starts with prefix.
// An empty prefix returns every ID. Uses SCAN so the server is not blocked.
func (c *Client) ScanMatches(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := MatchKeyPrefix(c.namespace)
	iter := c.rdb.Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan matches: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListMatches returns every stored record, oldest first. Records that fail
// to load are returned as errors in skipped rather than failing the listing.
func (c *Client) ListMatches(ctx context.Context) (records []*MatchRecord, skipped []error, err error) {
	ids, err := c.ScanMatches(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		r, err := c.GetMatch(ctx, id)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("match %s: %w", id, err))
			continue
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAtMs < records[j].CreatedAtMs
	})
	return records, skipped, nil
}

// Subscription is an active subscription to match events.
// Call Close when done.
type Subscription struct {
	events <-chan *MatchRecord
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of saved records. It is closed when the
// subscription is closed or its context is cancelled.
func (s *Subscription) Events() <-chan *MatchRecord {
	return s.events
}

// Errors returns undecodable-message errors. The subscription continues
// after an error.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeMatchEvents subscribes to records saved in this namespace. The
// subscription is confirmed with Redis before it is returned, so a record
// saved afterwards is delivered.
func (c *Client) SubscribeMatchEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, MatchEventsChannel(c.namespace))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to match events: %w", err)
	}

	eventsChan := make(chan *MatchRecord, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var r MatchRecord
				if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal match event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &r:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: eventsChan, errors: errorsChan, cancel: cancel}, nil
}

// IsNotFound reports whether err is the Redis "key not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
