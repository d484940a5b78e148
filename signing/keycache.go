package signing

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/lunfardo314/cellabi/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/singleflight"
)

const (
	DerivedKeySize = 32

	defaultScryptLogN = 14
	defaultScryptR    = 8
	defaultScryptP    = 1

	defaultLifeWindow  = 10 * time.Minute
	defaultCleanWindow = time.Minute
	minTTL             = time.Second
)

type (
	// DerivedKeyCache derives keys from password and salt with scrypt and keeps them for a while.
	// Concurrent requests for the same password and salt share one derivation
	DerivedKeyCache struct {
		cfg         cacheConfig
		cache       *bigcache.BigCache
		group       singleflight.Group
		derivations atomic.Uint64
		hits        atomic.Uint64
	}

	cacheConfig struct {
		log         *zap.SugaredLogger
		logN        int
		r, p        int
		ttl         time.Duration
		cleanWindow time.Duration
		now         func() time.Time
	}

	CacheOption func(c *cacheConfig)
)

func WithCacheLogger(log *zap.SugaredLogger) CacheOption {
	return func(c *cacheConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTTL sets fixed lifetime of cached key. By default, it is twice the derivation time
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.ttl = ttl
	}
}

func WithCleanWindow(d time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.cleanWindow = d
	}
}

func WithScryptParams(logN, r, p int) CacheOption {
	return func(c *cacheConfig) {
		c.logN, c.r, c.p = logN, r, p
	}
}

func withClock(now func() time.Time) CacheOption {
	return func(c *cacheConfig) {
		c.now = now
	}
}

func NewDerivedKeyCache(opts ...CacheOption) (*DerivedKeyCache, error) {
	cfg := cacheConfig{
		log:         zap.NewNop().Sugar(),
		logN:        defaultScryptLogN,
		r:           defaultScryptR,
		p:           defaultScryptP,
		cleanWindow: defaultCleanWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logN < 1 || cfg.logN > 30 {
		return nil, fmt.Errorf("NewDerivedKeyCache: wrong scrypt log N %d", cfg.logN)
	}
	lifeWindow := defaultLifeWindow
	if cfg.ttl > lifeWindow {
		lifeWindow = cfg.ttl
	}
	bcfg := bigcache.DefaultConfig(lifeWindow)
	bcfg.Shards = 16
	bcfg.MaxEntriesInWindow = 1024
	bcfg.MaxEntrySize = 16 + DerivedKeySize
	bcfg.CleanWindow = cfg.cleanWindow
	bcfg.Verbose = false
	cache, err := bigcache.New(context.Background(), bcfg)
	if err != nil {
		return nil, fmt.Errorf("NewDerivedKeyCache: %w", err)
	}
	return &DerivedKeyCache{
		cfg:   cfg,
		cache: cache,
	}, nil
}

func cacheKey(password, salt []byte) string {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(password)))
	h := util.Blake2b256(l[:], password, salt)
	return hex.EncodeToString(h[:])
}

// Derive returns 32 byte key. A cached key is returned and its lifetime is extended when present
func (c *DerivedKeyCache) Derive(password, salt []byte) ([]byte, error) {
	k := cacheKey(password, salt)
	if key, ok := c.touch(k); ok {
		c.hits.Inc()
		return key, nil
	}
	ret, err, shared := c.group.Do(k, func() (any, error) {
		if key, ok := c.touch(k); ok {
			return key, nil
		}
		start := c.cfg.now()
		key, err := scrypt.Key(password, salt, 1<<c.cfg.logN, c.cfg.r, c.cfg.p, DerivedKeySize)
		if err != nil {
			return nil, err
		}
		c.derivations.Inc()
		ttl := c.cfg.ttl
		if ttl <= 0 {
			ttl = 2 * c.cfg.now().Sub(start)
			if ttl < minTTL {
				ttl = minTTL
			}
		}
		if err = c.put(k, key, ttl); err != nil {
			c.cfg.log.Warnf("[keycache] failed to store key: %v", err)
		}
		c.cfg.log.Debugf("[keycache] key derived, ttl: %v", ttl)
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Derive: %w", err)
	}
	if shared {
		c.cfg.log.Debugf("[keycache] derivation shared")
	}
	return append([]byte(nil), ret.([]byte)...), nil
}

// entry layout: deadline (unix nano, 8 bytes), ttl (8 bytes), key
func (c *DerivedKeyCache) put(k string, key []byte, ttl time.Duration) error {
	entry := make([]byte, 16, 16+len(key))
	binary.BigEndian.PutUint64(entry[:8], uint64(c.cfg.now().Add(ttl).UnixNano()))
	binary.BigEndian.PutUint64(entry[8:16], uint64(ttl))
	entry = append(entry, key...)
	return c.cache.Set(k, entry)
}

func (c *DerivedKeyCache) touch(k string) ([]byte, bool) {
	entry, err := c.cache.Get(k)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			c.cfg.log.Warnf("[keycache] %v", err)
		}
		return nil, false
	}
	if len(entry) != 16+DerivedKeySize {
		_ = c.cache.Delete(k)
		return nil, false
	}
	deadline := time.Unix(0, int64(binary.BigEndian.Uint64(entry[:8])))
	if !c.cfg.now().Before(deadline) {
		_ = c.cache.Delete(k)
		c.cfg.log.Debugf("[keycache] expired key removed")
		return nil, false
	}
	key := append([]byte(nil), entry[16:]...)
	ttl := time.Duration(binary.BigEndian.Uint64(entry[8:16]))
	if err = c.put(k, key, ttl); err != nil {
		c.cfg.log.Warnf("[keycache] failed to extend key lifetime: %v", err)
	}
	return key, true
}

// Derivations is number of scrypt computations performed
func (c *DerivedKeyCache) Derivations() uint64 {
	return c.derivations.Load()
}

func (c *DerivedKeyCache) Hits() uint64 {
	return c.hits.Load()
}

func (c *DerivedKeyCache) Len() int {
	return c.cache.Len()
}

func (c *DerivedKeyCache) Close() error {
	return c.cache.Close()
}
