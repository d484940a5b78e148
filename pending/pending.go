package pending

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lunfardo314/cellabi/abi"
	"github.com/lunfardo314/cellabi/boc"
	"github.com/lunfardo314/cellabi/cell"
	"github.com/lunfardo314/cellabi/global"
	"github.com/lunfardo314/unitrie/common"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	// Store keeps prepared calls waiting for an external signature, keyed by the hash to be signed
	Store struct {
		mutex             sync.RWMutex
		s                 KVStore
		now               func() time.Time
		metricsEnabled    bool
		putCounter        prometheus.Counter
		completedCounter  prometheus.Counter
		expiredCounter    prometheus.Counter
		bodySizeHistogram prometheus.Histogram
		pendingNumGauge   prometheus.Gauge
	}

	KVStore interface {
		common.KVStore
		common.Traversable
	}

	Entry struct {
		Hash         cell.Hash
		FunctionName string
		Deadline     time.Time
		Unsigned     *cell.Cell
	}
)

const partitionPending = byte(0x70)

var (
	ErrNotFound   = errors.New("pending: call not found")
	ErrExpired    = errors.New("pending: call expired")
	ErrWrongEntry = errors.New("pending: corrupted entry")
)

func New(store KVStore, metricsRegistry ...global.Metrics) *Store {
	ret := &Store{s: store, now: time.Now}
	if len(metricsRegistry) > 0 && metricsRegistry[0] != nil && metricsRegistry[0].MetricsRegistry() != nil {
		ret.registerMetrics(metricsRegistry[0].MetricsRegistry())
	}
	return ret
}

func (s *Store) registerMetrics(reg *prometheus.Registry) {
	s.metricsEnabled = true
	s.putCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cellabi_pending_putCounter",
		Help: "number of prepared calls stored for signing",
	})
	s.completedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cellabi_pending_completedCounter",
		Help: "number of stored calls completed with signature",
	})
	s.expiredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cellabi_pending_expiredCounter",
		Help: "number of stored calls removed after deadline",
	})
	s.pendingNumGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cellabi_pending_num",
		Help: "number of calls waiting for signature after last purge",
	})

	const lastSizeBucket = 2000

	s.bodySizeHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cellabi_pending_bodySizeHistogram",
		Help:    "size of serialized unsigned call bodies",
		Buckets: _makeBuckets(lastSizeBucket),
	})
	reg.MustRegister(s.putCounter, s.completedCounter, s.expiredCounter, s.pendingNumGauge, s.bodySizeHistogram)
}

func _makeBuckets(lastSize int) []float64 {
	ret := make([]float64, 0)
	for b := 0; b <= lastSize; b += 50 {
		ret = append(ret, float64(b))
	}
	return ret
}

func dbKey(h cell.Hash) []byte {
	ret := make([]byte, 1+len(h))
	ret[0] = partitionPending
	copy(ret[1:], h[:])
	return ret
}

// value: deadline (unix nano, 8 bytes) || name length (2 bytes) || name || BOC of unsigned body
func encodeEntry(name string, deadline time.Time, bocBytes []byte) []byte {
	ret := make([]byte, 10, 10+len(name)+len(bocBytes))
	binary.BigEndian.PutUint64(ret[:8], uint64(deadline.UnixNano()))
	binary.BigEndian.PutUint16(ret[8:10], uint16(len(name)))
	ret = append(ret, name...)
	return append(ret, bocBytes...)
}

func decodeEntry(h cell.Hash, data []byte) (*Entry, error) {
	if len(data) < 10 {
		return nil, ErrWrongEntry
	}
	nameLen := int(binary.BigEndian.Uint16(data[8:10]))
	if len(data) < 10+nameLen {
		return nil, ErrWrongEntry
	}
	unsigned, err := boc.DeserializeSingleRoot(data[10+nameLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongEntry, err)
	}
	if unsigned.Hash() != h {
		return nil, fmt.Errorf("%w: hash mismatch", ErrWrongEntry)
	}
	return &Entry{
		Hash:         h,
		FunctionName: string(data[10 : 10+nameLen]),
		Deadline:     time.Unix(0, int64(binary.BigEndian.Uint64(data[:8]))),
		Unsigned:     unsigned,
	}, nil
}

// Put persists prepared call until the deadline. Returns the hash to be signed
func (s *Store) Put(p *abi.PreparedCall, ttl time.Duration) (cell.Hash, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	h := p.Hash()
	if s.s.Has(dbKey(h)) {
		return h, nil
	}
	bocBytes, err := boc.SerializeSingleRoot(p.Unsigned)
	if err != nil {
		return cell.Hash{}, err
	}
	s.s.Set(dbKey(h), encodeEntry(p.Function.Name, s.now().Add(ttl), bocBytes))

	if s.metricsEnabled {
		s.putCounter.Inc()
		s.bodySizeHistogram.Observe(float64(len(bocBytes)))
	}
	return h, nil
}

// Get returns the entry. Expired entries are not returned but stay until purged
func (s *Store) Get(h cell.Hash) (*Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.get(h)
}

func (s *Store) get(h cell.Hash) (*Entry, error) {
	data := s.s.Get(dbKey(h))
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	ret, err := decodeEntry(h, data)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(ret.Deadline) {
		return nil, ErrExpired
	}
	return ret, nil
}

func (s *Store) Has(h cell.Hash) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.s.Has(dbKey(h))
}

func (s *Store) Delete(h cell.Hash) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.s.Set(dbKey(h), nil)
}

// Attach completes stored call with the signature and removes it from the store
func (s *Store) Attach(codec *abi.Codec, f *abi.Function, h cell.Hash, signature, publicKey []byte) (*cell.Cell, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, err := s.get(h)
	if err != nil {
		return nil, err
	}
	if e.FunctionName != f.Name || !f.IsMyMessage(e.Unsigned, false) {
		return nil, fmt.Errorf("%w: stored call is '%s', not '%s'", abi.ErrWrongFunctionID, e.FunctionName, f.Name)
	}
	ret, err := codec.AttachSignature(&abi.PreparedCall{
		Function: f,
		Unsigned: e.Unsigned,
		Slot: abi.SignatureSlot{
			Kind: abi.SlotPendingSignature,
			Hash: h,
		},
	}, signature, publicKey)
	if err != nil {
		return nil, err
	}
	s.s.Set(dbKey(h), nil)
	if s.metricsEnabled {
		s.completedCounter.Inc()
	}
	return ret, nil
}

// Iterate goes over all entries, including expired ones
func (s *Store) Iterate(fun func(e *Entry) bool) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.iterate(fun)
}

func (s *Store) iterate(fun func(e *Entry) bool) error {
	var err error
	s.s.Iterator([]byte{partitionPending}).Iterate(func(k, data []byte) bool {
		var h cell.Hash
		if len(k) != 1+len(h) {
			err = ErrWrongEntry
			return false
		}
		copy(h[:], k[1:])
		var e *Entry
		if e, err = decodeEntry(h, data); err != nil {
			return false
		}
		return fun(e)
	})
	return err
}

// Purge removes expired entries. Returns number of removed and remaining entries
func (s *Store) Purge() (int, int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	expired := make([]cell.Hash, 0)
	remaining := 0
	err := s.iterate(func(e *Entry) bool {
		if now.Before(e.Deadline) {
			remaining++
		} else {
			expired = append(expired, e.Hash)
		}
		return true
	})
	if err != nil {
		return 0, 0, err
	}
	for _, h := range expired {
		s.s.Set(dbKey(h), nil)
	}
	if s.metricsEnabled {
		s.expiredCounter.Add(float64(len(expired)))
		s.pendingNumGauge.Set(float64(remaining))
	}
	return len(expired), remaining, nil
}

const Name = "pendingPurge"

// StartPurgeLoop purges expired entries periodically until the context is cancelled
func (s *Store) StartPurgeLoop(ctx context.Context, env global.Logging, period time.Duration) {
	global.RepeatInBackground(ctx, env, Name, period, func() bool {
		removed, remaining, err := s.Purge()
		if err != nil {
			env.Log().Errorf("[%s] %v", Name, err)
			return true
		}
		if removed > 0 {
			env.Log().Infof("[%s] removed %d expired calls, %d remaining", Name, removed, remaining)
		}
		return true
	}, true)
}
