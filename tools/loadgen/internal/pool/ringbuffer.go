package pool

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// RingBuffer is a thread-safe circular buffer of ParameterValues.
// When full it evicts according to the configured policy, FIFO by
// default.
type RingBuffer struct {
	mu       sync.RWMutex
	items    []*ParameterValue
	head     int // next write position
	tail     int // next read position (for FIFO Get)
	count    int
	capacity int

	evictionPolicy EvictionPolicy
	evictionCount  atomic.Int64

	accessOrder []int // indices sorted by access time, oldest first

	rng *rand.Rand
}

// NewRingBuffer creates a RingBuffer with the given capacity and
// eviction policy.
func NewRingBuffer(capacity int, policy EvictionPolicy) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingBuffer{
		items:          make([]*ParameterValue, capacity),
		capacity:       capacity,
		evictionPolicy: policy,
		accessOrder:    make([]int, 0, capacity),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add adds a value to the buffer, evicting old values if necessary.
// Returns the number of values evicted.
func (rb *RingBuffer) Add(value *ParameterValue) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	evicted := 0

	if rb.count >= rb.capacity {
		evicted = rb.evictOne()
	}

	rb.items[rb.head] = value
	if rb.evictionPolicy == EvictionLRU {
		rb.accessOrder = append(rb.accessOrder, rb.head)
	}
	rb.head = (rb.head + 1) % rb.capacity
	rb.count++

	return evicted
}

// evictOne removes one value according to the eviction policy.
// Must be called with lock held.
func (rb *RingBuffer) evictOne() int {
	if rb.count == 0 {
		return 0
	}

	var evictIdx int

	switch rb.evictionPolicy {
	case EvictionFIFO:
		evictIdx = rb.tail
		rb.tail = (rb.tail + 1) % rb.capacity

	case EvictionLRU:
		if len(rb.accessOrder) > 0 {
			evictIdx = rb.accessOrder[0]
			rb.accessOrder = rb.accessOrder[1:]
			// Keep the tail on an occupied slot
			if evictIdx == rb.tail {
				rb.tail = (rb.tail + 1) % rb.capacity
			}
		} else {
			evictIdx = rb.tail
			rb.tail = (rb.tail + 1) % rb.capacity
		}

	case EvictionRandom:
		evictIdx = rb.findRandomOccupiedIndex()
		if evictIdx == rb.tail {
			rb.tail = (rb.tail + 1) % rb.capacity
		}
	}

	rb.items[evictIdx] = nil
	rb.count--
	rb.evictionCount.Add(1)

	return 1
}

// findRandomOccupiedIndex finds a random index that contains a value.
// Caller holds the lock and guarantees count > 0.
func (rb *RingBuffer) findRandomOccupiedIndex() int {
	offset := rb.rng.Intn(rb.count)
	idx := (rb.tail + offset) % rb.capacity

	// Linear scan from the random position to the next occupied slot
	for i := 0; i < rb.capacity; i++ {
		checkIdx := (idx + i) % rb.capacity
		if rb.items[checkIdx] != nil {
			return checkIdx
		}
	}
	return rb.tail // fallback
}

// Get retrieves the next value in FIFO order without removing it.
// Returns nil if the buffer is empty.
func (rb *RingBuffer) Get() *ParameterValue {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return nil
	}

	// Next non-nil value from tail
	for i := 0; i < rb.capacity; i++ {
		idx := (rb.tail + i) % rb.capacity
		if rb.items[idx] != nil {
			value := rb.items[idx]
			value.Touch()
			rb.updateLRUAccess(idx)
			return value
		}
	}
	return nil
}

// GetRandom retrieves a random value from the buffer without removing it.
// Returns nil if the buffer is empty.
func (rb *RingBuffer) GetRandom() *ParameterValue {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return nil
	}

	start := rb.rng.Intn(rb.capacity)
	for i := 0; i < rb.capacity; i++ {
		idx := (start + i) % rb.capacity
		if rb.items[idx] != nil {
			value := rb.items[idx]
			value.Touch()
			rb.updateLRUAccess(idx)
			return value
		}
	}
	return nil
}

// updateLRUAccess moves the given index to the end of the access
// order. Caller holds the lock.
func (rb *RingBuffer) updateLRUAccess(idx int) {
	if rb.evictionPolicy != EvictionLRU {
		return
	}

	for i, accessIdx := range rb.accessOrder {
		if accessIdx == idx {
			rb.accessOrder = append(rb.accessOrder[:i], rb.accessOrder[i+1:]...)
			break
		}
	}
	rb.accessOrder = append(rb.accessOrder, idx)
}

// GetAll returns all non-nil values in the buffer.
func (rb *RingBuffer) GetAll() []*ParameterValue {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]*ParameterValue, 0, rb.count)
	for _, item := range rb.items {
		if item != nil {
			result = append(result, item)
		}
	}
	return result
}

// Count returns the number of values in the buffer.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Capacity returns the maximum capacity of the buffer.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// EvictionCount returns how many values have been evicted so far.
func (rb *RingBuffer) EvictionCount() int64 {
	return rb.evictionCount.Load()
}

// Remove removes a specific value from the buffer.
// Returns true if the value was found and removed.
func (rb *RingBuffer) Remove(value *ParameterValue) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i, item := range rb.items {
		if item == value {
			rb.items[i] = nil
			rb.count--

			if rb.evictionPolicy == EvictionLRU {
				for j, accessIdx := range rb.accessOrder {
					if accessIdx == i {
						rb.accessOrder = append(rb.accessOrder[:j], rb.accessOrder[j+1:]...)
						break
					}
				}
			}
			return true
		}
	}
	return false
}

// Clear removes all values from the buffer.
// Returns the number of values removed.
func (rb *RingBuffer) Clear() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	removed := rb.count
	for i := range rb.items {
		rb.items[i] = nil
	}
	rb.head = 0
	rb.tail = 0
	rb.count = 0
	rb.accessOrder = rb.accessOrder[:0]

	return removed
}

// RemoveExpired removes all expired values from the buffer.
// Returns the number of values removed.
func (rb *RingBuffer) RemoveExpired() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	removed := 0
	for i, item := range rb.items {
		if item != nil && item.IsExpired() {
			rb.items[i] = nil
			rb.count--
			removed++

			if rb.evictionPolicy == EvictionLRU {
				for j, accessIdx := range rb.accessOrder {
					if accessIdx == i {
						rb.accessOrder = append(rb.accessOrder[:j], rb.accessOrder[j+1:]...)
						break
					}
				}
			}
		}
	}
	return removed
}

// IsFull returns true if the buffer is at capacity.
func (rb *RingBuffer) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count >= rb.capacity
}

// IsEmpty returns true if the buffer has no values.
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count == 0
}
