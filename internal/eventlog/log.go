package eventlog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Tuning constants, carried over from the teacher's internal/game/event_log.go.
const (
	bufferSize         = 1024
	maxEventsPerSecond = 10000
	maxEventsPerEntity = 100
	batchFlushSize     = 64
	batchFlushInterval = 100 * time.Millisecond
	entityLimiterTTL   = 5 * time.Minute
)

// EventLog is a bounded, rate-limited, asynchronously flushed audit trail.
// The circular buffer absorbs bursts; sustained overload drops the oldest
// unflushed event rather than blocking the caller (the tick loop, almost
// always).
type EventLog struct {
	buffer    [bufferSize]Event
	writeHead uint64
	readHead  uint64

	globalLimiter   *rate.Limiter
	entityLimiters  sync.Map // map[uint32]*entityLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

type entityLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewEventLog constructs an EventLog. Start must be called before Emit has
// any effect.
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(maxEventsPerSecond, maxEventsPerSecond/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append (pass "" to log without persisting) and
// begins the async writer and limiter-cleanup goroutines.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}
	el.filePath = filePath

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = f
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes any pending batch and closes the output file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit records ev, subject to the global and per-entity rate limits.
// Returns false if the log is not running or the event was rate limited.
// When the buffer is full the oldest unflushed event is evicted instead,
// and Emit still returns true for the new one.
func (el *EventLog) Emit(ev Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if ev.EntityID != 0 {
		limiter := el.entityLimiter(ev.EntityID)
		if !limiter.Allow() {
			atomic.AddUint64(&el.droppedCount, 1)
			return false
		}
	}

	head := atomic.AddUint64(&el.writeHead, 1)
	tail := atomic.LoadUint64(&el.readHead)
	if head-tail >= bufferSize {
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	ev.Sequence = head
	el.buffer[head%bufferSize] = ev
	atomic.AddUint64(&el.totalCount, 1)
	return true
}

func (el *EventLog) entityLimiter(id uint32) *rate.Limiter {
	if v, ok := el.entityLimiters.Load(id); ok {
		e := v.(*entityLimiterEntry)
		e.lastUsed = time.Now()
		return e.limiter
	}
	entry := &entityLimiterEntry{
		limiter:  rate.NewLimiter(maxEventsPerEntity, maxEventsPerEntity/10),
		lastUsed: time.Now(),
	}
	actual, _ := el.entityLimiters.LoadOrStore(id, entry)
	return actual.(*entityLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(batchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, batchFlushSize)
	for {
		select {
		case <-el.stopChan:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
			return
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(entityLimiterTTL)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-entityLimiterTTL)
			el.entityLimiters.Range(func(key, value interface{}) bool {
				if value.(*entityLimiterEntry).lastUsed.Before(cutoff) {
					el.entityLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (el *EventLog) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	for i := tail; i < head && len(batch) < batchFlushSize; i++ {
		batch = append(batch, el.buffer[i%bufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()
	if el.file == nil {
		return
	}
	for _, ev := range batch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// Stats reports counters useful for dashboards/alerting.
type Stats struct {
	Total   uint64
	Dropped uint64
	Pending uint64
	Running bool
}

func (el *EventLog) GetStats() Stats {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	return Stats{
		Total:   atomic.LoadUint64(&el.totalCount),
		Dropped: atomic.LoadUint64(&el.droppedCount),
		Pending: head - tail,
		Running: el.running.Load(),
	}
}
