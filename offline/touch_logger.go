// ABOUTME: Logs contact touches online, falling back to the write queue
// ABOUTME: Owns its own throttle window so repeated taps don't double-log
package offline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/frontdesk/models"
)

// TouchOutcome reports what LogTouch did.
type TouchOutcome string

const (
	TouchLogged    TouchOutcome = "logged"
	TouchQueued    TouchOutcome = "queued"
	TouchThrottled TouchOutcome = "throttled"
)

// TouchWriter inserts touches directly into the backend.
type TouchWriter interface {
	InsertTouch(ctx context.Context, t *models.Touch) error
}

// TouchLogger writes touches through writer and queues them when the
// write fails. A nil writer queues every touch.
type TouchLogger struct {
	writer TouchWriter
	queue  *Queue
	window time.Duration
	logger *log.Logger
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewTouchLogger returns a logger that drops identical touches seen within window.
func NewTouchLogger(writer TouchWriter, queue *Queue, window time.Duration, logger *log.Logger) *TouchLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &TouchLogger{
		writer: writer,
		queue:  queue,
		window: window,
		logger: logger,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

func throttleKey(createdBy string, p TouchPayload) string {
	return createdBy + "|" + p.BookingID + "|" + p.LeadID + "|" + p.TouchType
}

// throttled records the touch and reports whether an identical one was seen
// inside the window.
func (l *TouchLogger) throttled(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, at := range l.last {
		if now.Sub(at) >= l.window {
			delete(l.last, k)
		}
	}
	if at, ok := l.last[key]; ok && now.Sub(at) < l.window {
		return true
	}
	l.last[key] = now
	return false
}

// LogTouch records a touch. Validation errors are returned before any I/O;
// backend failures are absorbed by queueing the touch.
func (l *TouchLogger) LogTouch(ctx context.Context, createdBy string, p TouchPayload) (TouchOutcome, error) {
	item, err := NewTouchItem(createdBy, p)
	if err != nil {
		return "", err
	}

	if l.window > 0 && l.throttled(throttleKey(createdBy, p), l.now()) {
		return TouchThrottled, nil
	}

	if l.writer != nil {
		err := l.writer.InsertTouch(ctx, &models.Touch{
			TouchType: p.TouchType,
			BookingID: p.BookingID,
			LeadID:    p.LeadID,
			Channel:   p.Channel,
			Notes:     p.Notes,
			CreatedBy: createdBy,
			CreatedAt: item.CreatedAt,
		})
		if err == nil {
			return TouchLogged, nil
		}
		l.logger.Warn("touch write failed, queueing", "type", p.TouchType, "err", err)
	}

	l.queue.Enqueue(item)
	return TouchQueued, nil
}
