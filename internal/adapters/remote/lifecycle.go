package remote

import (
	"sync"
	"time"
)

// Lifecycle shuts an idle cache server down after a timeout. A zero timeout never
// expires.
type Lifecycle struct {
	mu           sync.Mutex
	timer        *time.Timer
	lastActivity time.Time
	timeout      time.Duration
	done         chan struct{}
	once         sync.Once
}

// NewLifecycle creates a lifecycle that expires after timeout without activity.
func NewLifecycle(timeout time.Duration) *Lifecycle {
	l := &Lifecycle{
		lastActivity: time.Now(),
		timeout:      timeout,
		done:         make(chan struct{}),
	}
	if timeout > 0 {
		l.timer = time.AfterFunc(timeout, l.expire)
	}
	return l
}

// Touch records activity and restarts the idle timer.
func (l *Lifecycle) Touch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = time.Now()
	if l.timer != nil {
		l.timer.Reset(l.timeout)
	}
}

// IdleRemaining returns the time left until the server shuts down.
func (l *Lifecycle) IdleRemaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer == nil {
		return 0
	}
	return max(l.timeout-time.Since(l.lastActivity), 0)
}

// Done is closed when the lifecycle expires or is stopped.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// Stop ends the lifecycle.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()
	l.expire()
}

func (l *Lifecycle) expire() {
	l.once.Do(func() { close(l.done) })
}
