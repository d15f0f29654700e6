package webui

import (
	"context"
	"sync"
	"time"
)

// attemptRecord tracks failed logins from one IP within a sliding window.
type attemptRecord struct {
	count   int
	resetAt time.Time
}

func (a attemptRecord) expired() bool {
	return time.Now().After(a.resetAt)
}

// LoginLimiter throttles brute-force login attempts per client IP.
// Failed attempts within the window count toward the limit; hitting the
// limit blocks the IP for the block duration. A successful login resets
// the counter.
type LoginLimiter struct {
	mu          sync.RWMutex
	attempts    map[string]attemptRecord
	maxAttempts int
	window      time.Duration
	blockFor    time.Duration
}

// NewLoginLimiter creates a LoginLimiter. Typical values: 5 attempts in a
// 15 minute window, 30 minute block.
func NewLoginLimiter(maxAttempts int, window, blockFor time.Duration) *LoginLimiter {
	return &LoginLimiter{
		attempts:    make(map[string]attemptRecord),
		maxAttempts: maxAttempts,
		window:      window,
		blockFor:    blockFor,
	}
}

// Allow reports whether the IP may attempt a login. When blocked, the
// second return value is the time until the block expires.
func (l *LoginLimiter) Allow(ip string) (bool, time.Duration) {
	l.mu.RLock()
	record, exists := l.attempts[ip]
	l.mu.RUnlock()

	if !exists || record.expired() {
		return true, 0
	}
	if record.count >= l.maxAttempts {
		return false, time.Until(record.resetAt)
	}
	return true, 0
}

// RecordFailure records a failed login attempt for the IP. Reaching the
// limit extends the reset time to the block duration.
func (l *LoginLimiter) RecordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, exists := l.attempts[ip]
	if !exists || record.expired() {
		l.attempts[ip] = attemptRecord{count: 1, resetAt: time.Now().Add(l.window)}
		return
	}

	record.count++
	if record.count >= l.maxAttempts {
		record.resetAt = time.Now().Add(l.blockFor)
	}
	l.attempts[ip] = record
}

// Reset clears the record for an IP after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.attempts, ip)
	l.mu.Unlock()
}

// Cleanup removes expired records and returns how many were removed.
func (l *LoginLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, record := range l.attempts {
		if record.expired() {
			delete(l.attempts, ip)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker runs Cleanup on an interval until the context is
// cancelled, bounding memory growth from one-off IPs.
func (l *LoginLimiter) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}

// Count returns the number of tracked IPs.
func (l *LoginLimiter) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.attempts)
}
