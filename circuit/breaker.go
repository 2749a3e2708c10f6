package circuit

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen wird zurückgegeben, wenn der Breaker offen ist und keine
// Anfragen durchlässt.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker ist ein einfacher Zustandsautomat closed -> open -> half-open.
// Jeder externe Dienst bekommt seine eigene Instanz; es gibt bewusst
// keinen globalen Singleton-Zustand.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	cooldown         time.Duration

	failures int
	openedAt time.Time
	halfOpen bool
	clock    func() time.Time
}

// NewBreaker erstellt einen Breaker, der nach failureThreshold
// aufeinanderfolgenden Fehlern für die Dauer von cooldown öffnet.
func NewBreaker(failureThreshold int, cooldown time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		clock:            time.Now,
	}
}

// Allow prüft, ob eine Anfrage durchgelassen wird. Nach Ablauf des
// Cooldowns wird genau eine Probe-Anfrage erlaubt (half-open).
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.failureThreshold {
		return nil
	}
	if b.clock().Sub(b.openedAt) < b.cooldown {
		return ErrOpen
	}
	if b.halfOpen {
		return ErrOpen
	}
	b.halfOpen = true
	return nil
}

// Record meldet das Ergebnis einer durchgelassenen Anfrage zurück.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.halfOpen = false
		return
	}

	b.failures++
	b.halfOpen = false
	if b.failures >= b.failureThreshold {
		b.openedAt = b.clock()
	}
}

// Do führt fn aus, sofern der Breaker es erlaubt, und verbucht das Ergebnis.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err)
	return err
}
