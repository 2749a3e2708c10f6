package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter drosselt ausgehende Anfragen auf eine feste Rate mit optionalem
// Jitter. Sicher für die parallele Nutzung durch mehrere Goroutinen.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 bis 1.0
	interval time.Duration
	ch       <-chan time.Time
}

// NewLimiter erstellt einen Limiter mit der gegebenen Rate (Requests pro
// Sekunde) und Jitter-Faktor. Bei rps <= 0 blockiert der Limiter nie.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{jitter: jitter}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	ticker := time.NewTicker(interval)

	return &Limiter{
		ticker:   ticker,
		jitter:   jitter,
		interval: interval,
		ch:       ticker.C,
	}
}

// Wait blockiert bis zur nächsten erlaubten Operation oder bis der Kontext
// abgebrochen wird.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
		if l.jitter > 0 {
			jitterFactor := (rand.Float64() * 2) - 1.0 // -1.0 bis 1.0
			jitterDuration := time.Duration(float64(l.interval) * l.jitter * jitterFactor)
			if jitterDuration > 0 {
				select {
				case <-time.After(jitterDuration):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			// Negativer Jitter heißt: sofort nach dem Tick laufen. Der
			// Ticker erzwingt das Mindestintervall ohnehin.
		}
	}
	return nil
}

// Stop gibt die Ressourcen des Limiters frei.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}
