package worker

import (
	"context"
	"time"
)

// RetryPolicy параметры повторов с экспоненциальной задержкой.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Do выполняет fn с повторами по политике. Первый вызов не считается
// повтором: всего выполняется MaxRetries+1 попыток. Отмена контекста
// прерывает ожидание и возвращает ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	delay := p.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * p.BackoffFactor)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
