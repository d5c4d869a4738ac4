package storage

import (
	"errors"
	"fmt"
	pulseerrors "pulse-lab/errors"
	"pulse-lab/observability"

	"github.com/dgraph-io/badger/v4"
)

const defaultAttempts = 16

// retryOnConflict reruns fn while badger rejects its transaction because a
// concurrent transaction committed a key fn had read.
func retryOnConflict(attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	for i := 0; i < attempts; i++ {
		err := fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		observability.TransactionConflicts.Inc()
	}
	return fmt.Errorf("%w (%d attempts)", pulseerrors.ErrTooManyConflicts, attempts)
}
