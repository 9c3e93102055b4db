package fixture

import (
	"errors"
	"fmt"

	"github.com/bbernstein/stagelights-go/internal/services/universe"
)

// Validation sentinels. Registration errors wrap one of these so callers
// can classify failures without string matching.
var (
	ErrInvalidID       = errors.New("invalid fixture id")
	ErrDuplicateID     = errors.New("fixture id already registered")
	ErrChannelRange    = errors.New("channel range out of bounds")
	ErrChannelConflict = errors.New("channel range conflict")
)

// ValidateRegister checks a candidate against the already-registered
// fixtures. It returns nil when the candidate may be registered, or an
// error naming the first violation. The candidate's ChannelCount must
// already be resolved (non-zero).
func ValidateRegister(candidate *Fixture, existing []*Fixture) error {
	if candidate.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, candidate.ID)
	}
	if candidate.ChannelCount < 1 {
		return fmt.Errorf("%w: fixture %d has channel count %d", ErrChannelRange, candidate.ID, candidate.ChannelCount)
	}
	if candidate.StartChannel < 1 || candidate.EndChannel() > universe.Size {
		return fmt.Errorf("%w: fixture %d occupies channels %d-%d",
			ErrChannelRange, candidate.ID, candidate.StartChannel, candidate.EndChannel())
	}

	for _, other := range existing {
		if other.ID == candidate.ID {
			return fmt.Errorf("%w: %d", ErrDuplicateID, candidate.ID)
		}
		if candidate.overlaps(other) {
			return fmt.Errorf("%w: fixture %d (channels %d-%d) overlaps fixture %d (channels %d-%d) in universe %d",
				ErrChannelConflict,
				candidate.ID, candidate.StartChannel, candidate.EndChannel(),
				other.ID, other.StartChannel, other.EndChannel(),
				candidate.Universe)
		}
	}

	return nil
}
