package sequence

import "fmt"

// Mode is the strategy used to allocate sequence numbers.
type Mode string

// All supported allocation modes.
const (
	// ModeLocal derives the number from the current UTC time.
	ModeLocal Mode = "local"
	// ModeRemote asks a remote number service.
	ModeRemote Mode = "remote"
	// ModeTableStorage increments a shared counter in a CounterStore.
	ModeTableStorage Mode = "table"
)

// ParseMode returns a valid Mode for the given string, or an error if the
// value is invalid.
func ParseMode(val string) (Mode, error) {
	switch Mode(val) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	case ModeTableStorage:
		return ModeTableStorage, nil
	}
	return "", fmt.Errorf("unsupported sequence mode '%s'", val)
}
