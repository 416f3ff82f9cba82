package marketplace

import (
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/fault"
)

var ErrRepository = errors.New("marketplace: repository failure")

// wrapStoreError passes classified failures through and marks everything
// else as a repository failure.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if fault.KindOf(err) != fault.KindUnknown {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
