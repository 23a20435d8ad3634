package recipe

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// BatchError reports the components whose staged changes failed to commit.
type BatchError struct {
	ids      []string
	failures map[string]error
	err      error
}

func (b *BatchError) add(id string, err error) {
	if b.failures == nil {
		b.failures = map[string]error{}
	}
	b.ids = append(b.ids, id)
	b.failures[id] = err
	b.err = multierr.Append(b.err, err)
}

func (b *BatchError) orNil() error {
	if len(b.ids) == 0 {
		return nil
	}
	return b
}

// Failed lists the failed component ids in commit order.
func (b *BatchError) Failed() []string {
	return append([]string(nil), b.ids...)
}

// Err returns the failure of one component, nil when it committed.
func (b *BatchError) Err(id string) error {
	return b.failures[id]
}

func (b *BatchError) Error() string {
	return fmt.Sprintf("commit failed for %d component(s) [%s]: %v",
		len(b.ids), strings.Join(b.ids, ", "), b.err)
}

func (b *BatchError) Unwrap() []error {
	return multierr.Errors(b.err)
}
