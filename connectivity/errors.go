package connectivity

import "fmt"

// ErrServiceNotFound is returned when Call targets an intent with no
// registered handler.
type ErrServiceNotFound struct {
	Service string
}

func (e *ErrServiceNotFound) Error() string {
	return fmt.Sprintf("connectivity: service not routable: %s", e.Service)
}

// ErrNotAllowed is returned when Call targets an intent outside the
// router's allow-list.
type ErrNotAllowed struct {
	Service string
}

func (e *ErrNotAllowed) Error() string {
	return fmt.Sprintf("connectivity: intent not allowed: %s", e.Service)
}
