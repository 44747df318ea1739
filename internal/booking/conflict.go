package booking

import (
	"errors"
	"fmt"
)

var ErrConflict = errors.New("reservation conflict")

// ConflictError reports the window already held on the resource. It does not
// expose anything else about the other reservation.
type ConflictError struct {
	Resource Resource
	Window   Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already reserved for %s", e.Resource, e.Window)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// HasConflict reports whether window on resource overlaps any active
// reservation in existing. The reservation with id exclude is skipped, which
// lets an existing reservation be re-validated against its peers.
func HasConflict(resource Resource, window Window, existing []Reservation, exclude string) (bool, error) {
	c, err := FindConflict(resource, window, existing, exclude)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// FindConflict is HasConflict returning the first overlapping reservation.
//
// Terminal reservations never conflict even if the caller forgot to filter
// them out.
func FindConflict(resource Resource, window Window, existing []Reservation, exclude string) (*Reservation, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	for i := range existing {
		r := &existing[i]
		if exclude != "" && r.ID == exclude {
			continue
		}
		if r.Resource != resource || !r.Status.Active() {
			continue
		}
		if r.Window.Overlaps(window) {
			return r, nil
		}
	}
	return nil, nil
}

// CheckAvailable returns a *ConflictError when window collides on resource.
func CheckAvailable(resource Resource, window Window, existing []Reservation, exclude string) error {
	c, err := FindConflict(resource, window, existing, exclude)
	if err != nil {
		return err
	}
	if c != nil {
		return &ConflictError{Resource: resource, Window: c.Window}
	}
	return nil
}
