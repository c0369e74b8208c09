package logic

import (
	"errors"
	"fmt"
)

var (
	ErrSigning           = errors.New("cannot sign activity")
	ErrRemoteGone        = errors.New("remote object is gone")
	ErrRemoteUnavailable = errors.New("remote object is unavailable")
	ErrFollowNotFound    = errors.New("follow relationship not found")
	ErrUnknownActor      = errors.New("unknown actor")
	ErrJobNotFound       = errors.New("delivery job not found")
	ErrInvalidActorName  = errors.New("invalid actor name")
)

// DeliveryError is returned when a remote server answers a delivery with a non-2xx status.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("got status %d: response: %s", e.Status, e.Body)
}
