package service

import (
	"context"
	stderrors "errors"
)

// ErrClosed is returned by calls made after a service was closed.
var ErrClosed = stderrors.New("service is closed")

// Requester is the part of the API client the resource services use.
type Requester interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, in, out interface{}) error
	Put(ctx context.Context, path string, in, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}
