package model

import "github.com/oklog/ulid/v2"

// NewID generates an opaque, sortable identifier
func NewID() string {
	return ulid.Make().String()
}
