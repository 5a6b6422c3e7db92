package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidID is returned for document identifiers that cannot name a draft
var ErrInvalidID = errors.New("invalid document identifier")

// Reader loads persisted draft text
type Reader interface {
	// Read returns the stored text, or "" when nothing has been stored under id yet
	Read(ctx context.Context, id string) (string, error)
}

// Writer persists draft text
type Writer interface {
	// Write stores text under id, replacing whatever was there
	Write(ctx context.Context, id, text string) error
}

// Store is the persistence collaborator of the sync endpoint
type Store interface {
	Reader
	Writer
}

// ValidateID checks that id is a plain name usable as a file name or key suffix
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidID, id)
	}
	return nil
}
