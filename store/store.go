package store

import (
	"context"

	"github.com/neptotech/betteradvancedpaste/internal/profile"
)

// Driver is the persistence backend of the prompt store.
type Driver interface {
	ListPromptOptions(ctx context.Context) ([]*PromptOption, error)
	// CreatePromptOption inserts create unless an option with the same
	// TitleKey exists, and reports whether it inserted.
	CreatePromptOption(ctx context.Context, create *PromptOption) (bool, error)
	Close() error
}

// Store provides access to the palette options.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}
