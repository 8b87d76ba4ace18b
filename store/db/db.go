package db

import (
	"github.com/pkg/errors"

	"github.com/neptotech/betteradvancedpaste/internal/profile"
	"github.com/neptotech/betteradvancedpaste/store"
	"github.com/neptotech/betteradvancedpaste/store/db/jsonfile"
	"github.com/neptotech/betteradvancedpaste/store/db/sqlite"
)

// NewDBDriver creates the prompt store driver named by profile.Driver.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "", "file":
		driver, err = jsonfile.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
