// Package jsonfile keeps palette options in the "options" array of the JSON
// config document, next to the "ai" settings.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/neptotech/betteradvancedpaste/internal/profile"
	"github.com/neptotech/betteradvancedpaste/store"
)

const optionsKey = "options"

type DB struct {
	path string
	mu   sync.Mutex
}

// NewDB returns a driver over profile.ConfigPath.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.ConfigPath == "" {
		return nil, errors.New("config path required")
	}
	return &DB{path: profile.ConfigPath}, nil
}

func (d *DB) Close() error {
	return nil
}

func (d *DB) ListPromptOptions(_ context.Context) ([]*store.PromptOption, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.read()
	if err != nil {
		return nil, err
	}
	raw, err := optionList(doc)
	if err != nil {
		return nil, err
	}

	list := make([]*store.PromptOption, 0, len(raw))
	for _, r := range raw {
		var o store.PromptOption
		// Entries that are not objects are ignored rather than failing the list.
		if err := json.Unmarshal(r, &o); err != nil {
			continue
		}
		list = append(list, &o)
	}
	return list, nil
}

func (d *DB) CreatePromptOption(_ context.Context, create *store.PromptOption) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.read()
	if err != nil {
		return false, err
	}
	raw, err := optionList(doc)
	if err != nil {
		return false, err
	}

	key := store.TitleKey(create.Title)
	for _, r := range raw {
		var o store.PromptOption
		if err := json.Unmarshal(r, &o); err != nil {
			continue
		}
		if store.TitleKey(o.Title) == key {
			return false, nil
		}
	}

	entry, err := json.Marshal(create)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode option")
	}
	raw = append(raw, entry)

	encoded, err := json.Marshal(raw)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode options")
	}
	doc[optionsKey] = encoded
	if err := d.write(doc); err != nil {
		return false, err
	}
	create.CreatedTs = time.Now().Unix()
	return true, nil
}

// read returns the top-level document; a missing file is an empty document.
func (d *DB) read() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", d.path)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", d.path)
	}
	return doc, nil
}

func optionList(doc map[string]json.RawMessage) ([]json.RawMessage, error) {
	raw, ok := doc[optionsKey]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(err, "'options' must be a list")
	}
	return list, nil
}

func (d *DB) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".conf-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp config")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write temp config")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp config")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "failed to chmod temp config")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), d.path), "failed to replace %s", d.path)
}
