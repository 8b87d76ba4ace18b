package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/neptotech/betteradvancedpaste/store"
)

func (d *DB) ListPromptOptions(ctx context.Context) ([]*store.PromptOption, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, icon, color, title, description, created_ts
		FROM prompt_option
		ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list prompt options")
	}
	defer rows.Close()

	list := make([]*store.PromptOption, 0)
	for rows.Next() {
		var o store.PromptOption
		if err := rows.Scan(&o.ID, &o.Icon, &o.Color, &o.Title, &o.Desc, &o.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan prompt option")
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) CreatePromptOption(ctx context.Context, create *store.PromptOption) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO prompt_option (title, title_key, icon, color, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title_key) DO NOTHING`,
		create.Title, store.TitleKey(create.Title), create.Icon, create.Color, create.Desc,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to create prompt option")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return true, nil
	}
	if err := d.db.QueryRowContext(ctx, "SELECT created_ts FROM prompt_option WHERE id = ?", id).Scan(&create.CreatedTs); err != nil {
		return true, errors.Wrap(err, "failed to read created option")
	}
	create.ID = int32(id)
	return true, nil
}
