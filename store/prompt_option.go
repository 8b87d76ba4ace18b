package store

import (
	"context"
	"strings"
)

// DefaultOptionColor is used for options stored without a color.
const DefaultOptionColor = "#111827"

// PromptOption is one named instruction shown in the palette.
type PromptOption struct {
	ID        int32  `json:"-"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	CreatedTs int64  `json:"-"`
}

// TitleKey is the case-insensitive identity of an option title.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ListPromptOptions returns the palette options. Entries without a title are
// skipped and a missing color gets DefaultOptionColor.
func (s *Store) ListPromptOptions(ctx context.Context) ([]*PromptOption, error) {
	list, err := s.driver.ListPromptOptions(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]*PromptOption, 0, len(list))
	for _, o := range list {
		if o == nil || strings.TrimSpace(o.Title) == "" {
			continue
		}
		if o.Color == "" {
			o.Color = DefaultOptionColor
		}
		options = append(options, o)
	}
	return options, nil
}

// SavePrompt records instruction as a palette option unless an option with
// the same title (ignoring case) exists. It reports whether a new option
// was created.
func (s *Store) SavePrompt(ctx context.Context, instruction string) (bool, error) {
	title := strings.TrimSpace(instruction)
	if title == "" {
		return false, nil
	}
	return s.driver.CreatePromptOption(ctx, &PromptOption{
		Title: title,
		Color: DefaultOptionColor,
	})
}
