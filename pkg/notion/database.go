package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page matching filter, following cursors.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// FindByTitle returns the first page whose title property equals title
// exactly, or nil when none does.
func FindByTitle(ctx context.Context, c Client, dbID, property, title string) (*notionapi.Page, error) {
	pages, err := QueryAll(ctx, c, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			RichText: &notionapi.TextFilterCondition{Equals: title},
		},
		PageSize: 10,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find %q", title)
	}
	for i := range pages {
		if TitleText(pages[i].Properties, property) == title {
			return &pages[i], nil
		}
	}
	return nil, nil
}

// TitleText returns the plain text of a title property.
func TitleText(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case *notionapi.TitleProperty:
		return richTextPlain(p.Title)
	case notionapi.TitleProperty:
		return richTextPlain(p.Title)
	}
	return ""
}

// SelectName returns the chosen option of a select property and whether
// the property exists.
func SelectName(props notionapi.Properties, name string) (string, bool) {
	switch p := props[name].(type) {
	case *notionapi.SelectProperty:
		return p.Select.Name, true
	case notionapi.SelectProperty:
		return p.Select.Name, true
	}
	return "", false
}

func richTextPlain(rt []notionapi.RichText) string {
	var s string
	for _, r := range rt {
		if r.PlainText != "" {
			s += r.PlainText
		} else if r.Text != nil {
			s += r.Text.Content
		}
	}
	return s
}
