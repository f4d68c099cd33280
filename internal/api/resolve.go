package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ResolveUserID maps a user identifier to a user id. A well-formed UUID
// passes through untouched; anything else is treated as an email address
// and looked up via /users.list with a query filter.
func (c *Client) ResolveUserID(ctx context.Context, ident string) (string, error) {
	if _, err := uuid.Parse(ident); err == nil {
		return ident, nil
	}
	resp, err := c.PostJSON(ctx, "/users.list", map[string]any{
		"limit":  MaxPageSize,
		"query":  ident,
		"filter": "all",
	})
	if err != nil {
		return "", err
	}
	if obj, ok := AsObject(resp); ok {
		for _, user := range pageRecords(obj) {
			if strings.EqualFold(user.Field("email"), ident) {
				return user.ID(), nil
			}
		}
	}
	return "", fmt.Errorf("user not found: %s", ident)
}

// ResolveGroupID maps a group identifier to a group id, matching by exact
// name when the identifier is not a UUID. Group names are not filterable
// server-side, so the whole list is fetched.
func (c *Client) ResolveGroupID(ctx context.Context, ident string) (string, error) {
	if _, err := uuid.Parse(ident); err == nil {
		return ident, nil
	}
	groups, err := c.FetchAll(ctx, "/groups.list", nil, MaxPageSize, 1)
	if err != nil {
		return "", err
	}
	for _, group := range groups {
		if group.Name() == ident {
			return group.ID(), nil
		}
	}
	return "", fmt.Errorf("group not found: %s", ident)
}

// FetchMemberships pages through a membership endpoint. Memberships nest
// their records under data.<key> ("users" or "groups") instead of the flat
// list shape, so the generic fetcher does not apply.
func (c *Client) FetchMemberships(ctx context.Context, path string, params map[string]any, key string) ([]Record, error) {
	var results []Record
	offset := 0
	for {
		payload := make(map[string]any, len(params)+2)
		for k, v := range params {
			payload[k] = v
		}
		payload["limit"] = MaxPageSize
		payload["offset"] = offset

		resp, err := c.PostJSON(ctx, path, payload)
		if err != nil {
			return nil, err
		}
		var page []Record
		if obj, ok := AsObject(resp); ok {
			if data, ok := AsObject(obj["data"]); ok {
				if list, ok := data[key].([]any); ok {
					page = toRecords(list)
				}
			}
		}
		results = append(results, page...)
		if len(page) < MaxPageSize {
			return results, nil
		}
		offset += MaxPageSize
	}
}
