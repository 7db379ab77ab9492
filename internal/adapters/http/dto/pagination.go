package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// Cursor errors.
var (
	// ErrInvalidCursor is returned when cursor decoding fails.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor signals a first page request.
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest holds the paging query parameters.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the page size (1-100, default 20).
	Limit int `json:"limit" form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// PaginatedResponse is one page of an ordered listing.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// CursorData marks the last item of a page: its position in the listing and
// its identity key. The key wins when the listing shifted between pages.
type CursorData struct {
	Position int    `json:"p"`
	Key      string `json:"k"`
}

// EncodeCursor encodes cursor data as URL-safe base64 JSON.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor. An empty string yields ErrNoCursor.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return nil, ErrNoCursor
	}

	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(raw, &data); err != nil || data.Position < 0 {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}

// Paginate returns the page of items following req's cursor. key identifies
// an item; when the cursor's key is still present the page starts right
// after it, otherwise after the recorded position.
func Paginate[T any](items []T, req *PaginationRequest, key func(T) string) (*PaginatedResponse[T], error) {
	start := 0

	if req.Cursor != "" {
		cursor, err := DecodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}

		start = resumeAt(items, cursor, key)
	}

	limit := req.GetLimit()
	end := min(start+limit, len(items))

	page := &PaginatedResponse[T]{Items: append([]T{}, items[start:end]...)}

	if end < len(items) {
		page.HasMore = true
		page.NextCursor = EncodeCursor(&CursorData{Position: end - 1, Key: key(items[end-1])})
	}

	return page, nil
}

func resumeAt[T any](items []T, cursor *CursorData, key func(T) string) int {
	for i, item := range items {
		if key(item) == cursor.Key {
			return i + 1
		}
	}

	return min(cursor.Position+1, len(items))
}
