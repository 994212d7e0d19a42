package billtext

import (
	"context"
	"errors"
	"strings"
)

// Unspecified is substituted for a missing congress or bill number.
const Unspecified = "N/A"

// KeywordSearchNumber is the bill number sent when a keyword search has no bill number.
const KeywordSearchNumber = "KeywordSearch"

// ErrNotFound is returned when a source yields no bill text.
var ErrNotFound = errors.New("bill text not found in API response")

// Query identifies the bill whose text is requested.
type Query struct {
	Congress   string `json:"congress"`
	BillNumber string `json:"billNumber"`
	Keyword    string `json:"keyword,omitempty"`
}

// WithDefaults fills an empty congress or bill number with Unspecified.
func (q Query) WithDefaults() Query {
	if strings.TrimSpace(q.Congress) == "" {
		q.Congress = Unspecified
	}
	if strings.TrimSpace(q.BillNumber) == "" {
		q.BillNumber = Unspecified
	}
	return q
}

// Fetcher retrieves bill text.
type Fetcher interface {
	FetchBillText(ctx context.Context, query Query) (string, error)
}

// MockSource is an in-process Fetcher backed by GenerateMockText.
type MockSource struct{}

// NewMockSource creates a simulated bill text source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// FetchBillText returns simulated text for the query.
func (m *MockSource) FetchBillText(ctx context.Context, query Query) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	query = query.WithDefaults()
	billText := GenerateMockText(query.Congress, query.BillNumber, query.Keyword)
	if billText == "" {
		return "", ErrNotFound
	}
	return billText, nil
}
