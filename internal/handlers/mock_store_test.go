package handlers_test

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/shortlinks/internal/shortener"
)

var errMock = errors.New("mock error")

// mockStore is a test double for shortener.Repository that always fails
// with the configured errors.
type mockStore struct {
	createErr   error
	getErr      error
	getByURLErr error
	recordErr   error
	listErr     error
}

func (m *mockStore) Create(_ context.Context, _ *shortener.Link) error {
	return m.createErr
}

func (m *mockStore) GetByCode(_ context.Context, _ shortener.Code) (*shortener.Link, error) {
	return nil, m.getErr
}

func (m *mockStore) GetByURL(_ context.Context, _ string) (*shortener.Link, error) {
	return nil, m.getByURLErr
}

func (m *mockStore) RecordVisit(_ context.Context, _ shortener.Code, _ time.Time) (*shortener.Link, error) {
	return nil, m.recordErr
}

func (m *mockStore) List(_ context.Context, _ int) ([]*shortener.Link, error) {
	return nil, m.listErr
}
