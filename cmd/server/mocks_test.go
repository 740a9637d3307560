package main

import (
	"context"

	"github.com/damacus/iron-index/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockObjectStore implements services.ObjectStore for testing
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) GetObject(ctx context.Context, key string) (services.ObjectResponse, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(services.ObjectResponse), args.Error(1)
}

func (m *MockObjectStore) ListObjects(ctx context.Context, prefix, delimiter string) ([]services.ListBatch, error) {
	args := m.Called(ctx, prefix, delimiter)
	batches, _ := args.Get(0).([]services.ListBatch)
	return batches, args.Error(1)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
