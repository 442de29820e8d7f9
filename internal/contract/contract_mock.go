package contract

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/airseries/schema"
)

// MockHistoryClient is a mock implementation of HistoryClient for testing.
type MockHistoryClient struct {
	mock.Mock
}

var _ HistoryClient = &MockHistoryClient{} // Compile-time check

// FetchHistory implements the HistoryClient interface.
func (m *MockHistoryClient) FetchHistory(ctx context.Context, sensorID int, q schema.HistoryQuery) (*schema.HistoryResponse, error) {
	ret := m.Called(ctx, sensorID, q)
	rsp, _ := ret.Get(0).(*schema.HistoryResponse)
	return rsp, ret.Error(1)
}

// MockIndexStore is a mock implementation of IndexStore for testing.
type MockIndexStore struct {
	mock.Mock
}

var _ IndexStore = &MockIndexStore{} // Compile-time check

// Migrate implements the IndexStore interface.
func (m *MockIndexStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// AlreadyIndexed implements the IndexStore interface.
func (m *MockIndexStore) AlreadyIndexed(ctx context.Context, sensorID int, start, end int64) (bool, error) {
	ret := m.Called(ctx, sensorID, start, end)
	return ret.Bool(0), ret.Error(1)
}

// IndexSegments implements the IndexStore interface.
func (m *MockIndexStore) IndexSegments(ctx context.Context, src SegmentSource, sensorIDs []int) (schema.IndexResult, error) {
	ret := m.Called(ctx, src, sensorIDs)
	result, _ := ret.Get(0).(schema.IndexResult)
	return result, ret.Error(1)
}

// Readings implements the IndexStore interface.
func (m *MockIndexStore) Readings(ctx context.Context, ch schema.Channel, since time.Time) ([]schema.Reading, error) {
	ret := m.Called(ctx, ch, since)
	readings, _ := ret.Get(0).([]schema.Reading)
	return readings, ret.Error(1)
}

// AllReadings implements the IndexStore interface.
func (m *MockIndexStore) AllReadings(ctx context.Context) ([]schema.IndexedRecord, error) {
	ret := m.Called(ctx)
	records, _ := ret.Get(0).([]schema.IndexedRecord)
	return records, ret.Error(1)
}

// Status implements the IndexStore interface.
func (m *MockIndexStore) Status(ctx context.Context) (schema.IndexStatus, error) {
	ret := m.Called(ctx)
	status, _ := ret.Get(0).(schema.IndexStatus)
	return status, ret.Error(1)
}

// Close implements the IndexStore interface.
func (m *MockIndexStore) Close() error {
	return m.Called().Error(0)
}
