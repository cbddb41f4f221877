package contract

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockHistoryReader is a mock implementation of HistoryReader for testing.
type MockHistoryReader struct {
	mock.Mock
}

var _ HistoryReader = &MockHistoryReader{} // Compile-time check

// Run implements the HistoryReader interface.
func (m *MockHistoryReader) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoHash implements the HistoryReader interface.
func (m *MockHistoryReader) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	hash, _ := ret.Get(0).(string)
	return hash, ret.Error(1)
}

// GetRepoRoot implements the HistoryReader interface.
func (m *MockHistoryReader) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	root, _ := ret.Get(0).(string)
	return root, ret.Error(1)
}

// GetChurnLog implements the HistoryReader interface.
func (m *MockHistoryReader) GetChurnLog(ctx context.Context, repoPath string, since, until time.Time) ([]byte, error) {
	ret := m.Called(ctx, repoPath, since, until)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}
