package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunnable implements supervisor.Runnable and supervisor.Stateable for testing
type MockRunnable struct {
	mock.Mock
	Name string
}

// String implements supervisor.Runnable
func (m *MockRunnable) String() string {
	return m.Name
}

// Run implements supervisor.Runnable
func (m *MockRunnable) Run(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stop implements supervisor.Runnable
func (m *MockRunnable) Stop() {
	m.Called()
}

// GetState implements supervisor.Stateable
func (m *MockRunnable) GetState() string {
	args := m.Called()
	return args.String(0)
}

// GetStateChan implements supervisor.Stateable
func (m *MockRunnable) GetStateChan(ctx context.Context) <-chan string {
	args := m.Called(ctx)
	return args.Get(0).(<-chan string)
}

// IsRunning implements supervisor.Stateable
func (m *MockRunnable) IsRunning() bool {
	args := m.Called()
	return args.Bool(0)
}
