// Package mocks provides test doubles for the chunkr client.
package mocks

import (
	"context"

	chunkr "github.com/sells-group/ocr-bench/pkg/chunkr"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// CreateTask provides a mock function with given fields: ctx, req
func (_m *MockClient) CreateTask(ctx context.Context, req chunkr.CreateTaskRequest) (*chunkr.CreateTaskResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for CreateTask")
	}

	var r0 *chunkr.CreateTaskResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, chunkr.CreateTaskRequest) (*chunkr.CreateTaskResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, chunkr.CreateTaskRequest) *chunkr.CreateTaskResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*chunkr.CreateTaskResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, chunkr.CreateTaskRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetTask provides a mock function with given fields: ctx, taskID
func (_m *MockClient) GetTask(ctx context.Context, taskID string) (*chunkr.Task, error) {
	ret := _m.Called(ctx, taskID)

	if len(ret) == 0 {
		panic("no return value specified for GetTask")
	}

	var r0 *chunkr.Task
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*chunkr.Task, error)); ok {
		return rf(ctx, taskID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *chunkr.Task); ok {
		r0 = rf(ctx, taskID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*chunkr.Task)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, taskID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
