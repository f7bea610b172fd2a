// Package mocks provides test doubles for the georef client.
package mocks

import (
	"context"

	georef "github.com/carroceria-sur/taller/pkg/georef"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Provinces provides a mock function with given fields: ctx, name, max
func (_m *MockClient) Provinces(ctx context.Context, name string, max int) ([]georef.Province, error) {
	ret := _m.Called(ctx, name, max)

	if len(ret) == 0 {
		panic("no return value specified for Provinces")
	}

	var r0 []georef.Province
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]georef.Province, error)); ok {
		return rf(ctx, name, max)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int) []georef.Province); ok {
		r0 = rf(ctx, name, max)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]georef.Province)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, name, max)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Localities provides a mock function with given fields: ctx, provinceID, name, max
func (_m *MockClient) Localities(ctx context.Context, provinceID string, name string, max int) ([]georef.Locality, error) {
	ret := _m.Called(ctx, provinceID, name, max)

	if len(ret) == 0 {
		panic("no return value specified for Localities")
	}

	var r0 []georef.Locality
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, int) ([]georef.Locality, error)); ok {
		return rf(ctx, provinceID, name, max)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string, int) []georef.Locality); ok {
		r0 = rf(ctx, provinceID, name, max)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]georef.Locality)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string, int) error); ok {
		r1 = rf(ctx, provinceID, name, max)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// AllLocalities provides a mock function with given fields: ctx, provinceID
func (_m *MockClient) AllLocalities(ctx context.Context, provinceID string) ([]georef.Locality, error) {
	ret := _m.Called(ctx, provinceID)

	if len(ret) == 0 {
		panic("no return value specified for AllLocalities")
	}

	var r0 []georef.Locality
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]georef.Locality, error)); ok {
		return rf(ctx, provinceID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []georef.Locality); ok {
		r0 = rf(ctx, provinceID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]georef.Locality)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, provinceID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NormalizeAddress provides a mock function with given fields: ctx, q
func (_m *MockClient) NormalizeAddress(ctx context.Context, q georef.AddressQuery) ([]georef.Address, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for NormalizeAddress")
	}

	var r0 []georef.Address
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, georef.AddressQuery) ([]georef.Address, error)); ok {
		return rf(ctx, q)
	}
	if rf, ok := ret.Get(0).(func(context.Context, georef.AddressQuery) []georef.Address); ok {
		r0 = rf(ctx, q)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]georef.Address)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, georef.AddressQuery) error); ok {
		r1 = rf(ctx, q)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// SearchLocalities provides a mock function with given fields: ctx, text, provinceID, max
func (_m *MockClient) SearchLocalities(ctx context.Context, text string, provinceID string, max int) ([]georef.Locality, error) {
	ret := _m.Called(ctx, text, provinceID, max)

	if len(ret) == 0 {
		panic("no return value specified for SearchLocalities")
	}

	var r0 []georef.Locality
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, int) ([]georef.Locality, error)); ok {
		return rf(ctx, text, provinceID, max)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string, int) []georef.Locality); ok {
		r0 = rf(ctx, text, provinceID, max)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]georef.Locality)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string, int) error); ok {
		r1 = rf(ctx, text, provinceID, max)
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
