package api

import (
	"context"

	"storefront-be/internal/address"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/stretchr/testify/mock"
)

// --- user.Service ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) userResult(args mock.Arguments) (*user.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, input user.RegisterInput) (*user.User, error) {
	return m.userResult(m.Called(ctx, input))
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*user.User, error) {
	return m.userResult(m.Called(ctx, email, password))
}

func (m *MockUserService) Profile(ctx context.Context) (*user.User, error) {
	return m.userResult(m.Called(ctx))
}

func (m *MockUserService) UpdateProfile(ctx context.Context, input user.UpdateProfileInput) (*user.User, error) {
	return m.userResult(m.Called(ctx, input))
}

func (m *MockUserService) ToggleFavorite(ctx context.Context, productID int64) ([]int64, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockUserService) Favorites(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockUserService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

func (m *MockUserService) List(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

// --- product.Service ---

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, opts product.ListOptions) (*product.ListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.ListResult), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, input product.CreateInput) (*product.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id int64, input product.UpdateInput) (*product.Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductService) Brands(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// --- order.Service ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) orderResult(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Place(ctx context.Context, input order.PlaceInput) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, input))
}

func (m *MockOrderService) Mine(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) All(ctx context.Context, filter order.ListFilter) (*order.ListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.ListResult), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, id int64) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, id))
}

func (m *MockOrderService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderService) MarkPaid(ctx context.Context, id int64) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error) {
	return m.orderResult(m.Called(ctx, id, status))
}

// --- address.Service ---

type MockAddressService struct {
	mock.Mock
}

func (m *MockAddressService) List(ctx context.Context) ([]*address.Address, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*address.Address), args.Error(1)
}

func (m *MockAddressService) Get(ctx context.Context, addressID string) (*address.Address, error) {
	args := m.Called(ctx, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*address.Address), args.Error(1)
}

func (m *MockAddressService) Create(ctx context.Context, input address.CreateAddressInput) (*address.Address, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*address.Address), args.Error(1)
}

func (m *MockAddressService) Update(ctx context.Context, addressID string, input address.UpdateAddressInput) (*address.Address, error) {
	args := m.Called(ctx, addressID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*address.Address), args.Error(1)
}

func (m *MockAddressService) Delete(ctx context.Context, addressID string) error {
	return m.Called(ctx, addressID).Error(0)
}
