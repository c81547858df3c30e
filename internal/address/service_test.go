package address

import (
	"context"
	"errors"
	"testing"

	"storefront-be/internal/apperror"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByUserID(ctx context.Context, userID uint) ([]*Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Address), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, userID uint, id uuid.UUID) (*Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Address), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, addr *Address) error {
	return m.Called(ctx, addr).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, addr *Address) error {
	return m.Called(ctx, addr).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func userCtx() context.Context {
	return utils.SetUserContext(context.Background(), 1, "jane@example.com", utils.RoleUser)
}

func TestService_Unauthenticated(t *testing.T) {
	svc := NewService(new(MockRepository))
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.Create(ctx, CreateAddressInput{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.NewString()), ErrUnauthenticated)
}

func TestService_Create(t *testing.T) {
	input := CreateAddressInput{Title: " Home ", Recipient: "Jane", City: "Istanbul", Line: "Main St 1"}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)
		ctx := userCtx()

		repo.On("Create", ctx, mock.MatchedBy(func(a *Address) bool {
			return a.UserID == 1 && a.Title == "Home" && a.ID != uuid.Nil
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*Address).IsDefault = true
		})

		addr, err := svc.Create(ctx, input)
		require.NoError(t, err)
		assert.True(t, addr.IsDefault)
		repo.AssertExpectations(t)
	})

	t.Run("Validation", func(t *testing.T) {
		svc := NewService(new(MockRepository))

		_, err := svc.Create(userCtx(), CreateAddressInput{Title: "Home"})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("FreshIDs", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)
		ctx := userCtx()

		repo.On("Create", ctx, mock.Anything).Return(nil)

		a, err := svc.Create(ctx, input)
		require.NoError(t, err)
		b, err := svc.Create(ctx, input)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestService_Update(t *testing.T) {
	id := uuid.New()
	existing := func(isDefault bool) *Address {
		return &Address{ID: id, UserID: 1, Title: "Home", Recipient: "Jane", City: "Istanbul", Line: "Main St 1", IsDefault: isDefault}
	}

	t.Run("MergesFields", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)
		ctx := userCtx()

		city := "Ankara"
		yes := true
		repo.On("GetByID", ctx, uint(1), id).Return(existing(false), nil)
		repo.On("Update", ctx, mock.MatchedBy(func(a *Address) bool {
			return a.City == "Ankara" && a.Title == "Home" && a.IsDefault
		})).Return(nil)

		addr, err := svc.Update(ctx, id.String(), UpdateAddressInput{City: &city, IsDefault: &yes})
		require.NoError(t, err)
		assert.Equal(t, "Ankara", addr.City)
		repo.AssertExpectations(t)
	})

	t.Run("CannotUnsetOnlyDefault", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)
		ctx := userCtx()

		no := false
		repo.On("GetByID", ctx, uint(1), id).Return(existing(true), nil)
		repo.On("Update", ctx, mock.MatchedBy(func(a *Address) bool { return a.IsDefault })).Return(nil)

		addr, err := svc.Update(ctx, id.String(), UpdateAddressInput{IsDefault: &no})
		require.NoError(t, err)
		assert.True(t, addr.IsDefault)
	})

	t.Run("InvalidID", func(t *testing.T) {
		svc := NewService(new(MockRepository))
		_, err := svc.Update(userCtx(), "not-a-uuid", UpdateAddressInput{})
		assert.ErrorIs(t, err, ErrAddressNotFound)
	})

	t.Run("NotFound_NoMutation", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)
		ctx := userCtx()

		repo.On("GetByID", ctx, uint(1), id).Return(nil, ErrAddressNotFound)

		_, err := svc.Update(ctx, id.String(), UpdateAddressInput{})
		assert.ErrorIs(t, err, ErrAddressNotFound)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestService_Delete(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	ctx := userCtx()
	id := uuid.New()

	repo.On("Delete", ctx, uint(1), id).Return(nil).Once()
	assert.NoError(t, svc.Delete(ctx, id.String()))

	repo.On("Delete", ctx, uint(1), id).Return(errors.New("db error")).Once()
	assert.Error(t, svc.Delete(ctx, id.String()))
}

func TestService_Get(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo)
	ctx := userCtx()
	id := uuid.New()

	repo.On("GetByID", ctx, uint(1), id).Return(&Address{ID: id, UserID: 1}, nil)

	a, err := svc.Get(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
}
