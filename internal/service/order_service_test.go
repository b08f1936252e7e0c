package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/repository"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

func TestOrderService(t *testing.T) {
	t.Parallel()

	db := repository.NewMemoryDB()
	ctx := context.Background()

	alice, err := db.Users().Insert(ctx, model.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := db.Users().Insert(ctx, model.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	svc := NewOrderService(db.Orders())

	first, err := svc.Create(ctx, alice.ID, " Keyboard ", 49.99)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", first.Product)
	assert.Equal(t, alice.ID, first.UserID)

	second, err := svc.Create(ctx, alice.ID, "Mouse", 10)
	require.NoError(t, err)

	t.Run("non-positive amount", func(t *testing.T) {
		for _, amount := range []float64{0, -1} {
			_, err := svc.Create(ctx, alice.ID, "Free", amount)
			apiErr := requireKind(t, err, apierror.KindBadRequest)
			assert.Equal(t, "Order amount must be greater than 0", apiErr.Message())
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Create(ctx, 404, "Ghost", 1)
		apiErr := requireKind(t, err, apierror.KindBadRequest)
		assert.Equal(t, "User does not exist", apiErr.Message())
	})

	t.Run("list newest first", func(t *testing.T) {
		orders, err := svc.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID)
		assert.Equal(t, first.ID, orders[1].ID)

		none, err := svc.ListByUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("foreign orders look missing", func(t *testing.T) {
		_, err := svc.Get(ctx, first.ID, bob.ID)
		apiErr := requireKind(t, err, apierror.KindNotFound)
		assert.Equal(t, "Order not found", apiErr.Message())

		_, err = svc.Update(ctx, first.ID, bob.ID, model.OrderPatch{Product: ptr("Stolen")})
		requireKind(t, err, apierror.KindNotFound)

		_, err = svc.Delete(ctx, first.ID, bob.ID)
		requireKind(t, err, apierror.KindNotFound)

		got, err := svc.Get(ctx, first.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keyboard", got.Product)
	})

	t.Run("update", func(t *testing.T) {
		got, err := svc.Update(ctx, first.ID, alice.ID, model.OrderPatch{Amount: ptr(59.5)})
		require.NoError(t, err)
		assert.InDelta(t, 59.5, got.Amount, 0.0001)
		assert.Equal(t, "Keyboard", got.Product)

		_, err = svc.Update(ctx, first.ID, alice.ID, model.OrderPatch{Amount: ptr(0.0)})
		requireKind(t, err, apierror.KindBadRequest)
	})

	t.Run("delete then get", func(t *testing.T) {
		n, err := svc.Delete(ctx, second.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = svc.Get(ctx, second.ID, alice.ID)
		requireKind(t, err, apierror.KindNotFound)
	})
}
