package service_test

import (
	"testing"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) seedOrder(t *testing.T, actor service.Actor, direction string, items ...service.LineItemInput) *model.Transaction {
	t.Helper()
	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: direction,
		OrderMode: true,
		Items:     items,
	}, actor)
	require.NoError(t, err)
	return tx
}

func TestCompleteOrder_AppliesDeltaAtCompletionTime(t *testing.T) {
	// GIVEN: A pending out-order of 4 against a rack holding 10
	// WHEN: An admin completes it
	// THEN: The rack drops to 6 and the item snapshots capture the values
	//       as of completion, not creation

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	keeper := keeperActor()

	order := e.seedOrder(t, keeper, "out", item(product.ID.String(), project.ID.String(), rack.ID.String(), 4))

	result, err := e.orders.CompleteOrder(order.ID, adminActor())
	require.NoError(t, err)

	assert.Empty(t, result.Warnings)
	assert.Equal(t, model.TxCompleted, result.Transaction.Status)
	assert.NotNil(t, result.Transaction.CompletedAt)

	require.Len(t, result.Transaction.Items, 1)
	assert.Equal(t, 10, result.Transaction.Items[0].PreviousStock)
	assert.Equal(t, 6, result.Transaction.Items[0].NewStock)
	assert.Equal(t, 6, e.rackStock(t, rack.ID, product.ID))

	// Persisted flattened root is in sync
	reloaded, err := e.movements.GetTransactionByID(order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.NewStock)
	assert.Equal(t, 6, *reloaded.NewStock)
	assert.Equal(t, model.TxCompleted, reloaded.Status)
}

func TestCompleteOrder_SeesStockMovedAfterCreation(t *testing.T) {
	// GIVEN: An in-order created when the rack held 3, then a direct
	//        movement raises it to 8
	// WHEN: Completing the order for 10 more
	// THEN: Snapshots reflect 8 -> 18, not the creation-time 3

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 3))
	keeper := keeperActor()

	order := e.seedOrder(t, keeper, "in", item(product.ID.String(), project.ID.String(), rack.ID.String(), 10))

	_, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "in",
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 5)},
	}, keeper)
	require.NoError(t, err)

	result, err := e.orders.CompleteOrder(order.ID, adminActor())
	require.NoError(t, err)
	require.Len(t, result.Transaction.Items, 1)
	assert.Equal(t, 8, result.Transaction.Items[0].PreviousStock)
	assert.Equal(t, 18, result.Transaction.Items[0].NewStock)
}

func TestCompleteOrder_PartialFailureCompletesWithWarnings(t *testing.T) {
	// GIVEN: A two-item out-order; after creation one rack is drained
	// WHEN: Completing
	// THEN: The valid item applies, the drained one becomes a warning, and
	//       the order still completes

	e := newEnv(t)
	bolt := e.seedProduct(t, "Bolt")
	nut := e.seedProduct(t, "Nut")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(bolt.ID, 10), entry(nut.ID, 10))
	keeper := keeperActor()

	order := e.seedOrder(t, keeper, "out",
		item(bolt.ID.String(), project.ID.String(), rack.ID.String(), 4),
		item(nut.ID.String(), project.ID.String(), rack.ID.String(), 6),
	)

	// Drain the nut stock below the ordered quantity
	_, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "out",
		Items:     []service.LineItemInput{item(nut.ID.String(), project.ID.String(), rack.ID.String(), 7)},
	}, keeper)
	require.NoError(t, err)

	result, err := e.orders.CompleteOrder(order.ID, adminActor())
	require.NoError(t, err)

	assert.Equal(t, model.TxCompleted, result.Transaction.Status)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, nut.ID, result.Warnings[0].ProductID)

	assert.Equal(t, 6, e.rackStock(t, rack.ID, bolt.ID))
	assert.Equal(t, 3, e.rackStock(t, rack.ID, nut.ID), "failed item must not apply")
}

func TestCompleteOrder_AllItemsFailMarksOrderFailed(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 5))
	keeper := keeperActor()

	order := e.seedOrder(t, keeper, "out", item(product.ID.String(), project.ID.String(), rack.ID.String(), 5))

	// Drain everything before completion
	_, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "out",
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 5)},
	}, keeper)
	require.NoError(t, err)

	result, err := e.orders.CompleteOrder(order.ID, adminActor())
	require.NoError(t, err)

	assert.Equal(t, model.TxFailed, result.Transaction.Status)
	assert.Nil(t, result.Transaction.CompletedAt)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 0, e.rackStock(t, rack.ID, product.ID))
}

func TestCompleteOrder_Gates(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	keeper := keeperActor()

	order := e.seedOrder(t, keeper, "in", item(product.ID.String(), project.ID.String(), rack.ID.String(), 1))

	t.Run("non-admin forbidden", func(t *testing.T) {
		_, err := e.orders.CompleteOrder(order.ID, keeper)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("direct transactions are not completable", func(t *testing.T) {
		direct, err := e.movements.CreateMovement(&service.CreateMovementRequest{
			Direction: "in",
			Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 1)},
		}, keeper)
		require.NoError(t, err)

		_, err = e.orders.CompleteOrder(direct.ID, adminActor())
		assert.ErrorIs(t, err, service.ErrNotOrderMode)
	})

	t.Run("terminal orders stay terminal", func(t *testing.T) {
		_, err := e.orders.CompleteOrder(order.ID, adminActor())
		require.NoError(t, err)

		_, err = e.orders.CompleteOrder(order.ID, adminActor())
		assert.ErrorIs(t, err, service.ErrNotPending)

		_, err = e.orders.CancelOrder(order.ID, adminActor())
		assert.ErrorIs(t, err, service.ErrNotPending)
	})
}

func TestCancelOrder(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	creator := keeperActor()

	t.Run("creator cancels, stock untouched", func(t *testing.T) {
		order := e.seedOrder(t, creator, "out", item(product.ID.String(), project.ID.String(), rack.ID.String(), 4))

		cancelled, err := e.orders.CancelOrder(order.ID, creator)
		require.NoError(t, err)
		assert.Equal(t, model.TxCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, 10, e.rackStock(t, rack.ID, product.ID))
	})

	t.Run("unrelated non-admin cannot cancel", func(t *testing.T) {
		order := e.seedOrder(t, creator, "out", item(product.ID.String(), project.ID.String(), rack.ID.String(), 4))

		_, err := e.orders.CancelOrder(order.ID, keeperActor())
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("admin can cancel any order", func(t *testing.T) {
		order := e.seedOrder(t, creator, "out", item(product.ID.String(), project.ID.String(), rack.ID.String(), 4))

		cancelled, err := e.orders.CancelOrder(order.ID, adminActor())
		require.NoError(t, err)
		assert.Equal(t, model.TxCancelled, cancelled.Status)
	})
}
