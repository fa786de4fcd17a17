package service_test

import (
	"errors"
	"strings"
	"testing"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMovement_DirectIn(t *testing.T) {
	// GIVEN: A rack holding 10 units
	// WHEN: Recording a direct in movement of 5
	// THEN: The transaction is completed immediately and the rack holds 15

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))

	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "in",
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 5)},
	}, keeperActor())
	require.NoError(t, err)

	assert.Equal(t, model.TxCompleted, tx.Status)
	assert.False(t, tx.OrderMode)
	assert.NotNil(t, tx.CompletedAt)
	assert.True(t, strings.HasPrefix(tx.Code, "IN-DIR-"), "code was %s", tx.Code)

	require.Len(t, tx.Items, 1)
	assert.Equal(t, 10, tx.Items[0].PreviousStock)
	assert.Equal(t, 15, tx.Items[0].NewStock)

	assert.Equal(t, 15, e.rackStock(t, rack.ID, product.ID))
}

func TestCreateMovement_DirectOut(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))

	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "out",
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 4)},
	}, keeperActor())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tx.Code, "OUT-DIR-"))
	assert.Equal(t, 6, e.rackStock(t, rack.ID, product.ID))
}

func TestCreateMovement_SingleItemFlattensOntoRoot(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))

	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "in",
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 5)},
	}, keeperActor())
	require.NoError(t, err)

	require.NotNil(t, tx.ProductID)
	assert.Equal(t, product.ID, *tx.ProductID)
	assert.Equal(t, rack.ID, *tx.RackID)
	assert.Equal(t, 5, *tx.Quantity)
	assert.Equal(t, 10, *tx.PreviousStock)
	assert.Equal(t, 15, *tx.NewStock)
}

func TestCreateMovement_MultiItemStaysUnflattened(t *testing.T) {
	e := newEnv(t)
	bolt := e.seedProduct(t, "Bolt")
	nut := e.seedProduct(t, "Nut")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(bolt.ID, 10), entry(nut.ID, 20))

	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "out",
		Items: []service.LineItemInput{
			item(bolt.ID.String(), project.ID.String(), rack.ID.String(), 2),
			item(nut.ID.String(), project.ID.String(), rack.ID.String(), 3),
		},
	}, keeperActor())
	require.NoError(t, err)

	require.Len(t, tx.Items, 2)
	assert.Nil(t, tx.ProductID)
	assert.Equal(t, 8, e.rackStock(t, rack.ID, bolt.ID))
	assert.Equal(t, 17, e.rackStock(t, rack.ID, nut.ID))
}

func TestCreateMovement_OrderModeLeavesStockUntouched(t *testing.T) {
	// GIVEN: A rack holding 10 units
	// WHEN: Recording an order-mode out movement of 4
	// THEN: The transaction is pending, snapshots hold the creation-time
	//       stock on both sides, and the rack still holds 10

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))

	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "out",
		OrderMode: true,
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 4)},
	}, keeperActor())
	require.NoError(t, err)

	assert.Equal(t, model.TxPending, tx.Status)
	assert.Nil(t, tx.CompletedAt)
	assert.True(t, strings.HasPrefix(tx.Code, "OUT-ORD-"))

	require.Len(t, tx.Items, 1)
	assert.Equal(t, 10, tx.Items[0].PreviousStock)
	assert.Equal(t, 10, tx.Items[0].NewStock)

	assert.Equal(t, 10, e.rackStock(t, rack.ID, product.ID))
}

func TestCreateMovement_BatchRejectionPersistsNothing(t *testing.T) {
	// GIVEN: A two-item batch where the second item is invalid
	// WHEN: Recording the movement
	// THEN: A BatchValidationError is returned and neither the transaction
	//       nor the first item's delta was persisted

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))

	_, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "out",
		Items: []service.LineItemInput{
			item(product.ID.String(), project.ID.String(), rack.ID.String(), 2),
			item(uuid.New().String(), project.ID.String(), rack.ID.String(), 1),
		},
	}, keeperActor())

	var batchErr *service.BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Items, 1)
	assert.Equal(t, 1, batchErr.Items[0].Index)

	assert.Equal(t, 10, e.rackStock(t, rack.ID, product.ID), "valid item must not apply")
	all, err := e.movements.GetAllTransactions()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateMovement_RejectsBadDirection(t *testing.T) {
	e := newEnv(t)

	_, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "sideways",
		Items:     []service.LineItemInput{item(uuid.New().String(), uuid.New().String(), uuid.New().String(), 1)},
	}, keeperActor())
	require.Error(t, err)

	var batchErr *service.BatchValidationError
	assert.False(t, errors.As(err, &batchErr), "shape errors are not per-item errors")
}

func TestCreateMovement_UnitPriceSnapshot(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	product.Price = decimalFromString(t, "12.50")
	require.NoError(t, e.productRepo.Update(product))

	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01")

	tx, err := e.movements.CreateMovement(&service.CreateMovementRequest{
		Direction: "in",
		Items:     []service.LineItemInput{item(product.ID.String(), project.ID.String(), rack.ID.String(), 3)},
	}, keeperActor())
	require.NoError(t, err)

	require.Len(t, tx.Items, 1)
	assert.True(t, tx.Items[0].UnitPrice.Equal(decimalFromString(t, "12.50")))
}
