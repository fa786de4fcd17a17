package service_test

import (
	"testing"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) submitAdjustment(t *testing.T, actor service.Actor, product *model.Product, project *model.Project, rack *model.Rack, stock, hold int) *model.StockAdjustmentRequest {
	t.Helper()
	req, err := e.adjustments.Submit(&service.SubmitAdjustmentRequest{
		ProductID:      product.ID.String(),
		ProjectID:      project.ID.String(),
		RackID:         rack.ID.String(),
		RequestedStock: stock,
		RequestedHold:  hold,
		Reason:         "cycle count correction",
	}, actor)
	require.NoError(t, err)
	return req
}

func (e *env) projectHold(t *testing.T, projectID, productID uuid.UUID) int {
	t.Helper()
	hold, err := e.holdRepo.GetProjectHold(projectID, productID)
	if err != nil {
		return 0
	}
	return hold.HeldQuantity
}

func TestSubmitAdjustment(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))

	t.Run("manager submits pending request", func(t *testing.T) {
		req := e.submitAdjustment(t, managerActor(), product, project, rack, 25, 5)
		assert.Equal(t, model.AdjPending, req.Status)
		assert.Equal(t, 25, req.RequestedStock)
		assert.Equal(t, 5, req.RequestedHold)

		// Submission alone never touches inventory
		assert.Equal(t, 10, e.rackStock(t, rack.ID, product.ID))
	})

	t.Run("keeper cannot submit", func(t *testing.T) {
		_, err := e.adjustments.Submit(&service.SubmitAdjustmentRequest{
			ProductID:      product.ID.String(),
			ProjectID:      project.ID.String(),
			RackID:         rack.ID.String(),
			RequestedStock: 1,
			Reason:         "nope",
		}, keeperActor())
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("rack must belong to the stated project", func(t *testing.T) {
		other := e.seedProject(t, "Line B")
		_, err := e.adjustments.Submit(&service.SubmitAdjustmentRequest{
			ProductID:      product.ID.String(),
			ProjectID:      other.ID.String(),
			RackID:         rack.ID.String(),
			RequestedStock: 1,
			Reason:         "wrong project",
		}, managerActor())
		assert.ErrorIs(t, err, service.ErrRackNotInProject)
	})
}

func TestApproveAdjustment_OverwritesStockAndHolds(t *testing.T) {
	// GIVEN: A rack holding 10 with no holds, and a pending request for
	//        stock 25 / hold 5
	// WHEN: An admin approves it
	// THEN: Rack stock is overwritten to 25, the rack hold row exists with
	//       5, and the project hold equals the sum over rack holds

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	req := e.submitAdjustment(t, managerActor(), product, project, rack, 25, 5)

	result, err := e.adjustments.Approve(req.ID, adminActor())
	require.NoError(t, err)

	assert.Equal(t, model.AdjApproved, result.Request.Status)
	assert.NotNil(t, result.Request.DecidedAt)
	assert.Equal(t, 10, result.PreviousStock)
	assert.Equal(t, 25, result.NewStock)
	assert.Equal(t, 0, result.PreviousHold)
	assert.Equal(t, 5, result.NewHold)

	assert.Equal(t, 25, e.rackStock(t, rack.ID, product.ID))

	hold, err := e.holdRepo.GetRackHold(rack.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, hold.HeldQuantity)
	assert.Equal(t, 5, e.projectHold(t, project.ID, product.ID))
}

func TestApproveAdjustment_ProjectHoldIsSumOverRacks(t *testing.T) {
	// GIVEN: Two racks of the same project with approved holds 5 and 7
	// THEN: The project hold is 12; zeroing one rack's hold drops it to 7

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rackA := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	rackB := e.seedRack(t, project, "R-02", entry(product.ID, 20))
	admin := adminActor()
	manager := managerActor()

	reqA := e.submitAdjustment(t, manager, product, project, rackA, 10, 5)
	_, err := e.adjustments.Approve(reqA.ID, admin)
	require.NoError(t, err)

	reqB := e.submitAdjustment(t, manager, product, project, rackB, 20, 7)
	_, err = e.adjustments.Approve(reqB.ID, admin)
	require.NoError(t, err)

	assert.Equal(t, 12, e.projectHold(t, project.ID, product.ID))

	// Zero the hold on rack A: its row is deleted, the aggregate shrinks
	reqZero := e.submitAdjustment(t, manager, product, project, rackA, 10, 0)
	result, err := e.adjustments.Approve(reqZero.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, 5, result.PreviousHold)
	assert.Equal(t, 0, result.NewHold)

	_, err = e.holdRepo.GetRackHold(rackA.ID, product.ID)
	assert.Error(t, err, "zero hold rows are deleted, not kept at zero")
	assert.Equal(t, 7, e.projectHold(t, project.ID, product.ID))
}

func TestApproveAdjustment_ZeroEverywhereDeletesProjectHold(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	admin := adminActor()
	manager := managerActor()

	req := e.submitAdjustment(t, manager, product, project, rack, 10, 4)
	_, err := e.adjustments.Approve(req.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, 4, e.projectHold(t, project.ID, product.ID))

	reqZero := e.submitAdjustment(t, manager, product, project, rack, 10, 0)
	_, err = e.adjustments.Approve(reqZero.ID, admin)
	require.NoError(t, err)

	_, err = e.holdRepo.GetProjectHold(project.ID, product.ID)
	assert.Error(t, err, "project hold row is deleted when the sum is zero")
}

func TestApproveAdjustment_InventoryFailureMarksRequestFailed(t *testing.T) {
	// GIVEN: A pending request whose rack disappears before approval
	// WHEN: Approving
	// THEN: An InventoryUpdateError is returned and the request is persisted
	//       as failed with the reason recorded

	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	req := e.submitAdjustment(t, managerActor(), product, project, rack, 25, 5)

	require.NoError(t, e.db.Delete(&model.Rack{}, "id = ?", rack.ID).Error)

	_, err := e.adjustments.Approve(req.ID, adminActor())
	var invErr *service.InventoryUpdateError
	require.ErrorAs(t, err, &invErr)

	reloaded, err := e.adjustments.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AdjFailed, reloaded.Status)
	assert.NotEmpty(t, reloaded.FailureReason)

	// Failed is terminal
	_, err = e.adjustments.Approve(req.ID, adminActor())
	assert.ErrorIs(t, err, service.ErrAdjustmentNotPending)
}

func TestRejectAdjustment(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	req := e.submitAdjustment(t, managerActor(), product, project, rack, 99, 9)

	rejected, err := e.adjustments.Reject(req.ID, "count not plausible", adminActor())
	require.NoError(t, err)

	assert.Equal(t, model.AdjRejected, rejected.Status)
	assert.Equal(t, "count not plausible", rejected.RejectionReason)

	// Nothing was written through
	assert.Equal(t, 10, e.rackStock(t, rack.ID, product.ID))
	_, err = e.holdRepo.GetRackHold(rack.ID, product.ID)
	assert.Error(t, err)

	// Decided requests cannot be decided again
	_, err = e.adjustments.Reject(req.ID, "again", adminActor())
	assert.ErrorIs(t, err, service.ErrAdjustmentNotPending)
	_, err = e.adjustments.Approve(req.ID, adminActor())
	assert.ErrorIs(t, err, service.ErrAdjustmentNotPending)
}

func TestAdjustmentDecisions_AdminOnly(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	req := e.submitAdjustment(t, managerActor(), product, project, rack, 25, 5)

	_, err := e.adjustments.Approve(req.ID, managerActor())
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = e.adjustments.Reject(req.ID, "no", managerActor())
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestAdjustments_FilterByStatus(t *testing.T) {
	e := newEnv(t)
	product := e.seedProduct(t, "Bolt")
	project := e.seedProject(t, "Line A")
	rack := e.seedRack(t, project, "R-01", entry(product.ID, 10))
	manager := managerActor()

	pending := e.submitAdjustment(t, manager, product, project, rack, 11, 0)
	decided := e.submitAdjustment(t, manager, product, project, rack, 12, 0)
	_, err := e.adjustments.Reject(decided.ID, "no", adminActor())
	require.NoError(t, err)

	status := model.AdjPending
	got, err := e.adjustments.GetAll(&status)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)

	all, err := e.adjustments.GetAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
