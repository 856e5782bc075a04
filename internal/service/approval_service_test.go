package service

import (
	"context"
	"testing"

	"inventory-portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type approvalEnv struct {
	*stockEnv

	approvals   *fakeApprovalRepo
	purchases   *fakePurchaseRepo
	sales       *fakeSaleRepo
	adjustments *fakeAdjustmentRepo
	transfers   *fakeTransferRepo
	notifier    *fakeNotifier
	svc         ApprovalService

	requester uuid.UUID
	reviewer  uuid.UUID
}

func newApprovalEnv(t *testing.T) *approvalEnv {
	t.Helper()
	stock := newStockEnv(t)

	env := &approvalEnv{
		stockEnv:    stock,
		approvals:   &fakeApprovalRepo{requests: map[uuid.UUID]*model.ApprovalRequest{}},
		purchases:   &fakePurchaseRepo{requests: map[uuid.UUID]*model.PurchaseReceiveRequest{}},
		sales:       &fakeSaleRepo{sales: map[uuid.UUID]*model.Sale{}},
		adjustments: &fakeAdjustmentRepo{adjustments: map[uuid.UUID]*model.StockAdjustment{}},
		transfers:   &fakeTransferRepo{transfers: map[uuid.UUID]*model.StockTransfer{}},
		notifier:    &fakeNotifier{},
		requester:   uuid.New(),
		reviewer:    uuid.New(),
	}
	env.svc = NewApprovalService(
		env.approvals, env.purchases, env.sales, env.adjustments, env.transfers,
		env.rules, env.audit, stock.svc, fakeTxManager{}, env.notifier, zap.NewNop(),
	)
	return env
}

func (e *approvalEnv) submitPurchase(t *testing.T, quantity int64) *SubmitResult {
	t.Helper()
	result, err := e.svc.SubmitPurchaseReceive(context.Background(), SubmitPurchaseReceiveInput{
		SupplierRef: "SUP-1",
		RequestedBy: e.requester,
		Items: []PurchaseReceiveItemInput{{
			ProductID:   e.product.ID,
			WarehouseID: e.mainWH.ID,
			Quantity:    decimal.NewFromInt(quantity),
		}},
	})
	require.NoError(t, err)
	return result
}

func TestSubmitPurchaseReceiveCreatesPendingRequest(t *testing.T) {
	env := newApprovalEnv(t)

	result := env.submitPurchase(t, 5)
	assert.True(t, len(result.Number) > 0)

	staged, err := env.purchases.FindByID(context.Background(), result.EntityID)
	require.NoError(t, err)
	assert.Equal(t, model.StagingPendingApproval, staged.Status)

	request, err := env.svc.GetRequest(context.Background(), result.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, request.Status)
	assert.Equal(t, model.ApprovalEntityPurchaseReceive, request.EntityType)
	assert.Equal(t, env.requester, request.RequestedBy)

	// Submission alone never touches the ledger.
	assert.Empty(t, env.movements.movements)
	assert.Equal(t, []string{model.ActionCreateApprovalRequest}, env.audit.actions())
}

func TestSubmitRejectsEmptyItems(t *testing.T) {
	env := newApprovalEnv(t)

	_, err := env.svc.SubmitSale(context.Background(), SubmitSaleInput{RequestedBy: env.requester})
	assert.True(t, IsValidationError(err))

	_, err = env.svc.SubmitPurchaseReceive(context.Background(), SubmitPurchaseReceiveInput{RequestedBy: env.requester})
	assert.True(t, IsValidationError(err))
}

func TestApprovePurchaseReceiveExecutesOnce(t *testing.T) {
	env := newApprovalEnv(t)
	submitted := env.submitPurchase(t, 5)

	decision, err := env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "looks good")
	require.NoError(t, err)
	assert.True(t, decision.Executed)
	assert.Equal(t, model.ApprovalApproved, decision.Status)

	// One PURCHASE movement, balance 5, staging RECEIVED.
	require.Len(t, env.movements.movements, 1)
	assert.Equal(t, model.RefKindPurchase, env.movements.movements[0].ReferenceKind)
	assert.Equal(t, submitted.Number, env.movements.movements[0].ReferenceNumber)

	staged, _ := env.purchases.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingReceived, staged.Status)

	require.Len(t, env.notifier.changes, 1)
	assert.Equal(t, env.product.ID, env.notifier.changes[0][0].ProductID)

	// The second approval is a no-op: no error, not executed, ledger
	// unchanged.
	again, err := env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "again")
	require.NoError(t, err)
	assert.False(t, again.Executed)
	assert.Len(t, env.movements.movements, 1)
	assert.Len(t, env.notifier.changes, 1)
}

func TestApproveSaleAppliesNegativeStockGuard(t *testing.T) {
	env := newApprovalEnv(t)
	env.seed(t, env.product, env.mainWH, 2)

	submitted, err := env.svc.SubmitSale(context.Background(), SubmitSaleInput{
		RequestedBy: env.requester,
		Items: []SaleItemInput{{
			ProductID:   env.product.ID,
			WarehouseID: env.mainWH.ID,
			Quantity:    decimal.NewFromInt(5),
		}},
	})
	require.NoError(t, err)

	_, err = env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "")
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The failed execution wrote nothing to the ledger.
	assert.Len(t, env.movements.movements, 1)
	assert.Empty(t, env.notifier.changes)
}

func TestApproveSaleConfirmsAndDisposesSerials(t *testing.T) {
	env := newApprovalEnv(t)
	env.seed(t, env.serialProduct, env.mainWH, 2, "SN-1", "SN-2")

	submitted, err := env.svc.SubmitSale(context.Background(), SubmitSaleInput{
		RequestedBy: env.requester,
		Items: []SaleItemInput{{
			ProductID:     env.serialProduct.ID,
			WarehouseID:   env.mainWH.ID,
			Quantity:      decimal.NewFromInt(2),
			SerialNumbers: []string{"SN-1", "SN-2"},
		}},
	})
	require.NoError(t, err)

	decision, err := env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "")
	require.NoError(t, err)
	assert.True(t, decision.Executed)

	staged, _ := env.sales.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingConfirmed, staged.Status)
	assert.Equal(t, model.SerialStatusSold, env.serials.byNumber("SN-1").Status)
	assert.Equal(t, model.SerialStatusSold, env.serials.byNumber("SN-2").Status)
}

func TestApproveTransferNotifiesBothWarehouses(t *testing.T) {
	env := newApprovalEnv(t)
	env.seed(t, env.product, env.mainWH, 10)

	submitted, err := env.svc.SubmitTransfer(context.Background(), SubmitTransferInput{
		ProductID:       env.product.ID,
		FromWarehouseID: env.mainWH.ID,
		ToWarehouseID:   env.backupWH.ID,
		Quantity:        decimal.NewFromInt(4),
		RequestedBy:     env.requester,
	})
	require.NoError(t, err)

	decision, err := env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "")
	require.NoError(t, err)
	assert.True(t, decision.Executed)

	staged, _ := env.transfers.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingApplied, staged.Status)

	require.Len(t, env.notifier.changes, 1)
	require.Len(t, env.notifier.changes[0], 2)
	assert.Equal(t, env.mainWH.ID, env.notifier.changes[0][0].WarehouseID)
	assert.Equal(t, env.backupWH.ID, env.notifier.changes[0][1].WarehouseID)
}

func TestApproveAdjustmentAppliesSet(t *testing.T) {
	env := newApprovalEnv(t)
	env.seed(t, env.product, env.mainWH, 10)
	target := decimal.NewFromInt(6)

	submitted, err := env.svc.SubmitAdjustment(context.Background(), SubmitAdjustmentInput{
		ProductID:   env.product.ID,
		WarehouseID: env.mainWH.ID,
		Method:      model.AdjustMethodSet,
		Reason:      "cycle count",
		NewQuantity: &target,
		RequestedBy: env.requester,
	})
	require.NoError(t, err)

	decision, err := env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "")
	require.NoError(t, err)
	assert.True(t, decision.Executed)

	balance, err := env.balances.Find(context.Background(), env.product.ID, env.mainWH.ID, nil)
	require.NoError(t, err)
	assert.True(t, balance.Quantity.Equal(target))

	staged, _ := env.adjustments.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingApplied, staged.Status)
}

func TestRejectNeverExecutes(t *testing.T) {
	env := newApprovalEnv(t)
	submitted := env.submitPurchase(t, 5)

	decision, err := env.svc.RejectRequest(context.Background(), submitted.RequestID, env.reviewer, "wrong supplier")
	require.NoError(t, err)
	assert.True(t, decision.Executed)
	assert.Equal(t, model.ApprovalRejected, decision.Status)

	assert.Empty(t, env.movements.movements)
	staged, _ := env.purchases.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingRejected, staged.Status)
}

func TestRejectAfterApproveIsStateConflict(t *testing.T) {
	env := newApprovalEnv(t)
	submitted := env.submitPurchase(t, 5)

	_, err := env.svc.ApproveRequest(context.Background(), submitted.RequestID, env.reviewer, "")
	require.NoError(t, err)

	_, err = env.svc.RejectRequest(context.Background(), submitted.RequestID, env.reviewer, "too late")
	require.ErrorIs(t, err, ErrStateConflict)

	// Executed purchase stays executed and the request keeps its decision.
	staged, _ := env.purchases.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingReceived, staged.Status)
	request, err := env.svc.GetRequest(context.Background(), submitted.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, request.Status)
}

func TestCancelAfterRejectIsStateConflict(t *testing.T) {
	env := newApprovalEnv(t)
	submitted := env.submitPurchase(t, 5)

	_, err := env.svc.RejectRequest(context.Background(), submitted.RequestID, env.reviewer, "no")
	require.NoError(t, err)

	_, err = env.svc.CancelRequest(context.Background(), submitted.RequestID, env.requester, "withdraw")
	require.ErrorIs(t, err, ErrStateConflict)
}

func TestCancelIsRequesterOnly(t *testing.T) {
	env := newApprovalEnv(t)
	submitted := env.submitPurchase(t, 5)

	_, err := env.svc.CancelRequest(context.Background(), submitted.RequestID, env.reviewer, "not mine")
	require.ErrorIs(t, err, ErrPermissionDenied)

	decision, err := env.svc.CancelRequest(context.Background(), submitted.RequestID, env.requester, "changed my mind")
	require.NoError(t, err)
	assert.True(t, decision.Executed)
	assert.Equal(t, model.ApprovalCancelled, decision.Status)

	staged, _ := env.purchases.FindByID(context.Background(), submitted.EntityID)
	assert.Equal(t, model.StagingCancelled, staged.Status)
	assert.Empty(t, env.movements.movements)
}

func TestRequestApprovalEnforcesPendingUniqueness(t *testing.T) {
	env := newApprovalEnv(t)
	submitted := env.submitPurchase(t, 5)

	_, err := env.svc.RequestApproval(context.Background(), model.ApprovalEntityPurchaseReceive, submitted.EntityID, env.requester, "again")
	require.ErrorIs(t, err, ErrPendingRequestExists)
}

func TestRequestApprovalMapsInsertRaceToPendingExists(t *testing.T) {
	env := newApprovalEnv(t)

	// A concurrent insert slips past the pre-check and trips the partial
	// unique index over PENDING rows instead.
	env.approvals.createErr = gorm.ErrDuplicatedKey
	_, err := env.svc.RequestApproval(context.Background(), model.ApprovalEntityPurchaseReceive, uuid.New(), env.requester, "")
	require.ErrorIs(t, err, ErrPendingRequestExists)
}

func TestApproveUnknownRequest(t *testing.T) {
	env := newApprovalEnv(t)

	_, err := env.svc.ApproveRequest(context.Background(), uuid.New(), env.reviewer, "")
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestIsApprovalRequiredPolicyMatrix(t *testing.T) {
	env := newApprovalEnv(t)
	minAmount := decimal.NewFromInt(100)
	env.rules.policies = []model.ApprovalPolicy{
		{EntityType: model.ApprovalEntitySale, Enabled: true, MinAmount: &minAmount},
		{EntityType: model.ApprovalEntityStockTransfer, Enabled: true, WarehouseID: &env.mainWH.ID},
		{EntityType: model.ApprovalEntityStockAdjustment, Enabled: false},
	}
	ctx := context.Background()

	// No policy for the type at all.
	required, err := env.svc.IsApprovalRequired(ctx, model.ApprovalEntityPurchaseReceive, decimal.NewFromInt(1000), nil)
	require.NoError(t, err)
	assert.False(t, required)

	// Amount threshold.
	required, _ = env.svc.IsApprovalRequired(ctx, model.ApprovalEntitySale, decimal.NewFromInt(50), nil)
	assert.False(t, required)
	required, _ = env.svc.IsApprovalRequired(ctx, model.ApprovalEntitySale, decimal.NewFromInt(150), nil)
	assert.True(t, required)

	// Warehouse scope.
	required, _ = env.svc.IsApprovalRequired(ctx, model.ApprovalEntityStockTransfer, decimal.Zero, &env.backupWH.ID)
	assert.False(t, required)
	required, _ = env.svc.IsApprovalRequired(ctx, model.ApprovalEntityStockTransfer, decimal.Zero, &env.mainWH.ID)
	assert.True(t, required)

	// Disabled policies never fire.
	required, _ = env.svc.IsApprovalRequired(ctx, model.ApprovalEntityStockAdjustment, decimal.NewFromInt(1000), nil)
	assert.False(t, required)

	// Unknown type is a validation error.
	_, err = env.svc.IsApprovalRequired(ctx, "SOMETHING_ELSE", decimal.Zero, nil)
	assert.True(t, IsValidationError(err))
}
