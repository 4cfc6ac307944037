package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oficina-avance/oficina/internal/apperr"
	"github.com/oficina-avance/oficina/internal/auth"
	"github.com/oficina-avance/oficina/internal/models"
	"github.com/oficina-avance/oficina/internal/storage"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryWorkOrders - хранилище заказ-нарядов в памяти. Транзакцию
// ведёт pgxmock, сам tx здесь не используется.
type memoryWorkOrders struct {
	orders    map[uuid.UUID]*models.WorkOrder
	services  map[uuid.UUID][]*models.OsService
	parts     map[uuid.UUID][]*models.OsPart
	history   map[uuid.UUID][]*models.OsHistory
	vehicles  map[uuid.UUID]bool
	mechanics map[uuid.UUID]bool
	number    int64
	clock     time.Time
	// failOn задаёт ошибку, которую вернёт метод с указанным именем.
	failOn map[string]error
}

func newMemoryWorkOrders() *memoryWorkOrders {
	return &memoryWorkOrders{
		orders:    map[uuid.UUID]*models.WorkOrder{},
		services:  map[uuid.UUID][]*models.OsService{},
		parts:     map[uuid.UUID][]*models.OsPart{},
		history:   map[uuid.UUID][]*models.OsHistory{},
		vehicles:  map[uuid.UUID]bool{},
		mechanics: map[uuid.UUID]bool{},
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memoryWorkOrders) fail(method string) error {
	return m.failOn[method]
}

func (m *memoryWorkOrders) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryWorkOrders) CreateTx(_ context.Context, _ pgx.Tx, order *models.WorkOrder) error {
	if err := m.fail("CreateTx"); err != nil {
		return err
	}
	if !m.vehicles[order.VehicleID] {
		return storage.ErrVehicleNotFound
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.number++
	order.Number = m.number
	order.StartDate = m.tick()
	order.UpdatedAt = order.StartDate
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memoryWorkOrders) GetForUpdateTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.WorkOrder, error) {
	if err := m.fail("GetForUpdateTx"); err != nil {
		return nil, err
	}
	stored, ok := m.orders[id]
	if !ok {
		return nil, storage.ErrWorkOrderNotFound
	}
	order := *stored
	return &order, nil
}

func (m *memoryWorkOrders) UpdateTx(_ context.Context, _ pgx.Tx, order *models.WorkOrder) error {
	if err := m.fail("UpdateTx"); err != nil {
		return err
	}
	if _, ok := m.orders[order.ID]; !ok {
		return storage.ErrWorkOrderNotFound
	}
	if order.MechanicID != nil && !m.mechanics[*order.MechanicID] {
		return storage.ErrMechanicNotFound
	}
	order.UpdatedAt = m.tick()
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memoryWorkOrders) AddServiceTx(_ context.Context, _ pgx.Tx, service *models.OsService) error {
	if err := m.fail("AddServiceTx"); err != nil {
		return err
	}
	service.ID = uuid.New()
	service.CreatedAt = m.tick()
	m.services[service.WorkOrderID] = append(m.services[service.WorkOrderID], service)
	return nil
}

func (m *memoryWorkOrders) AddPartTx(_ context.Context, _ pgx.Tx, part *models.OsPart) error {
	if err := m.fail("AddPartTx"); err != nil {
		return err
	}
	part.ID = uuid.New()
	part.CreatedAt = m.tick()
	m.parts[part.WorkOrderID] = append(m.parts[part.WorkOrderID], part)
	return nil
}

func (m *memoryWorkOrders) AddHistoryTx(_ context.Context, _ pgx.Tx, entry *models.OsHistory) error {
	if err := m.fail("AddHistoryTx"); err != nil {
		return err
	}
	entry.ID = uuid.New()
	entry.CreatedAt = m.tick()
	stored := *entry
	m.history[entry.WorkOrderID] = append(m.history[entry.WorkOrderID], &stored)
	return nil
}

func (m *memoryWorkOrders) ListServicesTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID) ([]*models.OsService, error) {
	if err := m.fail("ListServicesTx"); err != nil {
		return nil, err
	}
	return m.services[orderID], nil
}

func (m *memoryWorkOrders) ListPartsTx(_ context.Context, _ pgx.Tx, orderID uuid.UUID) ([]*models.OsPart, error) {
	if err := m.fail("ListPartsTx"); err != nil {
		return nil, err
	}
	return m.parts[orderID], nil
}

func (m *memoryWorkOrders) List(_ context.Context, filter models.WorkOrderFilter) ([]*models.WorkOrderSummary, error) {
	list := make([]*models.WorkOrderSummary, 0, len(m.orders))
	for _, o := range m.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		list = append(list, &models.WorkOrderSummary{Order: *o})
	}
	slices.SortFunc(list, func(a, b *models.WorkOrderSummary) int {
		return int(b.Order.Number - a.Order.Number)
	})
	return list, nil
}

func (m *memoryWorkOrders) GetDetails(_ context.Context, id uuid.UUID) (*models.WorkOrderDetails, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, storage.ErrWorkOrderNotFound
	}
	history := slices.Clone(m.history[id])
	slices.Reverse(history)
	return &models.WorkOrderDetails{
		WorkOrderSummary: models.WorkOrderSummary{Order: *o},
		Services:         m.services[id],
		Parts:            m.parts[id],
		History:          history,
	}, nil
}

type engineFixture struct {
	mock  pgxmock.PgxPoolIface
	store *memoryWorkOrders
	svc   *WorkOrderServiceImpl
	now   time.Time
}

func newEngine(t *testing.T, policy models.TransitionPolicy) *engineFixture {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	f := &engineFixture{
		mock:  mock,
		store: newMemoryWorkOrders(),
		now:   time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC),
	}
	f.svc = NewWorkOrderService(mock, f.store, policy, nil)
	f.svc.nowFunc = func() time.Time { return f.now }
	return f
}

func (f *engineFixture) expectCommit() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *engineFixture) expectRollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

// openOrder регистрирует автомобиль и открывает по нему заказ-наряд.
func (f *engineFixture) openOrder(t *testing.T, actor auth.Actor) *models.WorkOrder {
	t.Helper()
	vehicleID := uuid.New()
	f.store.vehicles[vehicleID] = true

	f.expectCommit()
	order, err := f.svc.Create(context.Background(), actor, models.CreateWorkOrderRequest{
		VehicleID:   vehicleID,
		Description: "Brake noise",
		Mileage:     intPtr(85000),
	})
	require.NoError(t, err)
	return order
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var (
	manager      = auth.Actor{UserID: uuid.New(), Role: models.RoleManager}
	mechanic     = auth.Actor{UserID: uuid.New(), Role: models.RoleMechanic}
	receptionist = auth.Actor{UserID: uuid.New(), Role: models.RoleReceptionist}
)

func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	if msg != "" {
		got, ok := apperr.Message(err)
		assert.True(t, ok)
		assert.Equal(t, msg, got)
	}
}

func TestWorkOrderService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)

	// Открытие.
	order := f.openOrder(t, receptionist)
	assert.Equal(t, models.StatusOpen, order.Status)
	assert.Equal(t, models.PriorityNormal, order.Priority)
	assert.Equal(t, int64(1), order.Number)
	assert.Nil(t, order.EndDate)

	details, err := f.svc.Show(ctx, receptionist, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", details.Order.LaborTotal.StringFixed(2))
	assert.Equal(t, "0.00", details.Order.PartsTotal.StringFixed(2))
	assert.Equal(t, "0.00", details.Order.GrandTotal.StringFixed(2))
	require.Len(t, details.History, 1)
	assert.Equal(t, models.HistoryOrderOpened, details.History[0].Action)
	assert.Equal(t, receptionist.UserID, *details.History[0].UserID)

	// Работа и запчасть.
	f.expectCommit()
	service, err := f.svc.AddService(ctx, mechanic, order.ID, models.AddServiceRequest{
		Description: "Troca de pastilhas",
		Price:       dec("150.00"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, service.ID)

	f.expectCommit()
	part, err := f.svc.AddPart(ctx, mechanic, order.ID, models.AddPartRequest{
		Name:      "Pastilha de freio",
		Quantity:  intPtr(2),
		UnitPrice: dec("45.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OriginInternalStock, part.Origin)

	stored := f.store.orders[order.ID]
	assert.Equal(t, "150.00", stored.LaborTotal.StringFixed(2))
	assert.Equal(t, "91.00", stored.PartsTotal.StringFixed(2))
	assert.Equal(t, "241.00", stored.GrandTotal.StringFixed(2))

	// Скидка.
	f.expectCommit()
	updated, err := f.svc.UpdateDetails(ctx, manager, order.ID, models.UpdateDetailsRequest{Discount: dec("41.00")})
	require.NoError(t, err)
	assert.Equal(t, "200.00", updated.GrandTotal.StringFixed(2))

	// Закрытие блокирует позиции.
	f.expectCommit()
	finished, err := f.svc.SetStatus(ctx, mechanic, order.ID, models.SetStatusRequest{Status: models.StatusFinished})
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, finished.Status)
	require.NotNil(t, finished.EndDate)
	assert.True(t, f.now.Equal(*finished.EndDate))

	f.expectRollback()
	_, err = f.svc.AddPart(ctx, mechanic, order.ID, models.AddPartRequest{
		Name:      "Fluido",
		Quantity:  intPtr(1),
		UnitPrice: dec("30"),
	})
	assertKind(t, err, apperr.ErrConflict, "order is locked")
	assert.Len(t, f.store.parts[order.ID], 1)

	// Переоткрытие.
	f.expectCommit()
	reopened, err := f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{
		Status: models.StatusInProgress,
		Reason: strPtr("Part failed"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, reopened.Status)
	assert.Nil(t, reopened.EndDate)

	details, err = f.svc.Show(ctx, manager, order.ID)
	require.NoError(t, err)
	require.Len(t, details.History, 3)
	assert.Equal(t, "Order REOPENED to IN_PROGRESS. Reason: Part failed", details.History[0].Action)
	assert.Equal(t, "Status changed to: FINISHED", details.History[1].Action)
	assert.Equal(t, models.HistoryOrderOpened, details.History[2].Action)
	assert.Equal(t, "200.00", details.Order.GrandTotal.StringFixed(2))
}

func TestWorkOrderService_RejectsZeroActor(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	id := uuid.New()

	_, err := f.svc.Create(ctx, auth.Actor{}, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "x"})
	assertKind(t, err, apperr.ErrForbidden, "actor is required")

	_, err = f.svc.List(ctx, auth.Actor{}, models.WorkOrderFilter{})
	assertKind(t, err, apperr.ErrForbidden, "")

	_, err = f.svc.Show(ctx, auth.Actor{}, id)
	assertKind(t, err, apperr.ErrForbidden, "")

	_, err = f.svc.SetStatus(ctx, auth.Actor{UserID: uuid.New()}, id, models.SetStatusRequest{Status: models.StatusDiagnosis})
	assertKind(t, err, apperr.ErrForbidden, "")

	_, err = f.svc.AddService(ctx, auth.Actor{Role: models.RoleAdmin}, id, models.AddServiceRequest{Description: "x", Price: dec("1")})
	assertKind(t, err, apperr.ErrForbidden, "")
}

func TestWorkOrderService_RoleGating(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	order := f.openOrder(t, manager)

	_, err := f.svc.Create(ctx, mechanic, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "x"})
	assertKind(t, err, apperr.ErrForbidden, "")

	_, err = f.svc.SetStatus(ctx, receptionist, order.ID, models.SetStatusRequest{Status: models.StatusDiagnosis})
	assertKind(t, err, apperr.ErrForbidden, "")

	_, err = f.svc.AddPart(ctx, receptionist, order.ID, models.AddPartRequest{Name: "x", Quantity: intPtr(1), UnitPrice: dec("1")})
	assertKind(t, err, apperr.ErrForbidden, "")

	f.expectCommit()
	_, err = f.svc.SetStatus(ctx, mechanic, order.ID, models.SetStatusRequest{Status: models.StatusCanceled})
	require.NoError(t, err)

	f.expectRollback()
	_, err = f.svc.SetStatus(ctx, mechanic, order.ID, models.SetStatusRequest{
		Status: models.StatusInProgress,
		Reason: strPtr("customer came back"),
	})
	assertKind(t, err, apperr.ErrForbidden, "")
	assert.Equal(t, models.StatusCanceled, f.store.orders[order.ID].Status)
}

func TestWorkOrderService_LockedOrder(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	order := f.openOrder(t, manager)

	f.expectCommit()
	_, err := f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{Status: models.StatusCanceled})
	require.NoError(t, err)
	historyBefore := len(f.store.history[order.ID])

	tests := []struct {
		name string
		call func() error
		kind error
		msg  string
	}{
		{
			name: "add service",
			call: func() error {
				_, err := f.svc.AddService(ctx, manager, order.ID, models.AddServiceRequest{Description: "x", Price: dec("10")})
				return err
			},
			kind: apperr.ErrConflict,
			msg:  "order is locked",
		},
		{
			name: "update details",
			call: func() error {
				_, err := f.svc.UpdateDetails(ctx, manager, order.ID, models.UpdateDetailsRequest{Notes: strPtr("late note")})
				return err
			},
			kind: apperr.ErrConflict,
			msg:  "order is locked",
		},
		{
			name: "status change without reason",
			call: func() error {
				_, err := f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{Status: models.StatusDiagnosis})
				return err
			},
			kind: apperr.ErrConflict,
			msg:  "order is locked",
		},
		{
			name: "reopen to another status",
			call: func() error {
				_, err := f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{
					Status: models.StatusDiagnosis,
					Reason: strPtr("wrong status"),
				})
				return err
			},
			kind: apperr.ErrConflict,
		},
		{
			name: "blank reason",
			call: func() error {
				_, err := f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{
					Status: models.StatusInProgress,
					Reason: strPtr("   "),
				})
				return err
			},
			kind: apperr.ErrConflict,
			msg:  "order is locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.expectRollback()
			assertKind(t, tt.call(), tt.kind, tt.msg)
		})
	}

	stored := f.store.orders[order.ID]
	assert.Equal(t, models.StatusCanceled, stored.Status)
	assert.NotNil(t, stored.EndDate)
	assert.Nil(t, stored.Notes)
	assert.Len(t, f.store.history[order.ID], historyBefore)
}

func TestWorkOrderService_SetStatusClaim(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyStrict)
	order := f.openOrder(t, manager)
	f.store.mechanics[mechanic.UserID] = true

	f.expectCommit()
	claimed, err := f.svc.SetStatus(ctx, mechanic, order.ID, models.SetStatusRequest{
		Status:     models.StatusOpen,
		MechanicID: &mechanic.UserID,
	})
	require.NoError(t, err)
	require.NotNil(t, claimed.MechanicID)
	assert.Equal(t, mechanic.UserID, *claimed.MechanicID)

	history := f.store.history[order.ID]
	require.Len(t, history, 2)
	assert.Equal(t, "Status changed to: OPEN", history[1].Action)

	unknown := uuid.New()
	f.expectRollback()
	_, err = f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{Status: models.StatusDiagnosis, MechanicID: &unknown})
	assertKind(t, err, apperr.ErrNotFound, "mechanic not found")
	assert.Equal(t, mechanic.UserID, *f.store.orders[order.ID].MechanicID)
}

func TestWorkOrderService_StrictPolicy(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyStrict)
	order := f.openOrder(t, manager)

	f.expectRollback()
	_, err := f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{Status: models.StatusFinished})
	assertKind(t, err, apperr.ErrConflict, "")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	f.expectCommit()
	_, err = f.svc.SetStatus(ctx, manager, order.ID, models.SetStatusRequest{Status: models.StatusDiagnosis})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDiagnosis, f.store.orders[order.ID].Status)
}

func TestWorkOrderService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	id := uuid.New()
	unknownPriority := models.Priority("ASAP")

	tests := []struct {
		name string
		call func() error
	}{
		{"missing vehicle", func() error {
			_, err := f.svc.Create(ctx, manager, models.CreateWorkOrderRequest{Description: "x"})
			return err
		}},
		{"blank description", func() error {
			_, err := f.svc.Create(ctx, manager, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "  "})
			return err
		}},
		{"negative mileage", func() error {
			_, err := f.svc.Create(ctx, manager, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "x", Mileage: intPtr(-1)})
			return err
		}},
		{"unknown priority", func() error {
			_, err := f.svc.Create(ctx, manager, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "x", Priority: unknownPriority})
			return err
		}},
		{"unknown status", func() error {
			_, err := f.svc.SetStatus(ctx, manager, id, models.SetStatusRequest{Status: "DONE"})
			return err
		}},
		{"negative discount", func() error {
			_, err := f.svc.UpdateDetails(ctx, manager, id, models.UpdateDetailsRequest{Discount: dec("-1")})
			return err
		}},
		{"details priority", func() error {
			_, err := f.svc.UpdateDetails(ctx, manager, id, models.UpdateDetailsRequest{Priority: &unknownPriority})
			return err
		}},
		{"negative price", func() error {
			_, err := f.svc.AddService(ctx, manager, id, models.AddServiceRequest{Description: "x", Price: dec("-0.01")})
			return err
		}},
		{"missing price", func() error {
			_, err := f.svc.AddService(ctx, manager, id, models.AddServiceRequest{Description: "x"})
			return err
		}},
		{"zero quantity", func() error {
			_, err := f.svc.AddPart(ctx, manager, id, models.AddPartRequest{Name: "x", Quantity: intPtr(0), UnitPrice: dec("1")})
			return err
		}},
		{"unknown origin", func() error {
			_, err := f.svc.AddPart(ctx, manager, id, models.AddPartRequest{Name: "x", Quantity: intPtr(1), UnitPrice: dec("1"), Origin: "roubado"})
			return err
		}},
		{"mileage beyond integer column", func() error {
			_, err := f.svc.Create(ctx, manager, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "x", Mileage: intPtr(3_000_000_000)})
			return err
		}},
		{"quantity beyond integer column", func() error {
			_, err := f.svc.AddPart(ctx, manager, id, models.AddPartRequest{Name: "x", Quantity: intPtr(3_000_000_000), UnitPrice: dec("1")})
			return err
		}},
		{"unit price beyond money column", func() error {
			_, err := f.svc.AddPart(ctx, manager, id, models.AddPartRequest{Name: "x", Quantity: intPtr(1), UnitPrice: dec("10000000000")})
			return err
		}},
		{"price rounds beyond money column", func() error {
			_, err := f.svc.AddService(ctx, manager, id, models.AddServiceRequest{Description: "x", Price: dec("9999999999.995")})
			return err
		}},
		{"estimated time beyond hours column", func() error {
			_, err := f.svc.AddService(ctx, manager, id, models.AddServiceRequest{Description: "x", Price: dec("1"), EstimatedTime: dec("1000000")})
			return err
		}},
		{"negative real time", func() error {
			_, err := f.svc.AddService(ctx, manager, id, models.AddServiceRequest{Description: "x", Price: dec("1"), RealTime: dec("-1")})
			return err
		}},
		{"discount beyond money column", func() error {
			_, err := f.svc.UpdateDetails(ctx, manager, id, models.UpdateDetailsRequest{Discount: dec("1e20")})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, tt.call(), apperr.ErrValidation, "")
		})
	}
}

func TestWorkOrderService_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)

	f.expectRollback()
	_, err := f.svc.Create(ctx, manager, models.CreateWorkOrderRequest{VehicleID: uuid.New(), Description: "x"})
	assertKind(t, err, apperr.ErrNotFound, "vehicle not found")
	assert.Empty(t, f.store.orders)

	_, err = f.svc.Show(ctx, manager, uuid.New())
	assertKind(t, err, apperr.ErrNotFound, "work order not found")

	f.expectRollback()
	_, err = f.svc.AddService(ctx, manager, uuid.New(), models.AddServiceRequest{Description: "x", Price: dec("1")})
	assertKind(t, err, apperr.ErrNotFound, "work order not found")
}

func TestWorkOrderService_LegacyPartOrigin(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	order := f.openOrder(t, manager)

	f.expectCommit()
	part, err := f.svc.AddPart(ctx, mechanic, order.ID, models.AddPartRequest{
		Name:      "Bateria",
		Quantity:  intPtr(1),
		UnitPrice: dec("0"),
		Origin:    "Trazido pelo Cliente",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OriginCustomerSupplied, part.Origin)
	assert.Equal(t, "0.00", f.store.orders[order.ID].GrandTotal.StringFixed(2))
}

func TestWorkOrderService_ListFilter(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	first := f.openOrder(t, manager)
	second := f.openOrder(t, manager)

	f.expectCommit()
	_, err := f.svc.SetStatus(ctx, manager, first.ID, models.SetStatusRequest{Status: models.StatusDiagnosis})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, receptionist, models.WorkOrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].Order.ID)

	open := models.StatusOpen
	filtered, err := f.svc.List(ctx, receptionist, models.WorkOrderFilter{Status: &open})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].Order.ID)

	bogus := models.WorkOrderStatus("LOST")
	_, err = f.svc.List(ctx, receptionist, models.WorkOrderFilter{Status: &bogus})
	assertKind(t, err, apperr.ErrValidation, "")
}

func TestWorkOrderService_StorageErrorIsWrapped(t *testing.T) {
	f := newEngine(t, models.PolicyPermissive)
	f.mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := f.svc.AddService(context.Background(), manager, uuid.New(), models.AddServiceRequest{Description: "x", Price: dec("1")})
	require.Error(t, err)
	_, classified := apperr.Message(err)
	assert.False(t, classified)
	assert.Contains(t, err.Error(), "add service")
}

func TestWorkOrderService_RollsBackOnStepFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("write failed")

	tests := []struct {
		name   string
		method string
		call   func(f *engineFixture, id uuid.UUID) error
	}{
		{"history append after status update", "AddHistoryTx", func(f *engineFixture, id uuid.UUID) error {
			_, err := f.svc.SetStatus(ctx, manager, id, models.SetStatusRequest{Status: models.StatusInProgress})
			return err
		}},
		{"totals recount after service insert", "ListPartsTx", func(f *engineFixture, id uuid.UUID) error {
			_, err := f.svc.AddService(ctx, manager, id, models.AddServiceRequest{Description: "Pads", Price: dec("120")})
			return err
		}},
		{"order update after part insert", "UpdateTx", func(f *engineFixture, id uuid.UUID) error {
			_, err := f.svc.AddPart(ctx, manager, id, models.AddPartRequest{Name: "Filter", Quantity: intPtr(1), UnitPrice: dec("35")})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngine(t, models.PolicyPermissive)
			order := f.openOrder(t, manager)

			f.store.failOn = map[string]error{tt.method: boom}
			f.expectRollback()

			err := tt.call(f, order.ID)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			_, classified := apperr.Message(err)
			assert.False(t, classified)
		})
	}
}

func TestWorkOrderService_TotalsOverflowRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newEngine(t, models.PolicyPermissive)
	order := f.openOrder(t, manager)

	f.expectRollback()
	_, err := f.svc.AddPart(ctx, manager, order.ID, models.AddPartRequest{
		Name:      "Engine",
		Quantity:  intPtr(2),
		UnitPrice: dec("9999999999.99"),
	})
	assertKind(t, err, apperr.ErrValidation, "work order totals must not exceed 9999999999.99")

	stored := f.store.orders[order.ID]
	assert.True(t, stored.GrandTotal.IsZero())
}
