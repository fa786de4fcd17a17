package service_test

import (
	"fmt"
	"sync"
	"testing"

	"go-rackstock-ws/internal/mailer"
	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
	"go-rackstock-ws/internal/service"
	"go-rackstock-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection: every session sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Role{}, &model.User{},
		&model.Product{}, &model.Project{}, &model.Rack{},
		&model.Transaction{}, &model.TransactionItem{}, &model.TransactionEmailMarker{},
		&model.StockAdjustmentRequest{}, &model.RackStockHold{}, &model.ProjectStockHold{},
		&model.ActivityLog{}, &model.Notification{},
	))
	return db
}

// env bundles everything a service test needs, wired exactly like main.go.
type env struct {
	db *gorm.DB

	productRepo      repository.ProductRepository
	projectRepo      repository.ProjectRepository
	rackRepo         repository.RackRepository
	txRepo           repository.TransactionRepository
	adjustmentRepo   repository.AdjustmentRepository
	holdRepo         repository.HoldRepository
	activityRepo     repository.ActivityRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	roleRepo         repository.RoleRepository

	hub  *ws.Hub
	mail *recordingMailer

	resolver      *service.EntityResolver
	updater       *service.RackUpdater
	notifications service.NotificationService
	emails        *service.EmailDispatcher

	movements   service.MovementService
	orders      service.OrderService
	adjustments service.AdjustmentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)

	e := &env{
		db:               db,
		productRepo:      repository.NewProductRepo(db),
		projectRepo:      repository.NewProjectRepo(db),
		rackRepo:         repository.NewRackRepo(db),
		txRepo:           repository.NewTransactionRepo(db),
		adjustmentRepo:   repository.NewAdjustmentRepo(db),
		holdRepo:         repository.NewHoldRepo(db),
		activityRepo:     repository.NewActivityRepo(db),
		notificationRepo: repository.NewNotificationRepo(db),
		userRepo:         repository.NewUserRepo(db),
		roleRepo:         repository.NewRoleRepo(db),
		hub:              ws.NewHub(),
		mail:             &recordingMailer{},
	}
	go e.hub.Run()

	require.NoError(t, e.roleRepo.SeedDefaults())

	e.resolver = service.NewEntityResolver(e.productRepo, e.projectRepo, e.rackRepo)
	e.updater = service.NewRackUpdater(e.rackRepo)
	e.notifications = service.NewNotificationService(e.notificationRepo, e.hub)
	e.emails = service.NewEmailDispatcher(e.txRepo, e.userRepo, e.mail)

	e.movements = service.NewMovementService(e.resolver, e.updater, e.txRepo, e.activityRepo, e.notifications, e.emails, db)
	e.orders = service.NewOrderService(e.updater, e.txRepo, e.rackRepo, e.productRepo, e.activityRepo, e.notifications, e.emails, db)
	e.adjustments = service.NewAdjustmentService(e.adjustmentRepo, e.holdRepo, e.productRepo, e.projectRepo, e.rackRepo, e.updater, e.activityRepo, e.notifications, db)
	return e
}

// recordingMailer captures outbound mail instead of delivering it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// =============================================================================
// FIXTURES
// =============================================================================

var seq int

func (e *env) seedProduct(t *testing.T, name string) *model.Product {
	t.Helper()
	seq++
	p := &model.Product{SKU: fmt.Sprintf("SKU-%s-%d", name, seq), Name: name, Unit: "pcs"}
	require.NoError(t, e.productRepo.Create(p))
	return p
}

func (e *env) seedProject(t *testing.T, name string) *model.Project {
	t.Helper()
	p := &model.Project{Name: name}
	require.NoError(t, e.projectRepo.Create(p))
	return p
}

func (e *env) seedRack(t *testing.T, project *model.Project, number string, entries ...model.RackProductEntry) *model.Rack {
	t.Helper()
	rack := &model.Rack{RackNumber: number, ProjectID: project.ID, Products: entries}
	require.NoError(t, e.rackRepo.Create(rack))
	return rack
}

func (e *env) seedUser(t *testing.T, email, roleCode string) *model.User {
	t.Helper()
	role, err := e.roleRepo.FindByCode(roleCode)
	require.NoError(t, err)
	u := &model.User{Email: email, FullName: email, RoleID: &role.ID, IsActive: true}
	require.NoError(t, u.SetPassword("secret1"))
	require.NoError(t, e.userRepo.Create(u))
	return u
}

func entry(productID uuid.UUID, stock int) model.RackProductEntry {
	return model.RackProductEntry{Product: model.NewProductRef(productID), Stock: stock}
}

func adminActor() service.Actor {
	return service.Actor{ID: uuid.New().String(), Name: "Ada Admin", Email: "ada@example.com", Role: model.RoleAdmin}
}

func managerActor() service.Actor {
	return service.Actor{ID: uuid.New().String(), Name: "Mo Manager", Email: "mo@example.com", Role: model.RoleManager}
}

func keeperActor() service.Actor {
	return service.Actor{ID: uuid.New().String(), Name: "Kay Keeper", Email: "kay@example.com", Role: model.RoleKeeper}
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func (e *env) rackStock(t *testing.T, rackID, productID uuid.UUID) int {
	t.Helper()
	rack, err := e.rackRepo.FindByID(rackID)
	require.NoError(t, err)
	stock, _ := rack.StockOf(productID)
	return stock
}
