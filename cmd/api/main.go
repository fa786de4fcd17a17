package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-rackstock-ws/internal/handler"
	"go-rackstock-ws/internal/mailer"
	"go-rackstock-ws/internal/middleware"
	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
	"go-rackstock-ws/internal/service"
	"go-rackstock-ws/internal/ws"
	"go-rackstock-ws/pkg/database"
	"go-rackstock-ws/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	db.AutoMigrate(
		&model.Role{}, &model.User{},
		&model.Product{}, &model.Project{}, &model.Rack{},
		&model.Transaction{}, &model.TransactionItem{}, &model.TransactionEmailMarker{},
		&model.StockAdjustmentRequest{}, &model.RackStockHold{}, &model.ProjectStockHold{},
		&model.ActivityLog{}, &model.Notification{},
	)

	// 3. Seed default roles and admin user
	seedRolesAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	projectRepo := repository.NewProjectRepo(db)
	rackRepo := repository.NewRackRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	adjustmentRepo := repository.NewAdjustmentRepo(db)
	holdRepo := repository.NewHoldRepo(db)
	activityRepo := repository.NewActivityRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	resolver := service.NewEntityResolver(productRepo, projectRepo, rackRepo)
	updater := service.NewRackUpdater(rackRepo)
	notifications := service.NewNotificationService(notificationRepo, wsHub)
	emails := service.NewEmailDispatcher(txRepo, userRepo, mailer.NewFromEnv())

	movementService := service.NewMovementService(resolver, updater, txRepo, activityRepo, notifications, emails, db)
	orderService := service.NewOrderService(updater, txRepo, rackRepo, productRepo, activityRepo, notifications, emails, db)
	adjustmentService := service.NewAdjustmentService(adjustmentRepo, holdRepo, productRepo, projectRepo, rackRepo, updater, activityRepo, notifications, db)
	catalogService := service.NewCatalogService(productRepo, projectRepo, rackRepo, notifications)
	dashService := service.NewDashboardService(txRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, roleRepo)

	movementHandler := handler.NewMovementHandler(movementService)
	orderHandler := handler.NewOrderHandler(orderService)
	adjustmentHandler := handler.NewAdjustmentHandler(adjustmentService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	holdHandler := handler.NewHoldHandler(holdRepo)
	activityHandler := handler.NewActivityHandler(activityRepo)
	notificationHandler := handler.NewNotificationHandler(notifications)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, roleRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Rack Stock Ledger v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)
	auth.Post("/logout", middleware.RequireAuth(userRepo), authHandler.Logout)

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard Routes (authenticated users can view)
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetStockMovement)

	// Catalog Routes
	protected.Get("/products", catalogHandler.GetProducts)
	protected.Post("/products", middleware.RequireAnyRole(model.RoleAdmin, model.RoleManager), catalogHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequireAnyRole(model.RoleAdmin, model.RoleManager), catalogHandler.UpdateProduct)

	protected.Get("/projects", catalogHandler.GetProjects)
	protected.Post("/projects", middleware.RequireRole(model.RoleAdmin), catalogHandler.CreateProject)
	protected.Get("/projects/:id", catalogHandler.GetProject)
	protected.Post("/projects/:id/members", middleware.RequireRole(model.RoleAdmin), catalogHandler.AddProjectMember)
	protected.Get("/projects/:id/holds", holdHandler.GetProjectHolds)
	protected.Get("/projects/:id/rack-holds", holdHandler.GetRackHolds)

	protected.Get("/racks", catalogHandler.GetRacks)
	protected.Post("/racks", middleware.RequireAnyRole(model.RoleAdmin, model.RoleManager), catalogHandler.CreateRack)
	protected.Get("/racks/:id", catalogHandler.GetRack)

	// Transaction Routes
	protected.Get("/transactions", movementHandler.GetTransactions)
	protected.Get("/transactions/:id", movementHandler.GetTransaction)
	protected.Post("/transactions", movementHandler.CreateMovement)

	// Order state machine
	protected.Post("/orders/:id/complete", middleware.RequireRole(model.RoleAdmin), orderHandler.CompleteOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	// Stock adjustment workflow
	protected.Get("/adjustments", adjustmentHandler.GetAll)
	protected.Post("/adjustments", middleware.RequireAnyRole(model.RoleAdmin, model.RoleManager), adjustmentHandler.Submit)
	protected.Get("/adjustments/:id", adjustmentHandler.GetByID)
	protected.Post("/adjustments/:id/approve", middleware.RequireRole(model.RoleAdmin), adjustmentHandler.Approve)
	protected.Post("/adjustments/:id/reject", middleware.RequireRole(model.RoleAdmin), adjustmentHandler.Reject)

	// Feeds
	protected.Get("/notifications", notificationHandler.Feed)
	protected.Get("/activities", activityHandler.GetActivities)

	// User Management Routes (admin only for mutations)
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequireRole(model.RoleAdmin), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequireRole(model.RoleAdmin), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequireRole(model.RoleAdmin), userHandler.DeleteUser)

	// Role Routes
	protected.Get("/roles", userHandler.GetRoles)

	// WebSocket Route. The client passes its JWT as ?token= since browsers
	// cannot set headers on websocket upgrades.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		claims, err := jwt.ValidateToken(c.Query("token"))
		if err != nil {
			c.Close()
			return
		}

		wsHub.Register <- ws.Client{Conn: c, UserID: claims.UserID, Role: claims.RoleCode}
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedRolesAndAdmin creates the default roles and admin user if they don't exist
func seedRolesAndAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	if _, err := userRepo.FindByEmail("admin@example.com"); err == nil {
		return
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		log.Printf("Warning: ADMIN role missing, skipping admin seed: %v", err)
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		FullName: "Administrator",
		RoleID:   &adminRole.ID,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Println("Admin user created: admin@example.com / admin123")
	}
}
