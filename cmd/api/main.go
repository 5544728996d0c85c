package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"scrapyard-api/internal/handler"
	"scrapyard-api/internal/middleware"
	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/internal/service"
	"scrapyard-api/internal/ws"
	"scrapyard-api/pkg/database"

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
	// Auto Migrate (use a dedicated migration tool for production rollouts)
	db.AutoMigrate(
		&model.Material{},
		&model.InventoryMovement{},
		&model.Client{},
		&model.Transaction{},
		&model.TransactionDetail{},
		&model.User{},
	)

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	store := repository.NewStore(db)
	userRepo := store.Users()

	materialService := service.NewMaterialService(store)
	clientService := service.NewClientService(store)
	invService := service.NewInventoryService(store, wsHub)
	txService := service.NewTransactionService(store, wsHub)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	dashService := service.NewDashboardService(store)
	reportService := service.NewReportService(store)

	materialHandler := handler.NewMaterialHandler(materialService)
	clientHandler := handler.NewClientHandler(clientService)
	invHandler := handler.NewInventoryHandler(invService)
	txHandler := handler.NewTransactionHandler(txService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	dashHandler := handler.NewDashboardHandler(dashService)
	reportHandler := handler.NewReportHandler(reportService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Scrapyard API v1.0",
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
	auth.Post("/ensure-user", authHandler.EnsureUser)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard
	protected.Get("/dashboard/stats", dashHandler.GetStats)
	protected.Get("/dashboard/stock-movement", dashHandler.GetMovementFlows)

	// Material catalog
	protected.Get("/materials", materialHandler.GetMaterials)
	protected.Get("/materials/:id", materialHandler.GetMaterial)
	protected.Post("/materials", materialHandler.CreateMaterial)
	protected.Put("/materials/:id", materialHandler.UpdateMaterial)
	protected.Delete("/materials/:id", materialHandler.DeactivateMaterial)
	protected.Post("/materials/seed", middleware.RequireRole(model.RoleAdmin), materialHandler.SeedMaterials)

	// Inventory ledger
	protected.Get("/inventory", invHandler.GetInventory)
	protected.Get("/inventory/:id/movements", invHandler.GetMovements)
	protected.Post("/inventory/adjustments", invHandler.PostAdjustment)

	// Clients
	protected.Get("/clients", clientHandler.GetClients)
	protected.Get("/clients/:id", clientHandler.GetClient)
	protected.Post("/clients", clientHandler.CreateClient)
	protected.Put("/clients/:id", clientHandler.UpdateClient)
	protected.Delete("/clients/:id", clientHandler.DeactivateClient)

	// Transactions
	protected.Get("/transactions", txHandler.GetTransactions)
	protected.Get("/transactions/latest", txHandler.GetLatestTransaction)
	protected.Get("/transactions/:id", txHandler.GetTransaction)
	protected.Post("/transactions", txHandler.CreateTransaction)

	// Reports
	protected.Get("/reports/inventory.xlsx", reportHandler.GetInventoryReport)
	protected.Get("/reports/transactions.xlsx", reportHandler.GetTransactionsReport)

	// User management (ADMIN only)
	admin := protected.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.Get("/users", userHandler.GetUsers)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Post("/users", userHandler.CreateUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Delete("/users/:id", userHandler.DeactivateUser)

	// Roles
	protected.Get("/roles", userHandler.GetRoles)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
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

// seedAdmin creates the default admin user if no user exists yet
func seedAdmin(db *gorm.DB) {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		log.Printf("Warning: failed to count users: %v", err)
		return
	}
	if count > 0 {
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Printf("Warning: failed to hash admin password: %v", err)
		return
	}

	if err := db.Create(admin).Error; err != nil {
		log.Printf("Warning: failed to create admin user: %v", err)
		return
	}
	log.Println("Admin user created: admin@example.com / admin123 (change this password)")
}
