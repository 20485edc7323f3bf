package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/config"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sahilchouksey/college-admin-api/handlers"
	admin_handlers "github.com/sahilchouksey/college-admin-api/handlers/admin"
	auth_handlers "github.com/sahilchouksey/college-admin-api/handlers/auth"
	expense_handlers "github.com/sahilchouksey/college-admin-api/handlers/expense"
	fee_handlers "github.com/sahilchouksey/college-admin-api/handlers/fee"
	library_handlers "github.com/sahilchouksey/college-admin-api/handlers/library"
	salary_handlers "github.com/sahilchouksey/college-admin-api/handlers/salary"
	"github.com/sahilchouksey/college-admin-api/services/storage"
	"github.com/sahilchouksey/college-admin-api/utils/auth"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/sahilchouksey/college-admin-api/utils/middleware"
	"gorm.io/gorm"
)

const accessTokenExpiry = 24 * time.Hour

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "college-admin-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        accessTokenExpiry,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis-backed brute force protection; the API stays up without it.
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Blob store is optional: without credentials the library works in
	// text-only mode and file uploads are rejected.
	var storageClient *storage.Client
	if env.STORAGE_ACCESS_KEY != "" && env.STORAGE_SECRET_KEY != "" {
		storageClient, err = storage.NewClient(storage.Config{
			AccessKey: env.STORAGE_ACCESS_KEY,
			SecretKey: env.STORAGE_SECRET_KEY,
			Bucket:    env.STORAGE_BUCKET,
			Region:    env.STORAGE_REGION,
			Endpoint:  env.STORAGE_ENDPOINT,
			CDNURL:    env.STORAGE_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize blob storage: %v. Document file uploads will be disabled.", err)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, accessTokenExpiry)
	feeHandler := fee_handlers.NewFeeHandler(db)
	expenseHandler := expense_handlers.NewExpenseHandler(db)
	salaryHandler := salary_handlers.NewSalaryHandler(db)
	libraryHandler := library_handlers.NewLibraryHandler(db, storageClient)
	userHandler := admin_handlers.NewUserHandler(db)
	auditHandler := admin_handlers.NewAuditHandler(db)
	academicHandler := admin_handlers.NewAcademicHandler(db)
	dashboardHandler := admin_handlers.NewDashboardHandler(db, redisCache)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/logout-all", authMiddleware.Required(), authHandler.LogoutAll)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)
	authGroup.Get("/me", authMiddleware.Required(), authHandler.Profile)
	authGroup.Put("/me", authMiddleware.Required(), authHandler.UpdateProfile)

	// Fee routes. Reads and writes are admin-only; cancellation
	// additionally needs the root flag.
	fees := api.Group("/fees", authMiddleware.RequireAdmin())
	fees.Post("/structures", feeHandler.CreateFeeStructure)
	fees.Get("/structures", feeHandler.ListFeeStructures)
	fees.Post("/payments", feeHandler.RecordPayment)
	fees.Get("/payments", feeHandler.ListPayments)
	fees.Get("/payments/:id", feeHandler.GetLedger)
	api.Delete("/fees/payments/:id/transactions/:transactionId", authMiddleware.RequireRoot(), feeHandler.CancelPayment)

	// Expense routes
	expenses := api.Group("/expenses", authMiddleware.RequireAdmin())
	expenses.Post("/", expenseHandler.CreateExpense)
	expenses.Get("/", expenseHandler.ListExpenses)
	expenses.Get("/:id", expenseHandler.GetExpense)
	api.Delete("/expenses/:id", authMiddleware.RequireRoot(), expenseHandler.DeleteExpense)

	// Salary routes
	salaries := api.Group("/salaries", authMiddleware.RequireAdmin())
	salaries.Post("/", salaryHandler.CreateSalary)
	salaries.Get("/", salaryHandler.ListSalaries)
	salaries.Put("/:id/pay", salaryHandler.MarkPaid)
	api.Delete("/salaries/:id", authMiddleware.RequireRoot(), salaryHandler.DeleteSalary)

	// Library routes. Reading is open to any authenticated user; writes
	// are admin-only and the hard delete variant is root-only, enforced
	// again inside the service.
	library := api.Group("/library/documents")
	library.Get("/", authMiddleware.Required(), libraryHandler.ListDocuments)
	library.Get("/:id", authMiddleware.Required(), libraryHandler.GetDocument)
	library.Get("/:id/versions", authMiddleware.Required(), libraryHandler.ListVersions)
	library.Get("/:id/download", authMiddleware.Required(), libraryHandler.DownloadDocument)
	library.Post("/", authMiddleware.RequireAdmin(), libraryHandler.CreateDocument)
	library.Put("/:id", authMiddleware.RequireAdmin(), libraryHandler.UpdateDocument)
	library.Delete("/:id", authMiddleware.RequireAdmin(), libraryHandler.DeleteDocument)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Post("/users", userHandler.CreateUser)
	admin.Get("/users", userHandler.ListUsers)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Put("/users/:id", userHandler.UpdateUser)
	admin.Put("/users/:id/root", authMiddleware.RequireRoot(), userHandler.SetRoot)
	admin.Get("/audit-logs", auditHandler.ListAuditLogs)
	admin.Get("/audit-logs/:id", auditHandler.GetAuditLog)
	admin.Get("/audit-logs/entity/:type/:id", auditHandler.EntityHistory)
	admin.Post("/programs", academicHandler.CreateProgram)
	admin.Get("/programs", academicHandler.ListPrograms)
	admin.Post("/sessions", academicHandler.CreateSession)
	admin.Get("/sessions", academicHandler.ListSessions)
	admin.Get("/dashboard/finance", dashboardHandler.GetFinanceSummary)
	admin.Get("/cron-logs", dashboardHandler.ListCronLogs)
}
