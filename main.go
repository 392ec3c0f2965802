package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"confession-system/handlers"
	"confession-system/middleware"
	"confession-system/models"
	"confession-system/services"
	"confession-system/utils"
	"confession-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB — text-only API
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Wallet-Address, X-Fid, X-Power-Badge, X-Follower-Count, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Identity{},
		&models.WhitelistEntry{},
		&models.OpenRankSettings{},
		&models.OpenRankSettingsAudit{},
		&models.EligibilityDecision{},
		&models.Interaction{},
		&models.Confession{},
		&models.Collaboration{},
		&models.CollaborationClaim{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
	} else {
		log.Println("⚠️  REDIS_ADDR not set — settings cache disabled")
	}

	settingsService := services.NewSettingsService(db, rdb)
	if err := settingsService.EnsureDefault(); err != nil {
		log.Fatal("failed to seed OpenRank settings:", err)
	}

	whitelistService := services.NewWhitelistService(db)
	reputationService := services.NewReputationService(
		settingsService,
		whitelistService,
		services.NewOpenRankClient(),
		&services.DBDecisionRecorder{DB: db},
	)
	cooldownService := services.NewCooldownService(db)
	collaborationService := services.NewCollaborationService(db)
	claimService := services.NewClaimService(db, reputationService, cooldownService, collaborationService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if os.Getenv("FARCASTER_HUB_URL") != "" {
		workers.NewProfileSyncWorker(db).Start(ctx)
	} else {
		log.Println("⚠️  FARCASTER_HUB_URL not set — profile sync worker disabled")
	}

	if os.Getenv("CLOUDFLARE_ACCOUNT_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		workers.NewAuditExportWorker(db).Start(ctx)
	} else {
		log.Println("⚠️  CLOUDFLARE_ACCOUNT_ID not set — audit export worker disabled")
	}

	collaborationService.StartMaintenanceScheduler()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	handlers.SetupReputationRoutes(app, reputationService)
	handlers.SetupConfessionRoutes(app, claimService, cooldownService, collaborationService)
	handlers.SetupShareRoutes(app, claimService, cooldownService)
	handlers.SetupCollaborationRoutes(app, collaborationService)
	handlers.SetupAdminRoutes(app, settingsService, whitelistService, collaborationService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5200"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
