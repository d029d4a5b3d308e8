package main

import (
	"os"

	"kyc-tracking-api/config"
	"kyc-tracking-api/controllers"
	"kyc-tracking-api/middleware"
	"kyc-tracking-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		config.Log.Info("No .env file found, using environment variables")
	}

	// Initialize logging and database
	logFile := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.InitDB()

	// Wire controllers to the database
	controllers.Init(config.DB)

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add logging middleware
	router.Use(gin.LoggerWithWriter(config.LogWriter))

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	// Setup routes
	routes.SetupRoutes(router)

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	config.Log.Infof("Server starting on port %s", port)
	if ginMode == "release" {
		config.Log.Info("Running in production mode")
	} else {
		config.Log.Info("Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		config.Log.Fatalf("Failed to start server: %v", err)
	}
}
