package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/smartshop/checkout/internal/discount"
	"github.com/smartshop/checkout/internal/llm"
	"github.com/smartshop/checkout/internal/metrics"
	"github.com/smartshop/checkout/internal/models"
	"github.com/smartshop/checkout/internal/orchestrator"
	"github.com/smartshop/checkout/internal/patterns"
	"github.com/smartshop/checkout/internal/stock"
)

var (
	checkoutOrchestrator *orchestrator.Orchestrator
	textgenCircuit       *patterns.CircuitBreakerWrapper
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	// Get configuration from environment or use defaults
	textgenURL := getEnv("TEXTGEN_URL", "http://localhost:8081")
	textgenEnabled := getEnv("TEXTGEN_ENABLED", "true") == "true"
	textgenDeployment := getEnv("TEXTGEN_DEPLOYMENT", "checkout-demo")
	port := getEnv("PORT", "8080")

	client := llm.New(llm.Config{
		Enabled:    textgenEnabled,
		BaseURL:    textgenURL,
		Deployment: textgenDeployment,
	}, "checkout-service")

	if httpClient, ok := client.(*llm.HTTPClient); ok {
		textgenCircuit = httpClient.Circuit()
	}

	checkoutOrchestrator = orchestrator.New(
		stock.NewAgent(stock.AlwaysAvailable{}, client),
		discount.NewAgent(client),
	)

	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware("checkout-service"))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Checkout endpoints
	router.POST("/checkout", processCheckout)
	router.GET("/checkout/circuit-status", getCircuitStatus)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.WithFields(log.Fields{
		"textgen_url":     textgenURL,
		"textgen_enabled": textgenEnabled,
	}).Info("Checkout Service starting on port " + port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// checkoutResponse wraps the orchestrator result with a request ID
type checkoutResponse struct {
	CheckoutID string `json:"checkout_id"`
	models.CheckoutResult
}

// processCheckout handles one checkout attempt
func processCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.CheckoutsTotal.WithLabelValues("validation_failed").Inc()
		c.JSON(http.StatusBadRequest, checkoutResponse{
			CheckoutResult: models.CheckoutResult{
				Succeeded:    false,
				ErrorMessage: "Invalid request: " + err.Error(),
			},
		})
		return
	}

	checkoutID := uuid.New().String()

	log.WithFields(log.Fields{
		"checkout_id": checkoutID,
		"lines":       len(req.Cart),
		"tier":        req.Tier,
	}).Info("Processing checkout")

	result := checkoutOrchestrator.ProcessCheckout(c.Request.Context(), req)

	status := http.StatusOK
	if !result.Succeeded {
		status = http.StatusBadRequest
	}

	c.JSON(status, checkoutResponse{
		CheckoutID:     checkoutID,
		CheckoutResult: result,
	})
}

// getCircuitStatus returns the status of the text-generation circuit breaker
func getCircuitStatus(c *gin.Context) {
	if textgenCircuit == nil {
		c.JSON(http.StatusOK, gin.H{
			"textgen_circuit": gin.H{
				"name":  "TextGen",
				"state": "disabled",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"textgen_circuit": gin.H{
			"name":  "TextGen",
			"state": textgenCircuit.GetState(),
			"value": textgenCircuit.GetStateValue(),
		},
	})
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
