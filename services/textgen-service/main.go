package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/smartshop/checkout/internal/metrics"
)

// TextgenService is a stub text-generation backend used to demo the
// checkout service's degradation behavior
type TextgenService struct {
	chaosEnabled  bool
	chaosSlowMode bool
	chaosMutex    sync.RWMutex
}

var textgenService *TextgenService

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	textgenService = &TextgenService{
		chaosEnabled:  false,
		chaosSlowMode: false,
	}
}

func main() {
	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware("textgen-service"))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/textgen/status", getStatus)

	// Generation endpoint
	router.POST("/v1/generate", generate)

	// Chaos engineering endpoints
	router.POST("/chaos/textgen/enable", enableChaos)
	router.POST("/chaos/textgen/disable", disableChaos)
	router.POST("/chaos/textgen/slow", enableSlowMode)
	router.POST("/chaos/textgen/slow/disable", disableSlowMode)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info("Textgen Service starting on port 8081")
	if err := router.Run(":8081"); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         "textgen-service",
		"status":          "healthy",
		"chaos_enabled":   textgenService.getChaosEnabled(),
		"chaos_slow_mode": textgenService.getSlowMode(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

type generateMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type generateRequest struct {
	Deployment string            `json:"deployment"`
	Messages   []generateMessage `json:"messages" binding:"required,dive"`
}

func generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid request: " + err.Error(),
		})
		return
	}

	// Simulate chaos
	if err := simulateChaos(); err != nil {
		log.WithField("deployment", req.Deployment).Warn("Chaos: Simulated generation failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "Text generation temporarily unavailable: " + err.Error(),
		})
		return
	}

	prompt := lastUserMessage(req.Messages)

	log.WithFields(log.Fields{
		"deployment": req.Deployment,
		"messages":   len(req.Messages),
	}).Info("Generating response")

	c.JSON(http.StatusOK, gin.H{
		"text": cannedReply(prompt),
	})
}

// lastUserMessage returns the text of the final user-role message
func lastUserMessage(messages []generateMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Text
		}
	}
	return ""
}

// cannedReply fakes a plausible model response for the two checkout prompts
func cannedReply(prompt string) string {
	lower := strings.ToLower(prompt)

	if strings.Contains(lower, "discount") || strings.Contains(lower, "membership tier") {
		percent := 0
		blurb := "No membership discount applies to this order."
		if strings.Contains(lower, "gold") {
			percent = 20
			blurb = "As a valued Gold member you enjoy 20% off this order."
		} else if strings.Contains(lower, "silver") {
			percent = 10
			blurb = "As a Silver member you enjoy 10% off this order."
		}
		return fmt.Sprintf("PERCENT: %d\n%s", percent, blurb)
	}

	if strings.Contains(lower, "limited") {
		return "A few items in your cart are running low, but we will ship everything we can right away!"
	}
	return "Great news! Everything in your cart is in stock and ready to ship."
}

func enableChaos(c *gin.Context) {
	textgenService.setChaosEnabled(true)
	metrics.ChaosFailureRate.WithLabelValues("textgen-service").Set(1)

	log.Info("Chaos mode ENABLED for textgen service")
	c.JSON(http.StatusOK, gin.H{
		"message": "Chaos mode enabled",
		"info":    "40% of requests will fail randomly",
	})
}

func disableChaos(c *gin.Context) {
	textgenService.setChaosEnabled(false)
	textgenService.setSlowMode(false)
	metrics.ChaosFailureRate.WithLabelValues("textgen-service").Set(0)
	metrics.ChaosSlowMode.WithLabelValues("textgen-service").Set(0)

	log.Info("Chaos mode DISABLED for textgen service")
	c.JSON(http.StatusOK, gin.H{
		"message": "Chaos mode disabled",
	})
}

func enableSlowMode(c *gin.Context) {
	textgenService.setSlowMode(true)
	metrics.ChaosSlowMode.WithLabelValues("textgen-service").Set(1)

	log.Info("Slow mode ENABLED for textgen service")
	c.JSON(http.StatusOK, gin.H{
		"message": "Slow mode enabled",
		"info":    "Requests will have 5-10 second delays",
	})
}

func disableSlowMode(c *gin.Context) {
	textgenService.setSlowMode(false)
	metrics.ChaosSlowMode.WithLabelValues("textgen-service").Set(0)

	log.Info("Slow mode DISABLED for textgen service")
	c.JSON(http.StatusOK, gin.H{
		"message": "Slow mode disabled",
	})
}

// Helper methods
func (ts *TextgenService) setChaosEnabled(enabled bool) {
	ts.chaosMutex.Lock()
	defer ts.chaosMutex.Unlock()
	ts.chaosEnabled = enabled
}

func (ts *TextgenService) getChaosEnabled() bool {
	ts.chaosMutex.RLock()
	defer ts.chaosMutex.RUnlock()
	return ts.chaosEnabled
}

func (ts *TextgenService) setSlowMode(enabled bool) {
	ts.chaosMutex.Lock()
	defer ts.chaosMutex.Unlock()
	ts.chaosSlowMode = enabled
}

func (ts *TextgenService) getSlowMode() bool {
	ts.chaosMutex.RLock()
	defer ts.chaosMutex.RUnlock()
	return ts.chaosSlowMode
}

func simulateChaos() error {
	// Check if slow mode is enabled
	if textgenService.getSlowMode() {
		delay := time.Duration(5000+rand.Intn(5000)) * time.Millisecond
		log.WithField("delay_ms", delay.Milliseconds()).Debug("Chaos: Simulating slow response")
		time.Sleep(delay)
	}

	// Check if failure mode is enabled
	if textgenService.getChaosEnabled() {
		// 40% failure rate
		if rand.Float32() < 0.4 {
			return fmt.Errorf("simulated backend outage")
		}
	}

	return nil
}
