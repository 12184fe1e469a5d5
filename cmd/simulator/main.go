package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimasrn/webhook-gateway/internal/webhook"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// The simulator plays the upstream provider: it generates WhatsApp-like
// message envelopes, signs them the way the provider would (HMAC over
// the normalized body) and POSTs them at a running gateway. Useful for
// demos and for poking at the duplicate / bad-signature paths without a
// real sender.

// DeliveryMode selects what kind of payload a run produces.
type DeliveryMode string

const (
	ModeValid      DeliveryMode = "valid"
	ModeNearJSON   DeliveryMode = "near_json"
	ModeBadSig     DeliveryMode = "bad_signature"
	ModeBadPayload DeliveryMode = "invalid_payload"
	ModeDuplicate  DeliveryMode = "duplicate"
)

type SimulateRequest struct {
	Count int          `json:"count" binding:"required"`
	Mode  DeliveryMode `json:"mode"`
}

type DeliveryResult struct {
	MessageID  string `json:"message_id"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

type SimulateResponse struct {
	Mode      DeliveryMode     `json:"mode"`
	Delivered int              `json:"delivered"`
	Results   []DeliveryResult `json:"results"`
}

// Sender generates and delivers signed webhook payloads.
type Sender struct {
	gatewayURL string
	secret     string
	client     *http.Client
	rng        *rand.Rand
}

func NewSender(gatewayURL, secret string) *Sender {
	return &Sender{
		gatewayURL: gatewayURL,
		secret:     secret,
		client:     &http.Client{Timeout: 10 * time.Second},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Sender) buildBody(mode DeliveryMode, messageID string) []byte {
	from := fmt.Sprintf("+1555%07d", s.rng.Intn(10_000_000))
	to := fmt.Sprintf("+1555%07d", s.rng.Intn(10_000_000))
	ts := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	switch mode {
	case ModeNearJSON:
		return []byte(fmt.Sprintf("{message_id: %s, from: %s, to: %s, ts: %s, text: hello from simulator}",
			messageID, from, to, ts))
	case ModeBadPayload:
		return []byte(fmt.Sprintf(`{"message_id":%q,"from":"not-a-number","to":%q,"ts":%q,"text":"hi"}`,
			messageID, to, ts))
	default:
		return []byte(fmt.Sprintf(`{"message_id":%q,"from":%q,"to":%q,"ts":%q,"text":"hello from simulator"}`,
			messageID, from, to, ts))
	}
}

func (s *Sender) deliver(mode DeliveryMode, messageID string) DeliveryResult {
	body := s.buildBody(mode, messageID)

	// the gateway verifies against normalized bytes, so sign those
	signature := webhook.Sign(webhook.Normalize(body), s.secret)
	if mode == ModeBadSig {
		signature = "deadbeef" + signature[8:]
	}

	req, err := http.NewRequest(http.MethodPost, s.gatewayURL+"/webhook", bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{MessageID: messageID, StatusCode: 0, Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signature)

	resp, err := s.client.Do(req)
	if err != nil {
		return DeliveryResult{MessageID: messageID, StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	return DeliveryResult{MessageID: messageID, StatusCode: resp.StatusCode, Body: string(respBody)}
}

// Handler exposes the simulator API.
type Handler struct {
	sender *Sender
}

func NewHandler(sender *Sender) *Handler {
	return &Handler{sender: sender}
}

func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}
	if req.Mode == "" {
		req.Mode = ModeValid
	}
	if req.Count > 1000 {
		req.Count = 1000
	}

	resp := SimulateResponse{Mode: req.Mode}
	for i := 0; i < req.Count; i++ {
		messageID := "sim-" + uuid.New().String()
		result := h.sender.deliver(req.Mode, messageID)
		resp.Results = append(resp.Results, result)
		if result.StatusCode == http.StatusOK {
			resp.Delivered++
		}

		// duplicate mode re-sends every payload a second time
		if req.Mode == ModeDuplicate {
			again := h.sender.deliver(ModeDuplicate, messageID)
			resp.Results = append(resp.Results, again)
			if again.StatusCode == http.StatusOK {
				resp.Delivered++
			}
		}

		log.Info().
			Str("message_id", messageID).
			Str("mode", string(req.Mode)).
			Int("status", result.StatusCode).
			Msg("Webhook delivered")
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"gateway": h.sender.gatewayURL,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/simulate", handler.Simulate)
		v1.GET("/health", handler.HealthCheck)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	gatewayURL := getEnv("GATEWAY_URL", "http://localhost:8080")
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal().Msg("WEBHOOK_SECRET must be set")
	}

	log.Info().
		Str("port", port).
		Str("gateway", gatewayURL).
		Msg("Starting webhook simulator")

	sender := NewSender(gatewayURL, secret)
	handler := NewHandler(sender)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
