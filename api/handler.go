package api

import (
	"context"
	"net/http"
	"time"

	"lottoledger/application"
	"lottoledger/application/dto"
	"lottoledger/domain/entities"
	"lottoledger/domain/interfaces"
	"lottoledger/infrastructure/observability"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LedgerOperations is the application surface served over HTTP
type LedgerOperations interface {
	CreateRound(ctx context.Context, caller entities.Address, req application.CreateRoundRequest) (*entities.Round, error)
	Deactivate(ctx context.Context, caller entities.Address, roundID int64) (*entities.Round, error)
	Cancel(ctx context.Context, caller entities.Address, roundID int64) (*entities.Round, error)
	SetCapacity(ctx context.Context, caller entities.Address, roundID, maxPlayers int64) (*entities.Round, error)
	Mint(ctx context.Context, caller entities.Address, roundID int64, stake decimal.Decimal) (*interfaces.MintResult, error)
	TriggerDraw(ctx context.Context, caller entities.Address, roundID int64) (*entities.WinningTicket, error)
	ResolveWinner(ctx context.Context, caller entities.Address, roundID, winningIndex int64) (*entities.WinningTicket, error)
	DepositPrize(ctx context.Context, caller entities.Address, roundID int64) (*entities.PendingWithdrawal, error)
	Withdraw(ctx context.Context, caller entities.Address, roundID int64) (decimal.Decimal, error)

	GetRound(ctx context.Context, roundID int64) (*entities.Round, error)
	GetCurrentRound(ctx context.Context) (*entities.Round, error)
	RoundHistory(ctx context.Context, limit int) ([]*dto.RoundSummary, error)
	Participants(ctx context.Context, roundID int64) ([]*entities.Participant, error)
	ParticipantAt(ctx context.Context, roundID, ordinal int64) (*entities.Participant, error)
	AccountTickets(ctx context.Context, roundID int64, address entities.Address) (int64, bool, error)
	TicketRanges(ctx context.Context, roundID int64) ([]entities.TicketRange, error)
	RangeAt(ctx context.Context, roundID, ordinal int64) (entities.TicketRange, error)
	WinningTicket(ctx context.Context, roundID int64) (*entities.WinningTicket, error)
	PendingWithdrawal(ctx context.Context, roundID int64, address entities.Address) (decimal.Decimal, error)
	PendingByAddress(ctx context.Context, address entities.Address) ([]*entities.PendingWithdrawal, error)
}

// HealthReporter reports dependency health for /healthz
type HealthReporter interface {
	Healthy(ctx context.Context) bool
}

// HTTPHandler holds the dependencies of the HTTP handlers
type HTTPHandler struct {
	ops    LedgerOperations
	health HealthReporter
}

// NewHTTPHandler creates a new HTTPHandler. health may be nil.
func NewHTTPHandler(ops LedgerOperations, health HealthReporter) *HTTPHandler {
	return &HTTPHandler{ops: ops, health: health}
}

// NewRouter builds the gin engine with logging, recovery and metrics middleware
func NewRouter(h *HTTPHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), observability.GinMetrics())
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers all the application routes
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Healthz)
	router.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	rounds := router.Group("/rounds")
	rounds.POST("", h.CreateRound)
	rounds.GET("", h.ListRounds)
	rounds.GET("/current", h.GetCurrentRound)
	rounds.GET("/:id", h.GetRound)

	rounds.POST("/:id/deactivate", h.Deactivate)
	rounds.POST("/:id/cancel", h.Cancel)
	rounds.POST("/:id/capacity", h.SetCapacity)
	rounds.POST("/:id/mint", h.Mint)
	rounds.POST("/:id/draw", h.TriggerDraw)
	rounds.POST("/:id/resolve", h.ResolveWinner)
	rounds.POST("/:id/deposit", h.DepositPrize)
	rounds.POST("/:id/withdraw", h.Withdraw)

	rounds.GET("/:id/players", h.ListPlayers)
	rounds.GET("/:id/players/:ordinal", h.GetPlayer)
	rounds.GET("/:id/accounts/:address", h.GetAccount)
	rounds.GET("/:id/ranges", h.ListRanges)
	rounds.GET("/:id/ranges/:ordinal", h.GetRange)
	rounds.GET("/:id/winner", h.GetWinner)
	rounds.GET("/:id/withdrawals/:address", h.GetPendingWithdrawal)

	router.GET("/accounts/:address/withdrawals", h.ListAccountWithdrawals)
}

// Healthz reports 200 while the database and message bus are reachable
func (h *HTTPHandler) Healthz(c *gin.Context) {
	if h.health != nil && !h.health.Healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs one line per request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("HTTP request failed")
			return
		}
		entry.Debug("HTTP request")
	}
}
