package api

import (
	"strconv"
	"time"

	"lottoledger/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CallerHeader carries the caller's account address. Signatures are verified upstream.
const CallerHeader = "X-Account-Address"

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type createRoundRequest struct {
	StartTime     *time.Time      `json:"start_time"`
	DurationHours int64           `json:"duration_hours"`
	MinStake      decimal.Decimal `json:"min_stake"`
	MaxPlayers    int64           `json:"max_players"`
}

type capacityRequest struct {
	MaxPlayers int64 `json:"max_players"`
}

type mintRequest struct {
	Stake decimal.Decimal `json:"stake"`
}

type resolveRequest struct {
	WinningIndex *int64 `json:"winning_index" binding:"required"`
}

// callerAddress reads the caller from the request header
func callerAddress(c *gin.Context) (entities.Address, error) {
	raw := c.GetHeader(CallerHeader)
	if raw == "" {
		return "", entities.NewLedgerError(entities.CodeInvalidAddress, "missing %s header", CallerHeader)
	}
	return entities.ParseAddress(raw)
}

// pathInt64 parses a non-negative integer path parameter
func pathInt64(c *gin.Context, name string) (int64, error) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value < 0 {
		if name == "id" {
			return 0, entities.NewLedgerError(entities.CodeRoundNotFound, "invalid round id %q", c.Param(name))
		}
		return 0, entities.NewLedgerError(entities.CodeInvalidTicketIndex, "invalid %s %q", name, c.Param(name))
	}
	return value, nil
}

// pathAddress parses an address path parameter
func pathAddress(c *gin.Context) (entities.Address, error) {
	return entities.ParseAddress(c.Param("address"))
}

// historyLimit reads ?limit=, clamped to [1, maxHistoryLimit]
func historyLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, entities.NewLedgerError(entities.CodeInvalidAmount, "invalid limit %q", raw)
	}
	return min(limit, maxHistoryLimit), nil
}

// bindJSON decodes the request body, reporting malformed input as InvalidAmount
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return entities.NewLedgerError(entities.CodeInvalidAmount, "invalid request body: %v", err)
	}
	return nil
}
