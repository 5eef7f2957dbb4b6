package api

import (
	"net/http"

	"lottoledger/application"
	"lottoledger/domain/entities"

	"github.com/gin-gonic/gin"
)

// CreateRound opens a new round
func (h *HTTPHandler) CreateRound(c *gin.Context) {
	caller, err := callerAddress(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var req createRoundRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	round, err := h.ops.CreateRound(c.Request.Context(), caller, application.CreateRoundRequest{
		StartTime:     req.StartTime,
		DurationHours: req.DurationHours,
		MinStake:      req.MinStake,
		MaxPlayers:    req.MaxPlayers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRoundResponse(round))
}

// ListRounds returns the round history, newest first
func (h *HTTPHandler) ListRounds(c *gin.Context) {
	limit, err := historyLimit(c)
	if err != nil {
		writeError(c, err)
		return
	}

	summaries, err := h.ops.RoundHistory(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]roundSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, newRoundSummaryResponse(summary))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetCurrentRound(c *gin.Context) {
	round, err := h.ops.GetCurrentRound(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoundResponse(round))
}

func (h *HTTPHandler) GetRound(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	round, err := h.ops.GetRound(c.Request.Context(), roundID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRoundResponse(round))
}

// roundTransition is the shape of every admin call that only needs a round ID
type roundTransition func(c *gin.Context, caller entities.Address, roundID int64) (any, error)

// handleTransition parses caller and round ID, then renders the transition's result
func (h *HTTPHandler) handleTransition(c *gin.Context, transition roundTransition) {
	caller, err := callerAddress(c)
	if err != nil {
		writeError(c, err)
		return
	}
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := transition(c, caller, roundID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate closes minting on a round
func (h *HTTPHandler) Deactivate(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		round, err := h.ops.Deactivate(c.Request.Context(), caller, roundID)
		if err != nil {
			return nil, err
		}
		return newRoundResponse(round), nil
	})
}

// Cancel voids a round before any ticket was minted
func (h *HTTPHandler) Cancel(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		round, err := h.ops.Cancel(c.Request.Context(), caller, roundID)
		if err != nil {
			return nil, err
		}
		return newRoundResponse(round), nil
	})
}

// SetCapacity changes the player cap of the open round
func (h *HTTPHandler) SetCapacity(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		var req capacityRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		round, err := h.ops.SetCapacity(c.Request.Context(), caller, roundID, req.MaxPlayers)
		if err != nil {
			return nil, err
		}
		return newRoundResponse(round), nil
	})
}

// Mint converts the posted stake into tickets for the caller
func (h *HTTPHandler) Mint(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		var req mintRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		result, err := h.ops.Mint(c.Request.Context(), caller, roundID, req.Stake)
		if err != nil {
			return nil, err
		}
		return newMintResponse(roundID, result), nil
	})
}

// TriggerDraw samples the winning index of a closed round
func (h *HTTPHandler) TriggerDraw(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		ticket, err := h.ops.TriggerDraw(c.Request.Context(), caller, roundID)
		if err != nil {
			return nil, err
		}
		return newWinningTicketResponse(ticket), nil
	})
}

// ResolveWinner maps the drawn index to its owner
func (h *HTTPHandler) ResolveWinner(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		var req resolveRequest
		if err := bindJSON(c, &req); err != nil {
			return nil, err
		}
		ticket, err := h.ops.ResolveWinner(c.Request.Context(), caller, roundID, *req.WinningIndex)
		if err != nil {
			return nil, err
		}
		return newWinningTicketResponse(ticket), nil
	})
}

// DepositPrize credits the pool to the winner's pending balance
func (h *HTTPHandler) DepositPrize(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		pending, err := h.ops.DepositPrize(c.Request.Context(), caller, roundID)
		if err != nil {
			return nil, err
		}
		return newWithdrawalResponse(pending), nil
	})
}

// Withdraw pays out the caller's pending balance for a round
func (h *HTTPHandler) Withdraw(c *gin.Context) {
	h.handleTransition(c, func(c *gin.Context, caller entities.Address, roundID int64) (any, error) {
		amount, err := h.ops.Withdraw(c.Request.Context(), caller, roundID)
		if err != nil {
			return nil, err
		}
		return withdrawResponse{RoundID: roundID, Address: caller, AmountPaid: amount}, nil
	})
}
