package api

import (
	"net/http"

	"lottoledger/domain/entities"

	"github.com/gin-gonic/gin"
)

// ListPlayers returns a round's participants in first-participation order
func (h *HTTPHandler) ListPlayers(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	participants, err := h.ops.Participants(c.Request.Context(), roundID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		resp = append(resp, newParticipantResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetPlayer(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	ordinal, err := pathInt64(c, "ordinal")
	if err != nil {
		writeError(c, err)
		return
	}

	participant, err := h.ops.ParticipantAt(c.Request.Context(), roundID, ordinal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newParticipantResponse(participant))
}

// GetAccount returns an address's ticket count and participation flag
func (h *HTTPHandler) GetAccount(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	address, err := pathAddress(c)
	if err != nil {
		writeError(c, err)
		return
	}

	count, active, err := h.ops.AccountTickets(c.Request.Context(), roundID, address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountResponse{
		RoundID:     roundID,
		Address:     address,
		TicketCount: count,
		Active:      active,
	})
}

// ListRanges returns the ticket partition of a closed round
func (h *HTTPHandler) ListRanges(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	ranges, err := h.ops.TicketRanges(c.Request.Context(), roundID)
	if err != nil {
		writeError(c, err)
		return
	}
	if ranges == nil {
		ranges = []entities.TicketRange{}
	}
	c.JSON(http.StatusOK, ranges)
}

func (h *HTTPHandler) GetRange(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	ordinal, err := pathInt64(c, "ordinal")
	if err != nil {
		writeError(c, err)
		return
	}

	ticketRange, err := h.ops.RangeAt(c.Request.Context(), roundID, ordinal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticketRange)
}

// GetWinner returns the draw outcome, or 409 before the draw
func (h *HTTPHandler) GetWinner(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}

	ticket, err := h.ops.WinningTicket(c.Request.Context(), roundID)
	if err != nil {
		writeError(c, err)
		return
	}
	if ticket == nil {
		writeError(c, entities.NewLedgerError(entities.CodeInvalidRoundPhase, "round %d has not been drawn", roundID))
		return
	}
	c.JSON(http.StatusOK, newWinningTicketResponse(ticket))
}

// GetPendingWithdrawal returns the amount owed to an address for a round
func (h *HTTPHandler) GetPendingWithdrawal(c *gin.Context) {
	roundID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	address, err := pathAddress(c)
	if err != nil {
		writeError(c, err)
		return
	}

	amount, err := h.ops.PendingWithdrawal(c.Request.Context(), roundID, address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawalResponse{RoundID: roundID, Address: address, Amount: amount})
}

// ListAccountWithdrawals returns an address's unpaid balances across rounds
func (h *HTTPHandler) ListAccountWithdrawals(c *gin.Context) {
	address, err := pathAddress(c)
	if err != nil {
		writeError(c, err)
		return
	}

	pending, err := h.ops.PendingByAddress(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]withdrawalResponse, 0, len(pending))
	for _, w := range pending {
		resp = append(resp, newWithdrawalResponse(w))
	}
	c.JSON(http.StatusOK, resp)
}
