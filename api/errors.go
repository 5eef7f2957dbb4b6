package api

import (
	"net/http"

	"lottoledger/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// codeInternal is reported for failures that are not ledger rejections
const codeInternal = "Internal"

var statusByCode = map[entities.ErrorCode]int{
	entities.CodeRoundNotFound:      http.StatusNotFound,
	entities.CodeInvalidTicketIndex: http.StatusNotFound,

	entities.CodeUnauthorized: http.StatusForbidden,

	entities.CodeInvalidAddress:  http.StatusBadRequest,
	entities.CodeInvalidAmount:   http.StatusBadRequest,
	entities.CodeInvalidCapacity: http.StatusBadRequest,
	entities.CodeInadequateFunds: http.StatusBadRequest,

	entities.CodeActiveRoundExists:       http.StatusConflict,
	entities.CodeCapacityExceeded:        http.StatusConflict,
	entities.CodeMintingNotCompleted:     http.StatusConflict,
	entities.CodeNoParticipants:          http.StatusConflict,
	entities.CodeInvalidWithdrawalAmount: http.StatusConflict,
	entities.CodeRoundNotCancelable:      http.StatusConflict,
	entities.CodeRoundNotActive:          http.StatusConflict,
	entities.CodeInvalidRoundPhase:       http.StatusConflict,
}

// statusForCode returns the fixed HTTP status of a ledger error code
func statusForCode(code entities.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders err and aborts the request. Internal failures are logged and masked.
func writeError(c *gin.Context, err error) {
	code := entities.ErrorCodeOf(err)
	if code == "" {
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		}).Error("Request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Code:  codeInternal,
			Error: "internal error",
		})
		return
	}

	c.AbortWithStatusJSON(statusForCode(code), errorResponse{
		Code:  string(code),
		Error: err.Error(),
	})
}
