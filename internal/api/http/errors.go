package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/admission"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/network"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/walletconnect"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

var statusTable = []struct {
	err    error
	status int
}{
	{admission.ErrUnknownSession, http.StatusNotFound},
	{approval.ErrResolved, http.StatusConflict},
	{approval.ErrNotAwaiting, http.StatusConflict},
	{approval.ErrAlreadyOpen, http.StatusConflict},
	{approval.ErrRiskPending, http.StatusConflict},
	{approval.ErrNoRiskAlert, http.StatusConflict},
	{admission.ErrDuplicate, http.StatusConflict},
	{network.ErrNetworkDisabled, http.StatusConflict},
	{network.ErrUnknownNetwork, http.StatusBadRequest},
	{approval.ErrUnknownChoice, http.StatusBadRequest},
	{types.ErrMalformedRequest, http.StatusBadRequest},
	{orchestrator.ErrInvalidAppState, http.StatusBadRequest},
	{orchestrator.ErrEmptyAddress, http.StatusBadRequest},
	{orchestrator.ErrRawDeeplink, http.StatusBadRequest},
	{walletconnect.ErrEmptyTopic, http.StatusBadRequest},
	{admission.ErrClosed, http.StatusServiceUnavailable},
}

// statusFor maps a domain error to an HTTP status
func statusFor(err error) int {
	for _, entry := range statusTable {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		zap.L().Error("Unhandled API error", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
