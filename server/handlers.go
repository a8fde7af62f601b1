package server

import (
	"net/http"

	"github.com/civic-stack/voterlink/services/devicelink"
	"github.com/civic-stack/voterlink/services/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response statuses. Internal errors never leak past the generic failure
// status.
const (
	StatusIssued             = "issued"
	StatusVerified           = "verified"
	StatusIncorrect          = "incorrect"
	StatusMustRequestNewCode = "must_request_new_code"
	StatusLocked             = "locked"
	StatusFailure            = "failure"
)

type retrieveSecretCodeRequest struct {
	DeviceToken  string `json:"device_token"`
	EmailAddress string `json:"email_address"`
}

type retrieveSecretCodeResponse struct {
	Status string `json:"status"`
}

type verifySecretCodeRequest struct {
	DeviceToken string `json:"device_token"`
	SecretCode  string `json:"secret_code"`
}

type verifySecretCodeResponse struct {
	Status         string `json:"status"`
	TriesRemaining uint   `json:"tries_remaining"`
}

type Handlers struct {
	registry *devicelink.Service
	logger   *logging.Service
}

func NewHandlers(registry *devicelink.Service, logger *logging.Service) *Handlers {
	return &Handlers{
		registry: registry,
		logger:   logger,
	}
}

func (h *Handlers) Register(srv *Server) {
	srv.Post("/apis/v1/voterRetrieveSecretCode", h.RetrieveSecretCode)
	srv.Post("/apis/v1/voterVerifySecretCode", h.VerifySecretCode)
}

// RetrieveSecretCode issues (or reuses) a sign-in code for the calling
// device. When an email address accompanies the request the code is also
// delivered to it; the code itself is never included in the response.
func (h *Handlers) RetrieveSecretCode(c echo.Context) error {
	var req retrieveSecretCodeRequest
	if err := c.Bind(&req); err != nil || req.DeviceToken == "" {
		return c.JSON(http.StatusBadRequest, retrieveSecretCodeResponse{Status: StatusFailure})
	}

	var issue devicelink.CodeIssue
	var err error
	if req.EmailAddress != "" {
		issue, err = h.registry.DeliverCodeByEmail(req.DeviceToken, req.EmailAddress)
	} else {
		issue, err = h.registry.RequestSecretCode(req.DeviceToken)
	}
	if err != nil {
		h.logger.Error("secret code request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, retrieveSecretCodeResponse{Status: StatusFailure})
	}

	if issue.Locked {
		return c.JSON(http.StatusOK, retrieveSecretCodeResponse{Status: StatusLocked})
	}
	return c.JSON(http.StatusOK, retrieveSecretCodeResponse{Status: StatusIssued})
}

// VerifySecretCode checks a submitted code and reports the outcome along
// with the number of tries left on the current code.
func (h *Handlers) VerifySecretCode(c echo.Context) error {
	var req verifySecretCodeRequest
	if err := c.Bind(&req); err != nil || req.DeviceToken == "" {
		return c.JSON(http.StatusBadRequest, verifySecretCodeResponse{Status: StatusFailure})
	}

	verification, err := h.registry.VerifySecretCode(req.DeviceToken, req.SecretCode)
	if err != nil {
		h.logger.Error("secret code verification failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, verifySecretCodeResponse{Status: StatusFailure})
	}

	resp := verifySecretCodeResponse{TriesRemaining: verification.TriesRemaining}
	switch {
	case verification.Verified:
		resp.Status = StatusVerified
	case verification.Locked:
		resp.Status = StatusLocked
	case verification.MustRequestNewCode:
		resp.Status = StatusMustRequestNewCode
	default:
		resp.Status = StatusIncorrect
	}
	return c.JSON(http.StatusOK, resp)
}
