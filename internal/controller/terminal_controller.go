package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	domainErrors "github.com/veropos/terminal-bridge/internal/domain/errors"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
	"github.com/veropos/terminal-bridge/internal/journal"
	"github.com/veropos/terminal-bridge/internal/transport"
)

// PaymentService is the orchestrator surface the controller needs.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req terminal.PaymentRequest) (terminal.PaymentResult, error)
	CloseBatch(ctx context.Context) (terminal.CloseResult, error)
	TestConnection(ctx context.Context) error
	DeliverCallback(cb transport.CallbackResult)
}

// JournalReader exposes the recent-operations query.
type JournalReader interface {
	Recent(limit int) ([]journal.Entry, error)
}

type TerminalController struct {
	service  PaymentService
	journal  JournalReader
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewTerminalController(service PaymentService, journalReader JournalReader, logger zerolog.Logger) *TerminalController {
	return &TerminalController{
		service:  service,
		journal:  journalReader,
		validate: validator.New(),
		logger:   logger.With().Str("component", "controller").Logger(),
	}
}

// ProcessPayment handles POST /api/v1/payments. The result is always
// 200 with a PaymentResult body; the POS UI reads the success flag.
// Only malformed requests and configuration problems are HTTP errors.
func (c *TerminalController) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var dto PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := c.validate.Struct(dto); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "amount_minor_units must be a positive integer")
		return
	}

	result, err := c.service.ProcessPayment(r.Context(), terminal.PaymentRequest{
		AmountMinorUnits: dto.AmountMinorUnits,
	})
	if err != nil {
		c.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CloseBatch handles POST /api/v1/batch-close.
func (c *TerminalController) CloseBatch(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.CloseBatch(r.Context())
	if err != nil {
		c.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// TestConnection handles GET /api/v1/terminal/health.
func (c *TerminalController) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := c.service.TestConnection(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, ProbeResponseDTO{Reachable: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ProbeResponseDTO{Reachable: true})
}

// Callback handles POST /api/v1/terminal/callback, the host's push
// delivery of a co-resident app result. It always answers 202: callback
// routing anomalies are logged and counted, never bounced back to the
// host, which has nothing useful to do with an error.
func (c *TerminalController) Callback(w http.ResponseWriter, r *http.Request) {
	var dto CallbackDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	c.service.DeliverCallback(dto.toResult())
	w.WriteHeader(http.StatusAccepted)
}

// RecentOperations handles GET /api/v1/operations.
func (c *TerminalController) RecentOperations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := c.journal.Recent(limit)
	if err != nil {
		c.logger.Error().Err(err).Msg("journal query failed")
		writeError(w, http.StatusInternalServerError, "journal_error", "could not read operations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"operations": entries})
}

func (c *TerminalController) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, domainErrors.ErrTerminalURLMissing),
		errors.Is(err, domainErrors.ErrUnsupportedTransport):
		writeError(w, http.StatusConflict, "configuration_error", err.Error())
	default:
		c.logger.Error().Err(err).Msg("terminal operation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "terminal operation failed")
	}
}
