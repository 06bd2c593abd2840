package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Xausdorf/vietqr-gateway/internal/domain/repository"
	"github.com/Xausdorf/vietqr-gateway/internal/domain/vietqr"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/issue"
	"github.com/Xausdorf/vietqr-gateway/internal/usecase/render"
)

type Handler struct {
	issueUC  *issue.UseCase
	renderUC *render.UseCase
	logger   *slog.Logger
}

func NewHandler(issueUC *issue.UseCase, renderUC *render.UseCase, logger *slog.Logger) *Handler {
	return &Handler{
		issueUC:  issueUC,
		renderUC: renderUC,
		logger:   logger,
	}
}

type IssueRequest struct {
	BankBIN        string `json:"bank_bin"`
	AccountNo      string `json:"account_no"`
	InitiationMode string `json:"initiation_mode"`
	AccountTarget  bool   `json:"account_target"`
	Amount         string `json:"amount,omitempty"`
}

type IssueResponse struct {
	IssuanceID     string            `json:"issuance_id"`
	Payload        string            `json:"payload"`
	BillNumber     string            `json:"bill_number"`
	InitiationMode string            `json:"initiation_mode"`
	Components     vietqr.Components `json:"components"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get("X-Idempotency-Key")
	if idempotencyKey == "" {
		http.Error(w, `{"error":"X-Idempotency-Key header required"}`, http.StatusBadRequest)
		return
	}

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	resp, err := h.issueUC.Execute(r.Context(), issue.Request{
		IdempotencyKey: idempotencyKey,
		AcquirerBIN:    req.BankBIN,
		BeneficiaryID:  req.AccountNo,
		InitiationMode: req.InitiationMode,
		AccountTarget:  req.AccountTarget,
		Amount:         req.Amount,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, toIssueResponse(resp))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIssuanceID(w, r)
	if !ok {
		return
	}

	resp, err := h.issueUC.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIssueResponse(resp))
}

func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIssuanceID(w, r)
	if !ok {
		return
	}

	png, err := h.renderUC.Execute(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, issue.ErrIdempotencyKeyRequired),
		errors.Is(err, issue.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, vietqr.ErrLengthOutOfRange):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, `{"error":"issuance not found"}`, http.StatusNotFound)
	default:
		h.logger.Error("request failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}

func parseIssuanceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "issuance_id"))
	if err != nil {
		http.Error(w, `{"error":"invalid issuance_id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func toIssueResponse(resp *issue.Response) IssueResponse {
	return IssueResponse{
		IssuanceID:     resp.IssuanceID.String(),
		Payload:        resp.Payload,
		BillNumber:     resp.BillNumber,
		InitiationMode: resp.Mode.String(),
		Components:     resp.Components,
		CreatedAt:      resp.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
