package handlers

import (
	"context"
	"net/http"

	"linklist-backend/application/services"
	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/pkg/common"
	pkgerrors "linklist-backend/pkg/errors"

	"go.uber.org/zap"
)

// VoteUseCases is the part of the vote service the handler needs
type VoteUseCases interface {
	Vote(ctx context.Context, ref valueobjects.EntityRef, userID string, rating int) (*services.VoteStats, error)
	GetStats(ctx context.Context, ref valueobjects.EntityRef, userID string) (*services.VoteStats, error)
	GetAnalytics(ctx context.Context, ref valueobjects.EntityRef, userID string) (*services.VoteAnalytics, error)
}

// VoteHandler handles vote requests
type VoteHandler struct {
	votes  VoteUseCases
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(votes VoteUseCases, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		votes:  votes,
		errors: errorHandler,
		logger: logger,
	}
}

// VoteRequest is the body of PUT .../vote. The range is checked by the
// service so the message matches every other entry point.
type VoteRequest struct {
	Rating *int `json:"rating" validate:"required"`
}

// Vote handles PUT /entities/{entityType}/{entityId}/vote
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	ref, err := entityRefFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req VoteRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	stats, err := h.votes.Vote(r.Context(), ref, caller.UserID, *req.Rating)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

// GetStats handles GET /entities/{entityType}/{entityId}/votes
func (h *VoteHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	ref, err := entityRefFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	stats, err := h.votes.GetStats(r.Context(), ref, caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

// GetAnalytics handles GET /entities/{entityType}/{entityId}/votes/analytics
func (h *VoteHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	ref, err := entityRefFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	analytics, err := h.votes.GetAnalytics(r.Context(), ref, caller.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, analytics)
}
