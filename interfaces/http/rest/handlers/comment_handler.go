package handlers

import (
	"context"
	"net/http"

	"linklist-backend/domain/core/entities"
	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/pkg/common"
	pkgerrors "linklist-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentUseCases is the part of the comment service the handler needs
type CommentUseCases interface {
	AddComment(ctx context.Context, ref valueobjects.EntityRef, caller valueobjects.Caller, content string) (*entities.Comment, error)
	AddReply(ctx context.Context, commentID string, caller valueobjects.Caller, content string) (*entities.Comment, error)
	EditComment(ctx context.Context, commentID string, caller valueobjects.Caller, content string) (*entities.Comment, error)
	DeleteComment(ctx context.Context, commentID string, caller valueobjects.Caller) (bool, error)
	GetCommentsTree(ctx context.Context, ref valueobjects.EntityRef) ([]*entities.Comment, error)
}

// CommentHandler handles comment requests
type CommentHandler struct {
	comments CommentUseCases
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments CommentUseCases, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		errors:   errorHandler,
		logger:   logger,
	}
}

// CommentRequest is the body of every comment write. Length limits are
// enforced after sanitizing, by the domain.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// AddComment handles POST /entities/{entityType}/{entityId}/comments
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
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

	var req CommentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	comment, err := h.comments.AddComment(r.Context(), ref, caller, req.Content)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// GetComments handles GET /entities/{entityType}/{entityId}/comments
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	ref, err := entityRefFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	tree, err := h.comments.GetCommentsTree(r.Context(), ref)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp := make([]CommentResponse, 0, len(tree))
	for _, c := range tree {
		resp = append(resp, toCommentResponse(c))
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// AddReply handles POST /comments/{commentId}/replies
func (h *CommentHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req CommentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	requested := chi.URLParam(r, paramCommentID)
	reply, err := h.comments.AddReply(r.Context(), requested, caller, req.Content)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	resp := toCommentResponse(reply)
	if reply.ParentID() != requested {
		resp.RepliedToID = requested
	}
	common.RespondJSON(w, http.StatusCreated, resp)
}

// EditComment handles PUT /comments/{commentId}
func (h *CommentHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req CommentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	comment, err := h.comments.EditComment(r.Context(), chi.URLParam(r, paramCommentID), caller, req.Content)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toCommentResponse(comment))
}

// DeleteComment handles DELETE /comments/{commentId}. A missing comment is
// reported as 404.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	commentID := chi.URLParam(r, paramCommentID)
	deleted, err := h.comments.DeleteComment(r.Context(), commentID, caller)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !deleted {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("comment"))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"id": commentID, "deleted": true})
}
