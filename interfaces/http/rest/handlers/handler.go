// Package handlers holds the REST handlers of the engagement API. Handlers
// decode and validate requests, resolve the caller, call one service
// operation and render its result; every failure goes through the shared
// error handler.
package handlers

import (
	"net/http"

	"linklist-backend/domain/core/valueobjects"
	"linklist-backend/pkg/common"
	pkgerrors "linklist-backend/pkg/errors"
	"linklist-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies; comment content is the largest field
const maxBodyBytes = 64 << 10

// Route parameters
const (
	paramEntityType     = "entityType"
	paramEntityID       = "entityId"
	paramCommentID      = "commentId"
	paramNotificationID = "id"
)

// entityRefFromPath reads the entity addressed by the URL. Only lists and
// links can be voted or commented on.
func entityRefFromPath(r *http.Request) (valueobjects.EntityRef, error) {
	ref, err := valueobjects.NewEntityRef(chi.URLParam(r, paramEntityType), chi.URLParam(r, paramEntityID))
	if err != nil {
		return valueobjects.EntityRef{}, err
	}
	switch ref.Type() {
	case valueobjects.EntityTypeList, valueobjects.EntityTypeLink:
		return ref, nil
	default:
		return valueobjects.EntityRef{}, pkgerrors.NewValidationError("unsupported entity type: " + string(ref.Type()))
	}
}

func callerFrom(r *http.Request) (valueobjects.Caller, error) {
	caller, ok := common.CallerFromContext(r.Context())
	if !ok {
		return valueobjects.Caller{}, pkgerrors.NewUnauthorizedError("authentication required")
	}
	return caller, nil
}

// decodeRequest parses and validates a JSON body into v
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		return pkgerrors.NewValidationError("Invalid request body").WithCause(err)
	}
	return utils.ValidateStruct(v)
}
