package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lunchtogether/lunchbox-backend/api/responses"
	"github.com/lunchtogether/lunchbox-backend/api/validators"
	"github.com/lunchtogether/lunchbox-backend/internal/orders"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
)

func shareToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "share token is required")
	}
	return token, nil
}

// PublicOrderFetch returns the token-scoped order view with the store menu.
// No authentication; the unguessable token is the capability.
func PublicOrderFetch(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		token, err := shareToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetByShareToken(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type submitLineRequest struct {
	ItemID     string            `json:"item_id" validate:"required,uuid"`
	Quantity   int               `json:"quantity" validate:"required,min=1"`
	Selections map[string]string `json:"selections,omitempty"`
	Note       *string           `json:"note,omitempty"`
}

type submitRequest struct {
	ParticipantName string              `json:"participant_name" validate:"required,min=1"`
	Lines           []submitLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PublicOrderSubmit replaces the participant's submission in full. Sending
// the same payload twice leaves the order unchanged.
func PublicOrderSubmit(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		token, err := shareToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.SubmitInput{
			ParticipantName: payload.ParticipantName,
			Lines:           make([]orders.SubmitLine, 0, len(payload.Lines)),
		}
		for i, line := range payload.Lines {
			itemID, err := parseUUIDField(line.ItemID, "item_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.As(err).WithDetails(map[string]any{"line": i}))
				return
			}
			input.Lines = append(input.Lines, orders.SubmitLine{
				ItemID:     itemID,
				Quantity:   line.Quantity,
				Selections: line.Selections,
				Note:       line.Note,
			})
		}

		result, err := svc.Submit(r.Context(), token, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PublicOrderCancelSubmission removes all lines for the named participant.
func PublicOrderCancelSubmission(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		token, err := shareToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		participant := strings.TrimSpace(r.URL.Query().Get("participant"))
		if participant == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "participant query parameter is required"))
			return
		}

		if err := svc.CancelSubmission(r.Context(), token, participant); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
