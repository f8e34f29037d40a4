package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/lunchtogether/lunchbox-backend/api/responses"
	"github.com/lunchtogether/lunchbox-backend/api/validators"
	"github.com/lunchtogether/lunchbox-backend/internal/items"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
)

type itemOptionRequest struct {
	Name     string   `json:"name" validate:"required,min=1"`
	Choices  []string `json:"choices" validate:"required,min=1,dive,required"`
	Required bool     `json:"required"`
}

func optionInputs(reqs []itemOptionRequest) []items.OptionInput {
	inputs := make([]items.OptionInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, items.OptionInput{
			Name:     req.Name,
			Choices:  req.Choices,
			Required: req.Required,
		})
	}
	return inputs
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return price, nil
}

type itemCreateRequest struct {
	Name        string              `json:"name" validate:"required,min=1"`
	Description *string             `json:"description,omitempty"`
	Price       string              `json:"price" validate:"required"`
	Tags        []string            `json:"tags,omitempty"`
	Options     []itemOptionRequest `json:"options,omitempty" validate:"omitempty,dive"`
}

// ItemCreate adds a menu item to the caller's store.
func ItemCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sid, err := uuidParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parsePrice(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), uid, sid, items.CreateItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       price,
			Tags:        payload.Tags,
			Options:     optionInputs(payload.Options),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// ItemDetail returns one menu item with its customization options.
func ItemDetail(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		iid, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetByID(r.Context(), iid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemList returns the menu of one store.
func ItemList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		sid, err := uuidParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByStore(r.Context(), sid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type itemUpdateRequest struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string              `json:"description,omitempty"`
	Price       *string              `json:"price,omitempty"`
	Tags        *[]string            `json:"tags,omitempty"`
	Options     *[]itemOptionRequest `json:"options,omitempty" validate:"omitempty,dive"`
}

// ItemUpdate adjusts mutable item fields. A non-null options array replaces
// the full customization set.
func ItemUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		iid, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := items.UpdateItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Tags:        payload.Tags,
		}
		if payload.Price != nil {
			price, err := parsePrice(*payload.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Price = &price
		}
		if payload.Options != nil {
			opts := optionInputs(*payload.Options)
			input.Options = &opts
		}

		item, err := svc.Update(r.Context(), uid, iid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type itemAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// ItemSetAvailability toggles whether participants can order the item.
func ItemSetAvailability(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		iid, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.SetAvailability(r.Context(), uid, iid, *payload.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// ItemDelete removes a menu item.
func ItemDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		iid, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), uid, iid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
