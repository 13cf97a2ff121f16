package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/felicity-portal/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-portal/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event, organiserID uint) (domain.Event, error)
	GetEvent(ctx context.Context, id uint) (domain.Event, error)
	ListVisibleEvents(ctx context.Context) ([]domain.Event, error)
	ListOrganiserEvents(ctx context.Context, organiserID uint) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, eventID, organiserID uint, upd domain.EventUpdate) (domain.Event, error)
	TransitionEvent(ctx context.Context, eventID, organiserID uint, next domain.EventStatus) (domain.Event, error)
	DeleteEvent(ctx context.Context, eventID, organiserID uint) error
}

type EventHandler struct {
	svc  EventService
	uSvc UserService
}

func NewEventHandler(svc EventService, uSvc UserService) *EventHandler {
	return &EventHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Organisers see their own events in every status, other callers see published and later ones.
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	var (
		events []domain.Event
		err    error
	)
	if user.Role == domain.RoleOrganiser {
		events, err = h.svc.ListOrganiserEvents(ctx.Request.Context(), user.ID)
	} else {
		events, err = h.svc.ListVisibleEvents(ctx.Request.Context())
	}
	if err != nil {
		err = fmt.Errorf("v1.HandleListEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get a single event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int true "event id"
// @Success      200  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events/{eventID} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	if _, rErr := getUserFromContext(ctx, h.uSvc); rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	eventID, err := parseIDParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("event", "id", ctx.Param("eventID")))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create a draft event
// @Tags         events
// @Produce      json
// @Param        request   body      request.CreateEventRequest true "request body"
// @Success      201  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events [post]
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	if user.Role != domain.RoleOrganiser {
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotAllowed))
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), req.ToDomain(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Description  Which fields apply depends on the event status. Draft events accept everything,
// @Description  published events accept detail fields only, later statuses reject edits.
// @Tags         events
// @Produce      json
// @Param        eventID   path      int true "event id"
// @Param        request   body      request.UpdateEventRequest true "request body"
// @Success      200  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events/{eventID} [put]
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	eventID, err := parseIDParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.UpdateEvent(ctx.Request.Context(), eventID, user.ID, req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", ctx.Param("eventID")))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventOwner))
		case errors.Is(err, service.ErrEventEditBlocked):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrEventEditBlocked))
		default:
			err = fmt.Errorf("v1.HandleUpdateEvent -> h.svc.UpdateEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleUpdateEventStatus godoc
// @Summary      Move an event to a new lifecycle status
// @Tags         events
// @Produce      json
// @Param        eventID   path      int true "event id"
// @Param        request   body      request.UpdateEventStatusRequest true "request body"
// @Success      200  {object}  domain.Event
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/status [put]
func (h *EventHandler) HandleUpdateEventStatus(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	eventID, err := parseIDParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateEventStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	next, err := req.ToDomain()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.TransitionEvent(ctx.Request.Context(), eventID, user.ID, next)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", ctx.Param("eventID")))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventOwner))
		case errors.Is(err, service.ErrInvalidTransition):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidTransition))
		default:
			err = fmt.Errorf("v1.HandleUpdateEventStatus -> h.svc.TransitionEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete a draft event
// @Tags         events
// @Produce      json
// @Param        eventID   path      int true "event id"
// @Success      204  "no content"
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events/{eventID} [delete]
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	eventID, err := parseIDParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteEvent(ctx.Request.Context(), eventID, user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", ctx.Param("eventID")))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventOwner))
		case errors.Is(err, service.ErrEventNotDraft):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrEventNotDraft))
		default:
			err = fmt.Errorf("v1.HandleDeleteEvent -> h.svc.DeleteEvent -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
