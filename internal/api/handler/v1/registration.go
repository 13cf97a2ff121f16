package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-portal/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-portal/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/service"
)

type RegistrationService interface {
	Register(ctx context.Context, eventID, participantID uint, answers map[string]string, paymentProof string) (domain.Registration, error)
	Cancel(ctx context.Context, regID, participantID uint) error
	History(ctx context.Context, participantID uint) ([]domain.RegistrationSummary, error)
	ListEventRegistrations(ctx context.Context, eventID, organiserID uint) ([]domain.Registration, error)
	ReviewOrder(ctx context.Context, regID, organiserID uint, approve bool) (domain.Registration, error)
	CheckIn(ctx context.Context, ticketID string, organiserID uint, manualOverride bool) (domain.Registration, error)
}

type RegistrationHandler struct {
	svc  RegistrationService
	uSvc UserService
}

func NewRegistrationHandler(svc RegistrationService, uSvc UserService) *RegistrationHandler {
	return &RegistrationHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleRegister godoc
// @Summary      Register for an event or place a merchandise order
// @Description  Normal events issue a ticket immediately. Merchandise events create a
// @Description  pending order that an organiser reviews before a ticket is issued.
// @Tags         registrations
// @Produce      json
// @Param        eventID   path      int true "event id"
// @Param        request   body      request.CreateRegistrationRequest true "request body"
// @Success      201  {object}  response.RegistrationResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /registrations/{eventID} [post]
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	if user.Role != domain.RoleParticipant {
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotAllowed))
		return
	}

	eventID, err := parseIDParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.Register(ctx.Request.Context(), eventID, user.ID, req.Answers, req.PaymentProof)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", ctx.Param("eventID")))
		case errors.Is(err, service.ErrRegistrationClosed),
			errors.Is(err, service.ErrDuplicateRegistration),
			errors.Is(err, service.ErrEventFull),
			errors.Is(err, service.ErrOutOfStock),
			errors.Is(err, service.ErrPaymentProofRequired):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	msg := "registration confirmed"
	if reg.Status == domain.RegistrationStatusPendingApproval {
		msg = "order placed, awaiting organiser approval"
	}

	ctx.JSON(http.StatusCreated, response.RegistrationResponse{
		Message:      msg,
		Registration: reg,
	})
}

// HandleCancel godoc
// @Summary      Cancel one of the caller's registrations
// @Tags         registrations
// @Produce      json
// @Param        registrationID   path      int true "registration id"
// @Success      204  "no content"
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /registrations/{registrationID} [delete]
func (h *RegistrationHandler) HandleCancel(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	regID, err := parseIDParam(ctx, "registrationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.Cancel(ctx.Request.Context(), regID, user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "id", ctx.Param("registrationID")))
		case errors.Is(err, service.ErrNotRegistrationOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotRegistrationOwner))
		case errors.Is(err, service.ErrAlreadyCheckedIn):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrAlreadyCheckedIn))
		default:
			err = fmt.Errorf("v1.HandleCancel -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleHistory godoc
// @Summary      List the caller's registrations with event summaries
// @Tags         registrations
// @Produce      json
// @Success      200  {array}   domain.RegistrationSummary
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /registrations/history [get]
func (h *RegistrationHandler) HandleHistory(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	history, err := h.svc.History(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleHistory -> h.svc.History -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, history)
}

// HandleListEventRegistrations godoc
// @Summary      List all registrations for an event the caller organises
// @Tags         registrations
// @Produce      json
// @Param        eventID   path      int true "event id"
// @Success      200  {array}   domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /events/{eventID}/registrations [get]
func (h *RegistrationHandler) HandleListEventRegistrations(ctx *gin.Context) {
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

	regs, err := h.svc.ListEventRegistrations(ctx.Request.Context(), eventID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound("event", "id", ctx.Param("eventID")))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventOwner))
		default:
			err = fmt.Errorf("v1.HandleListEventRegistrations -> h.svc.ListEventRegistrations -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleReviewOrder godoc
// @Summary      Approve or reject a pending merchandise order
// @Tags         registrations
// @Produce      json
// @Param        registrationID   path      int true "registration id"
// @Param        request          body      request.ReviewOrderRequest true "request body"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /registrations/review/{registrationID} [put]
func (h *RegistrationHandler) HandleReviewOrder(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	regID, err := parseIDParam(ctx, "registrationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.ReviewOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	approve := req.ReviewStatus == request.ReviewStatusApproved

	reg, err := h.svc.ReviewOrder(ctx.Request.Context(), regID, user.ID, approve)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRegistrationNotFound):
			response.RenderErr(ctx, response.ErrNotFound("registration", "id", ctx.Param("registrationID")))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventOwner))
		case errors.Is(err, service.ErrOrderAlreadyProcessed),
			errors.Is(err, service.ErrOutOfStock):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleReviewOrder -> h.svc.ReviewOrder -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleAttendance godoc
// @Summary      Check a ticket in at the venue
// @Description  Marks the ticket's attendance exactly once. A second scan returns a 400
// @Description  carrying the first check-in's timestamp and the participant's name.
// @Tags         registrations
// @Produce      json
// @Param        request   body      request.AttendanceRequest true "request body"
// @Success      200  {object}  domain.Registration
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /registrations/attendance [put]
func (h *RegistrationHandler) HandleAttendance(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	var req request.AttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.CheckIn(ctx.Request.Context(), req.TicketID, user.ID, req.IsManualOverride)
	if err != nil {
		var dup *service.DuplicateScanError
		switch {
		case errors.As(err, &dup):
			response.RenderDuplicateScan(ctx, dup.PreviousTimestamp, dup.ParticipantName)
		case errors.Is(err, service.ErrInvalidTicket):
			response.RenderErr(ctx, response.ErrNotFound("ticket", "id", req.TicketID))
		case errors.Is(err, service.ErrNotEventOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotEventOwner))
		default:
			err = fmt.Errorf("v1.HandleAttendance -> h.svc.CheckIn -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, reg)
}
