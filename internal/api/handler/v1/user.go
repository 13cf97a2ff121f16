package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/felicity-portal/felicity-api/internal/api/handler/v1/request"
	"github.com/felicity-portal/felicity-api/internal/api/handler/v1/response"
	"github.com/felicity-portal/felicity-api/internal/api/middleware"
	"github.com/felicity-portal/felicity-api/internal/domain"
	"github.com/felicity-portal/felicity-api/internal/service"
)

type UserService interface {
	GetUser(ctx context.Context, userID uint) (domain.User, error)
	GetParticipant(ctx context.Context, userID uint) (domain.Participant, error)
	GetOrganiser(ctx context.Context, userID uint) (domain.Organiser, error)
	ListOrganisers(ctx context.Context) ([]domain.Organiser, error)
	UpdateParticipantProfile(ctx context.Context, p domain.Participant) (domain.Participant, error)
	UpdateOrganiserProfile(ctx context.Context, o domain.Organiser) (domain.Organiser, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

var errNotAllowed = errors.New("you do not have permission to perform this action")

// getUserFromContext resolves the authenticated user from the value the JWT
// middleware stored in the request context.
func getUserFromContext(ctx *gin.Context, svc UserService) (domain.User, *response.Err) {
	val, ok := ctx.Get(middleware.ContextKeyUserID)
	if !ok {
		return domain.User{}, response.ErrUnauthorized("missing credentials")
	}

	userID, ok := val.(uint)
	if !ok {
		return domain.User{}, response.ErrUnauthorized("invalid credentials")
	}

	user, err := svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return domain.User{}, response.ErrUnauthorized("unknown user")
		}

		err = fmt.Errorf("v1.getUserFromContext -> svc.GetUser -> %w", err)
		return domain.User{}, response.ErrInternalServerError(err)
	}

	return user, nil
}

// HandleGetMe godoc
// @Summary      Get the authenticated user's profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.Participant
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.svc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	switch user.Role {
	case domain.RoleParticipant:
		participant, err := h.svc.GetParticipant(ctx.Request.Context(), user.ID)
		if err != nil {
			err = fmt.Errorf("v1.HandleGetMe -> h.svc.GetParticipant -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		ctx.JSON(http.StatusOK, participant)
	case domain.RoleOrganiser:
		organiser, err := h.svc.GetOrganiser(ctx.Request.Context(), user.ID)
		if err != nil {
			err = fmt.Errorf("v1.HandleGetMe -> h.svc.GetOrganiser -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		ctx.JSON(http.StatusOK, organiser)
	default:
		ctx.JSON(http.StatusOK, user)
	}
}

// HandleUpdateMe godoc
// @Summary      Update the authenticated user's profile
// @Tags         users
// @Produce      json
// @Param        request   body      request.UpdateProfileRequest true "request body"
// @Success      200  {object}  domain.Participant
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /users/me [put]
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	user, rErr := getUserFromContext(ctx, h.svc)
	if rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	var req request.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	switch user.Role {
	case domain.RoleParticipant:
		participant, err := h.svc.GetParticipant(ctx.Request.Context(), user.ID)
		if err != nil {
			err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.GetParticipant -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		req.ApplyToParticipant(&participant)

		updated, err := h.svc.UpdateParticipantProfile(ctx.Request.Context(), participant)
		if err != nil {
			err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.UpdateParticipantProfile -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		ctx.JSON(http.StatusOK, updated)
	case domain.RoleOrganiser:
		organiser, err := h.svc.GetOrganiser(ctx.Request.Context(), user.ID)
		if err != nil {
			err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.GetOrganiser -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		req.ApplyToOrganiser(&organiser)

		updated, err := h.svc.UpdateOrganiserProfile(ctx.Request.Context(), organiser)
		if err != nil {
			err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.UpdateOrganiserProfile -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}
		ctx.JSON(http.StatusOK, updated)
	default:
		response.RenderErr(ctx, response.ErrPermissionDenied(errNotAllowed))
	}
}
