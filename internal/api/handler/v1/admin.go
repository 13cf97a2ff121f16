package v1

import (
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

// AdminHandler serves the organiser-account provisioning surface. Every route
// requires the caller to hold the admin role.
type AdminHandler struct {
	svc  AuthService
	uSvc UserService
}

func NewAdminHandler(svc AuthService, uSvc UserService) *AdminHandler {
	return &AdminHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

func (h *AdminHandler) requireAdmin(ctx *gin.Context) (domain.User, *response.Err) {
	user, rErr := getUserFromContext(ctx, h.uSvc)
	if rErr != nil {
		return domain.User{}, rErr
	}

	if user.Role != domain.RoleAdmin {
		return domain.User{}, response.ErrPermissionDenied(errNotAllowed)
	}

	return user, nil
}

// HandleListOrganisers godoc
// @Summary      List all organiser accounts
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.Organiser
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /admin/organisers [get]
func (h *AdminHandler) HandleListOrganisers(ctx *gin.Context) {
	if _, rErr := h.requireAdmin(ctx); rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	organisers, err := h.uSvc.ListOrganisers(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListOrganisers -> h.uSvc.ListOrganisers -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, organisers)
}

// HandleCreateOrganiser godoc
// @Summary      Provision a new organiser account
// @Tags         admin
// @Produce      json
// @Param        request   body      request.CreateOrganiserRequest true "request body"
// @Success      201  {object}  domain.Organiser
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /admin/organisers [post]
func (h *AdminHandler) HandleCreateOrganiser(ctx *gin.Context) {
	if _, rErr := h.requireAdmin(ctx); rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	var req request.CreateOrganiserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	organiser, err := h.svc.ProvisionOrganiser(ctx.Request.Context(), domain.Organiser{
		User: domain.User{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Role:     domain.RoleOrganiser,
		},
		Category:          req.Category,
		Description:       req.Description,
		ContactEmail:      req.ContactEmail,
		ContactNumber:     req.ContactNumber,
		DiscordWebhookURL: req.DiscordWebhookURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserEmailExists) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrUserEmailExists))
			return
		}

		err = fmt.Errorf("v1.HandleCreateOrganiser -> h.svc.ProvisionOrganiser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, organiser)
}

// HandleResetOrganiserPassword godoc
// @Summary      Reset an organiser's password
// @Description  Generates a temporary password and returns it once in the response.
// @Tags         admin
// @Produce      json
// @Param        organiserID   path      int true "organiser id"
// @Success      200  {object}  response.PasswordResetResponse
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /admin/organisers/{organiserID}/password [put]
func (h *AdminHandler) HandleResetOrganiserPassword(ctx *gin.Context) {
	if _, rErr := h.requireAdmin(ctx); rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	organiserID, err := strconv.ParseUint(ctx.Param("organiserID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	password, err := h.svc.ResetOrganiserPassword(ctx.Request.Context(), uint(organiserID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrNotAnOrganiser):
			response.RenderErr(ctx, response.ErrNotFound("organiser", "id", ctx.Param("organiserID")))
		default:
			err = fmt.Errorf("v1.HandleResetOrganiserPassword -> h.svc.ResetOrganiserPassword -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.PasswordResetResponse{
		Message:           "share this password with the organiser; it is shown only once",
		TemporaryPassword: password,
	})
}

// HandleDeleteOrganiser godoc
// @Summary      Delete an organiser and all associated events
// @Tags         admin
// @Produce      json
// @Param        organiserID   path      int true "organiser id"
// @Success      204  "no content"
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Security     BearerAuth
// @Router       /admin/organisers/{organiserID} [delete]
func (h *AdminHandler) HandleDeleteOrganiser(ctx *gin.Context) {
	if _, rErr := h.requireAdmin(ctx); rErr != nil {
		response.RenderErr(ctx, rErr)
		return
	}

	organiserID, err := strconv.ParseUint(ctx.Param("organiserID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteOrganiser(ctx.Request.Context(), uint(organiserID)); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrNotAnOrganiser):
			response.RenderErr(ctx, response.ErrNotFound("organiser", "id", ctx.Param("organiserID")))
		default:
			err = fmt.Errorf("v1.HandleDeleteOrganiser -> h.svc.DeleteOrganiser -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}
