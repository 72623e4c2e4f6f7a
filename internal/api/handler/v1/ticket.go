package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/middleware"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/service"
)

type TicketService interface {
	Submit(ctx context.Context, ownerID, personalID string, numbers domain.RawNumbers) (uuid.UUID, error)
	Lookup(ctx context.Context, ticketID string) (domain.TicketView, error)
	TicketQR(ctx context.Context, ticketID string) (domain.TicketQR, error)
}

type TicketHandler struct {
	svc TicketService
}

func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{
		svc: svc,
	}
}

// HandleSubmitTicket godoc
// @Summary      Submit a ticket
// @Description  Binds the ticket to the round that is active when it is stored.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        request  body      request.SubmitTicketRequest  true  "ticket"
// @Success      201      {object}  response.SubmitTicketResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tickets [post]
// @Security BearerAuth
func (h *TicketHandler) HandleSubmitTicket(ctx *gin.Context) {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrNotLoggedIn())
		return
	}

	var req request.SubmitTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	ticketID, err := h.svc.Submit(ctx.Request.Context(), identity.OwnerID, req.PersonalID, req.Numbers)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrNoActiveRound):
			response.RenderErr(ctx, response.ErrConflict(err))
		case errors.Is(err, service.ErrTicketExists),
			errors.Is(err, service.ErrInvalidRoundReference),
			errors.Is(err, service.ErrInvalidTicketData):
			response.RenderErr(ctx, response.ErrBadRequest(unwrapSentinel(err)))
		default:
			err = fmt.Errorf("v1.HandleSubmitTicket -> h.svc.Submit -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, response.SubmitTicketResponse{
		TicketID: ticketID,
		Message:  "Ticket created successfully",
	})
}

// HandleGetTicket godoc
// @Summary      Look up a ticket
// @Description  Returns the ticket with the drawn numbers of its round, if published.
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      string  true  "ticket id"
// @Success      200       {object}  response.TicketResponse
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID} [get]
func (h *TicketHandler) HandleGetTicket(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")

	view, err := h.svc.Lookup(ctx.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
			return
		}

		err = fmt.Errorf("v1.HandleGetTicket -> h.svc.Lookup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	ctx.JSON(http.StatusOK, response.TicketResponse{Ticket: view})
}

// HandleGetTicketQR godoc
// @Summary      Ticket QR code
// @Description  Returns a PNG data URL encoding the ticket page address, plus the ticket itself.
// @Tags         tickets
// @Produce      json
// @Param        ticketID  path      string  true  "ticket id"
// @Success      200       {object}  domain.TicketQR
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/{ticketID}/qr [get]
func (h *TicketHandler) HandleGetTicketQR(ctx *gin.Context) {
	ticketID := ctx.Param("ticketID")

	qr, err := h.svc.TicketQR(ctx.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("ticket", "ID", ticketID))
			return
		}

		err = fmt.Errorf("v1.HandleGetTicketQR -> h.svc.TicketQR -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	ctx.JSON(http.StatusOK, qr)
}

// unwrapSentinel strips the call-chain prefix so only the store sentinel's
// message reaches the client.
func unwrapSentinel(err error) error {
	for _, target := range []error{service.ErrTicketExists, service.ErrInvalidRoundReference, service.ErrInvalidTicketData} {
		if errors.Is(err, target) {
			return target
		}
	}

	return err
}
