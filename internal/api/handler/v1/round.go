package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/service"
)

type RoundService interface {
	Open(ctx context.Context) (domain.Round, error)
	Close(ctx context.Context) (domain.Round, bool, error)
	Publish(ctx context.Context, numbers []int) (domain.Round, error)
	CurrentSummary(ctx context.Context) (domain.RoundSummary, error)
	LatestDrawnNumbers(ctx context.Context) ([]int, error)
}

type RoundHandler struct {
	svc RoundService
}

func NewRoundHandler(svc RoundService) *RoundHandler {
	return &RoundHandler{
		svc: svc,
	}
}

// HandleOpenRound godoc
// @Summary      Open a new round
// @Description  Closes the active round, if any, and opens a new one.
// @Tags         rounds
// @Produce      json
// @Success      201  {object}  response.OpenRoundResponse
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /rounds/open [post]
// @Security BearerAuth
func (h *RoundHandler) HandleOpenRound(ctx *gin.Context) {
	round, err := h.svc.Open(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleOpenRound -> h.svc.Open -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	ctx.JSON(http.StatusCreated, response.OpenRoundResponse{
		Message: "Round opened",
		Round:   round,
	})
}

// HandleCloseRound godoc
// @Summary      Close the active round
// @Description  Closing when no round is active succeeds with closed=false.
// @Tags         rounds
// @Produce      json
// @Success      200  {object}  response.CloseRoundResponse
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /rounds/close [post]
// @Security BearerAuth
func (h *RoundHandler) HandleCloseRound(ctx *gin.Context) {
	round, closed, err := h.svc.Close(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleCloseRound -> h.svc.Close -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	if !closed {
		ctx.JSON(http.StatusOK, response.CloseRoundResponse{
			Message: "No active round to close",
			Closed:  false,
		})
		return
	}

	ctx.JSON(http.StatusOK, response.CloseRoundResponse{
		Message: "Round closed",
		Closed:  true,
		Round:   &round,
	})
}

// HandlePublishResults godoc
// @Summary      Publish drawn numbers
// @Description  Attaches drawn numbers to the most recently closed round. Results can be published once.
// @Tags         rounds
// @Accept       json
// @Produce      json
// @Param        request  body      request.PublishRequest  true  "drawn numbers"
// @Success      200      {object}  response.PublishResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /rounds/publish [post]
// @Security BearerAuth
func (h *RoundHandler) HandlePublishResults(ctx *gin.Context) {
	var req request.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	round, err := h.svc.Publish(ctx.Request.Context(), req.Numbers)
	if err != nil {
		if domain.IsValidationError(err) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		if errors.Is(err, service.ErrNoPendingRound) {
			response.RenderErr(ctx, response.ErrConflict(err))
			return
		}

		err = fmt.Errorf("v1.HandlePublishResults -> h.svc.Publish -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	ctx.JSON(http.StatusOK, response.PublishResponse{
		Message:      "Results published",
		RoundID:      round.ID.String(),
		DrawnNumbers: round.DrawnNumbers,
	})
}

// HandleGetCurrentRound godoc
// @Summary      Current round summary
// @Description  Reports the active round, or the most recent one when none is active.
// @Tags         rounds
// @Produce      json
// @Success      200  {object}  domain.RoundSummary
// @Failure      500  {object}  response.Err
// @Router       /rounds/current [get]
func (h *RoundHandler) HandleGetCurrentRound(ctx *gin.Context) {
	summary, err := h.svc.CurrentSummary(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetCurrentRound -> h.svc.CurrentSummary -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// HandleGetLatestDrawn godoc
// @Summary      Latest drawn numbers
// @Tags         rounds
// @Produce      json
// @Success      200  {object}  response.LatestDrawnResponse
// @Failure      500  {object}  response.Err
// @Router       /rounds/latest-drawn [get]
func (h *RoundHandler) HandleGetLatestDrawn(ctx *gin.Context) {
	numbers, err := h.svc.LatestDrawnNumbers(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetLatestDrawn -> h.svc.LatestDrawnNumbers -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(ctx, err))
		return
	}

	ctx.JSON(http.StatusOK, response.LatestDrawnResponse{DrawnNumbers: numbers})
}
