package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/middleware"
)

// HandleGetProfile godoc
// @Summary      Caller profile
// @Description  Returns the identity asserted by the caller's token.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.ProfileResponse
// @Failure      401  {object}  response.Err
// @Router       /auth/profile [get]
// @Security BearerAuth
func HandleGetProfile(ctx *gin.Context) {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrNotLoggedIn())
		return
	}

	ctx.JSON(http.StatusOK, response.ProfileResponse{
		OwnerID: identity.OwnerID,
		Email:   identity.Email,
		Name:    identity.Name,
	})
}
