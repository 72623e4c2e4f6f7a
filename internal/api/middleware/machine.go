package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/logger"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/pkg/jwthelper"
)

var errMachineCredential = errors.New("a machine credential is required")

// VerifyMachine guards operator endpoints. Only tokens issued for audience
// that carry the rounds:manage scope pass.
func VerifyMachine(key, audience string) gin.HandlerFunc {
	signingKey := []byte(key)

	return func(ctx *gin.Context) {
		token, err := jwthelper.BearerToken(ctx.GetHeader("Authorization"))
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(errMachineCredential))
			return
		}

		clientID, err := jwthelper.ParseMachineToken(signingKey, token, audience, jwthelper.ScopeManageRounds)
		if errors.Is(err, jwthelper.ErrMissingScope) {
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
			return
		}
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(errMachineCredential))
			return
		}

		logger.FromContext(ctx.Request.Context()).Debug("machine credential accepted", zap.String("client_id", clientID))
		ctx.Next()
	}
}
