package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/pkg/jwthelper"
)

const identityKey = "identity"

type Authenticator struct {
	key []byte
}

func NewAuthenticator(key string) *Authenticator {
	return &Authenticator{
		key: []byte(key),
	}
}

// VerifyJWT rejects requests without a valid user bearer token and stores the
// caller identity on the gin context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := jwthelper.BearerToken(ctx.GetHeader("Authorization"))
		if err != nil {
			response.RenderErr(ctx, response.ErrNotLoggedIn())
			return
		}

		identity, err := jwthelper.ParseUserToken(a.key, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(jwthelper.ErrInvalidToken))
			return
		}

		ctx.Set(identityKey, identity)
		ctx.Next()
	}
}

// IdentityFromContext returns the identity stored by VerifyJWT.
func IdentityFromContext(ctx *gin.Context) (jwthelper.Identity, bool) {
	value, ok := ctx.Get(identityKey)
	if !ok {
		return jwthelper.Identity{}, false
	}

	identity, ok := value.(jwthelper.Identity)

	return identity, ok
}
