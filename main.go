package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/yizeng/gab/gin/gorm/loto-api/cmd/app"
)

// @title        loto-api
// @version      1.0
// @description  Lottery rounds and ticket admission. Operators open, close and
// @description  publish rounds with machine tokens; players submit tickets with
// @description  user tokens and look them up by id or QR code.
//
// @contact.name  loto-api maintainers
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description User token (sub is the ticket owner) or machine token with the rounds:manage scope.
//
// @BasePath  /api/v1
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
