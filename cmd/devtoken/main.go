package main

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/config"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/pkg/jwthelper"
)

// devtoken mints bearer tokens signed with the configured keys, for local
// testing without an identity provider.
func main() {
	configPath := pflag.String("config", "./cmd/app/config.yml", "config file")
	machine := pflag.Bool("machine", false, "mint a machine token for round operations")
	subject := pflag.String("sub", "dev|local-user", "user subject or machine client id")
	email := pflag.String("email", "", "user email claim")
	name := pflag.String("name", "", "user name claim")
	ttl := pflag.Duration("ttl", time.Hour, "token lifetime")
	pflag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var token string
	if *machine {
		token, err = jwthelper.GenerateMachineToken(
			[]byte(conf.API.MachineSigningKey),
			*subject,
			conf.API.MachineAudience,
			[]string{jwthelper.ScopeManageRounds},
			*ttl,
		)
	} else {
		token, err = jwthelper.GenerateToken(
			[]byte(conf.API.JWTSigningKey),
			jwthelper.Identity{OwnerID: *subject, Email: *email, Name: *name},
			*ttl,
		)
	}
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Fprintln(os.Stdout, token)
}
