// Command invite issues doctor registration tokens for the invite gate.
//
//	CLINIC_INVITE_SECRET=... invite --email doc@example.com --ttl 72h
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/jwalitptl/clinic-booking/pkg/invite"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
)

type settings struct {
	Secret     string        `envconfig:"SECRET" required:"true"`
	DefaultTTL time.Duration `envconfig:"TTL" default:"72h"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var s settings
	if err := envconfig.Process("CLINIC_INVITE", &s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		envconfig.Usage("CLINIC_INVITE", &s)
		os.Exit(2)
	}
	logger.New(logger.Config{Level: s.LogLevel, Format: "console", Output: os.Stderr})

	email := pflag.StringP("email", "e", "", "address the invite is bound to")
	ttl := pflag.Duration("ttl", s.DefaultTTL, "how long the invite stays valid")
	pflag.Parse()

	if *email == "" {
		pflag.Usage()
		os.Exit(2)
	}

	signer, err := invite.NewSigner(s.Secret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create signer")
	}
	token, err := signer.Issue(*email, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue invite")
	}

	log.Info().Str("email", *email).Dur("ttl", *ttl).Msg("invite issued")
	fmt.Println(token)
}
