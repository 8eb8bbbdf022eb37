package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/healthhub-client/config"
	"github.com/jwalitptl/healthhub-client/internal/app"
	"github.com/jwalitptl/healthhub-client/internal/service/scan"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/validator"
)

const usage = `usage: healthhub [-config path] [-env path] <command> [args]

commands:
  login -email E -password P
  register -name N -email E -password P -confirm P [-phone] [-blood-type]
  logout
  whoami
  refresh-profile
  medicines list|show <id>|add|update <id> [-clear-instructions] [-clear-expiry] [-clear-image]|delete <id>
  family list|invite <email>
  analytics
  records list|add -medicine ID -status taken|missed|delayed [-notes]
  emergency
  scan import <result.json>
  scan image <file>
  session watch
`

func main() {
	flags := flag.NewFlagSet("healthhub", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to config.yml")
	envPath := flags.String("env", ".env", "dotenv file to load before reading config")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(*envPath); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Str("path", *envPath).Msg("failed to load env file")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client app.Client
	application := app.New(cfg, app.Populate(&client))

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}

	c := &cli{client: client, out: os.Stdout, validate: validator.New(), now: time.Now, scanDelay: scan.SampleDelay}
	runErr := c.run(ctx, flags.Args())

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()
	if err := application.Stop(stopCtx); err != nil {
		client.Logger.Error(err, "failed to shut down cleanly")
	}

	if runErr != nil {
		if stderrors.Is(runErr, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", errors.Message(runErr))
		os.Exit(1)
	}
}
