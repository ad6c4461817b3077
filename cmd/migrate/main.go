package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wolfman30/hijama-dm-responder/cmd/mainconfig"
	"github.com/wolfman30/hijama-dm-responder/migrations"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

type command struct {
	action string
	arg    int
}

// parseArgs accepts: (none) | up | down [steps] | force <version> | version.
func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{action: "up"}, nil
	}
	switch args[0] {
	case "up", "version":
		return command{action: args[0]}, nil
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return command{}, fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		return command{action: "down", arg: steps}, nil
	case "force":
		if len(args) < 2 {
			return command{}, fmt.Errorf("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid version: %w", err)
		}
		return command{action: "force", arg: version}, nil
	default:
		return command{}, fmt.Errorf("unknown command %q", args[0])
	}
}

func main() {
	logger := logging.New("info")
	if err := mainconfig.LoadEnv(); err != nil {
		logger.Error("load .env", "error", err)
		os.Exit(1)
	}

	cmd, err := parseArgs(os.Args[1:])
	if err != nil {
		logger.Error("usage: migrate [up | down [steps] | force <version> | version]", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	m, err := migrations.Open(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("open migrator", "error", err)
		os.Exit(1)
	}
	defer func() { _ = m.Close() }()

	switch cmd.action {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down(cmd.arg)
	case "force":
		err = m.Force(cmd.arg)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		}
	}
	if err != nil {
		logger.Error("migration failed", "action", cmd.action, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations complete", "action", cmd.action)
}
