package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"

	"group-chat/auth"
	"group-chat/domain/chat"
	"group-chat/infrastructure/storage"
	"group-chat/internal"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Admin writes straight into badger, the server must be stopped while it runs.
const usage = `usage: admin <command> [flags]
  group   -id flat -name "Flat 3B" -members alice,bob
  member  -group flat -user carol [-remove]
  profile -user alice -name Alice
  token   -user alice [-name Alice]`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Admin error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) == 0 {
		return exitConfig, fmt.Errorf("%s", usage)
	}

	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	command, flags := args[0], flag.NewFlagSet(args[0], flag.ContinueOnError)

	if command == "token" {
		user := flags.String("user", "", "identity carried by the token")
		name := flags.String("name", "", "display name carried by the token")
		if err := flags.Parse(args[1:]); err != nil {
			return exitConfig, err
		}
		if *user == "" {
			return exitConfig, fmt.Errorf("-user is required")
		}
		token, err := auth.NewAuthenticator(config.JWTSecret, config.AuthTokenDuration).
			GenerateToken(chat.UserID(*user), *name)
		if err != nil {
			return exitRuntime, err
		}
		fmt.Println(token)
		return exitOK, nil
	}

	if config.BadgerFilepath == "" {
		return exitConfig, fmt.Errorf("BADGER_FILEPATH is required to edit the directory")
	}
	db, err := storage.OpenBadger(config.BadgerFilepath, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() { _ = db.Close() }()
	directory := storage.NewDirectoryRepository(db, log)

	switch command {
	case "group":
		id := flags.String("id", "", "group identifier")
		name := flags.String("name", "", "group name")
		members := flags.String("members", "", "comma separated identities")
		if err := flags.Parse(args[1:]); err != nil {
			return exitConfig, err
		}
		if *id == "" {
			return exitConfig, fmt.Errorf("-id is required")
		}
		err = directory.UpsertGroup(ctx, chat.GroupID(*id), *name, splitIdentities(*members))
	case "member":
		group := flags.String("group", "", "group identifier")
		user := flags.String("user", "", "identity")
		remove := flags.Bool("remove", false, "remove instead of add")
		if err := flags.Parse(args[1:]); err != nil {
			return exitConfig, err
		}
		if *remove {
			err = directory.RemoveMember(ctx, chat.GroupID(*group), chat.UserID(*user))
		} else {
			err = directory.AddMember(ctx, chat.GroupID(*group), chat.UserID(*user))
		}
	case "profile":
		user := flags.String("user", "", "identity")
		name := flags.String("name", "", "display name")
		if err := flags.Parse(args[1:]); err != nil {
			return exitConfig, err
		}
		err = directory.UpsertProfile(ctx, chat.UserID(*user), *name)
	default:
		return exitConfig, fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	if err != nil {
		return exitRuntime, err
	}
	fmt.Println("ok")
	return exitOK, nil
}

func splitIdentities(csv string) []chat.UserID {
	parts := lo.Filter(strings.Split(csv, ","), func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	return lo.Map(parts, func(s string, _ int) chat.UserID {
		return chat.UserID(strings.TrimSpace(s))
	})
}
