package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/donisetti/WilderBlog"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			log.Fatal(err)
		}
	case "useradd":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wilderblog useradd <username> [password]")
			os.Exit(1)
		}
		password := wilderblog.EnvOr("USER_PASSWORD", "")
		if len(os.Args) > 3 {
			password = os.Args[3]
		}
		if err := runUserAdd(os.Args[2], password); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("wilderblog %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := wilderblog.New(wilderblog.ConfigFromEnv())
	defer app.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Start(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runUserAdd(username, password string) error {
	dbPath := wilderblog.EnvOr("DATABASE_PATH", "data/blog.db")
	store, err := wilderblog.NewStore(wilderblog.EnvOr("DATABASE_DRIVER", "sqlite"), dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveUser(context.Background(), username, password); err != nil {
		return err
	}
	fmt.Printf("Saved user %q in %s\n", username, dbPath)
	return nil
}

func printUsage() {
	fmt.Println(`wilderblog - MetaWeblog endpoint for offline blog editors

Usage:
  wilderblog <command> [arguments]

Commands:
  serve                          Start the XML-RPC endpoint
  useradd <username> [password]  Create or update a publishing account
  version                        Print the version
  help                           Show this help message

Configuration is read from the environment and an optional .env file.
METAWEBLOG_STORAGE_PATH is required by serve.`)
}
