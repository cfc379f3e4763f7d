package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/server"
	"github.com/ironsheep/morph2d-output/internal/settings"
	"github.com/ironsheep/morph2d-output/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("morph2d-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("morph2d-mcp - MCP server writing 2D morphology pipeline outputs")
			fmt.Println()
			fmt.Println("Usage: morph2d-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Println("  MORPH2D_OUT_DIRECTORY=<dir>        Output root (default ./output)")
			fmt.Println("  MORPH2D_SAMPLE_ID=<id>             Initial sample ID")
			fmt.Println("  MORPH2D_SAVE_INTERMEDIATES=true    Keep intermediate images")
			fmt.Println("  MORPH2D_STORE_PATH=<file>          Also save measurements to SQLite")
			fmt.Println("  MORPH2D_LOG_LEVEL=debug            Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("MORPH2D_LOG_LEVEL") == "debug" {
		log.Printf("morph2d MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	} else {
		monitoring.SetLogger(nil)
	}

	cfg, err := settings.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := settings.PrepareOutputDirs(cfg); err != nil {
		log.Fatalf("Output directory error: %v", err)
	}

	var st *store.Store
	if path := os.Getenv("MORPH2D_STORE_PATH"); path != "" {
		st, err = store.Open(path)
		if err != nil {
			log.Fatalf("Store error: %v", err)
		}
		defer st.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, st)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}
