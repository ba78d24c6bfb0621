package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/maorcc/gimp-mcp/internal/config"
	"github.com/maorcc/gimp-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("gimp-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("gimp-mcp - MCP server bridging AI clients to a running GIMP")
			fmt.Println()
			fmt.Println("Usage: gimp-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --config PATH    Read settings from a YAML file")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  GIMP_MCP_HOST              Bridge listener host (default localhost)")
			fmt.Println("  GIMP_MCP_PORT              Bridge listener port (default 9877)")
			fmt.Println("  GIMP_MCP_LOG_LEVEL=debug   Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout and")
			fmt.Println("forwards tool calls to the MCP plugin running inside GIMP.")
			return
		case "--config":
			if len(os.Args) > 2 {
				configPath = os.Args[2]
			}
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("GIMP_MCP_LOG_LEVEL") == "debug" {
		log.Printf("gimp-mcp v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	srv := server.New(cfg)

	// Give a still-launching editor a moment to come up. Not fatal:
	// tool calls report an unreachable bridge with their own error
	// code, so the MCP handshake can proceed regardless.
	if err := srv.WaitForBridge(5 * time.Second); err != nil {
		log.Printf("GIMP bridge not answering at %s yet: %v", cfg.Addr(), err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
