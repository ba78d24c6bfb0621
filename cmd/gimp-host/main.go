// gimp-host runs the bridge listener outside a real editor: an
// in-memory host with an embedded Go console. It exists for
// development and end-to-end testing of the socket protocol without a
// GIMP installation.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maorcc/gimp-mcp/internal/config"
	"github.com/maorcc/gimp-mcp/internal/executor"
	"github.com/maorcc/gimp-mcp/internal/host"
	"github.com/maorcc/gimp-mcp/internal/plugin"
)

func main() {
	var (
		addr    = flag.String("addr", "", "listen address (default from config)")
		cfgPath = flag.String("config", "", "YAML settings file")
		width   = flag.Int("width", 0, "open a blank canvas of this width")
		height  = flag.Int("height", 0, "open a blank canvas of this height")
	)
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.Addr()
	}

	h := host.NewMemHost()
	if *width > 0 && *height > 0 {
		h.NewCanvas("Untitled", *width, *height)
	}

	console, err := executor.NewGoConsole()
	if err != nil {
		log.Fatalf("Console error: %v", err)
	}
	session := executor.NewSession(console)

	srv := plugin.NewServer(listenAddr, session, h)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Listener error: %v", err)
	}

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
