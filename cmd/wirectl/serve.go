package main

import (
	"flag"

	"github.com/danmuck/wirecodec/internal/server"
	"github.com/gin-gonic/gin"
)

func runServe(e env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	addr := fs.String("addr", "", "listen address (overrides [server].addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := e.cfg.Server
	if *addr != "" {
		cfg.Addr = *addr
	}
	gin.SetMode(gin.ReleaseMode)
	return server.New(cfg).Serve(e.ctx)
}
