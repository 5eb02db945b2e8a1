package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/talkincode/toughrent/config"
	"github.com/talkincode/toughrent/internal/adminapi"
	"github.com/talkincode/toughrent/internal/app"
	"github.com/talkincode/toughrent/internal/webserver"
)

var (
	cfile     = flag.String("c", "/etc/toughrent.yml", "config file")
	initdb    = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVer   = flag.Bool("v", false, "print version and exit")
	gitCommit = "unknown"
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("toughrent", gitCommit)
		return
	}

	cfg := config.LoadConfig(*cfile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	webserver.Init(application)
	adminapi.Init()

	go func() {
		if err := webserver.Listen(); err != nil {
			zap.S().Errorf("web server stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.S().Info("shutting down")
	webserver.Shutdown()
}
