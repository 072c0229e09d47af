package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"homeworkbot/internal/app"
	"homeworkbot/internal/config"
	logx "homeworkbot/pkg/logx"
)

func main() {
	os.Exit(run())
}

func run() int {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "", "path to optional config yaml/json (also $CONFIG_PATH)")
	flag.StringVar(&envPath, "env", ".env", "path to optional .env file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := config.LoadEnvFile(envPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logx.NewConsole("info").Critical("invalid configuration", logx.Err(err))
		return 1
	}

	logs, log := app.NewLogging(cfg)
	defer logs.Close()
	log = log.With(logx.String("comp", "main"))

	if !config.CheckTokens(cfg, log) {
		return 1
	}

	a, err := app.New(cfg, logs)
	if err != nil {
		log.Critical("startup failed", logx.Err(err))
		return 1
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("app stopped with error", logx.Err(err))
		return 1
	}
	return 0
}
