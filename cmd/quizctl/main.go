// quizctl 是题库控制台的命令行客户端。每个进程都是一个独立的会话上下文，
// 与服务端共享 file 或 redis 会话存储。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"quiz_console/internal/app"
	"quiz_console/internal/config"
	"quiz_console/internal/service"
	"quiz_console/pkg/logger"

	"github.com/joho/godotenv"
)

const usage = `usage: quizctl [-config dir] [-env file] <command> [args]

session:
  login [code]              log in with the shared access code (prompted when omitted)
  logout [-yes]             clear the session in every open context
  status                    show session state and remaining time
  watch                     follow session changes, print remaining time every minute

resources (categories | question-sets | questions):
  <resource> list [-set id]          list, questions may be scoped by question set
  <resource> get <id>
  <resource> create -file payload.json
  <resource> update <id> -file payload.json   file may hold only the fields to change
  <resource> delete <id> [-yes]
  question-sets options              question set filter options

A failed create or update keeps the entered values in <file>.draft.json.
`

func main() {
	configDir := flag.String("config", "configs", "配置文件 config.yaml 所在目录")
	envFile := flag.String("env", ".env", "启动前加载的 .env 文件，不存在时忽略")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load(*envFile)

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// 内存存储无法跨命令保留会话
	if cfg.Session.Store == config.StoreMemory {
		cfg.Session.Store = config.StoreFile
	}
	cfg.Log.File = ""
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, rdb, err := app.OpenSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	cli := newCLI(cfg, store, os.Stdin, os.Stdout, os.Stderr)
	if err := cli.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		if !errors.Is(err, service.ErrNotConfirmed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
