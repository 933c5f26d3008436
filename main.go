// @title Quiz Console API
// @version 1.0
// @description 题库内容管理控制台：访问码会话与分类、题集、题目的增删改查。

// @host localhost:8080
// @BasePath /

package main

import (
	"flag"
	"log"

	"quiz_console/internal/app"
	"quiz_console/internal/config"
	"quiz_console/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件 config.yaml 所在目录")
	envFile := flag.String("env", ".env", "启动前加载的 .env 文件，不存在时忽略")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No %s file loaded: %v", *envFile, err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
