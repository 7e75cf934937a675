// @title Study Tutor 后端 API
// @version 1.0
// @description 题卡式学习辅导服务：精确匹配 + 大模型判分

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"log"
	"path/filepath"

	"study_tutor_backend/internal/app"
	"study_tutor_backend/internal/config"
	"study_tutor_backend/pkg/configwatcher"
	"study_tutor_backend/pkg/logger"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	deckPath := flag.String("deck", "", "覆盖默认题库路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *deckPath != "" {
		cfg.Deck.Default = *deckPath
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 监听配置变更：判分模型/温度可热切换
	go configwatcher.WatchConfig(filepath.Join(*configDir, "config.yaml"), application.ApplyConfig)

	application.Run()
}
