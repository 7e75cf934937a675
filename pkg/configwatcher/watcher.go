package configwatcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"study_tutor_backend/internal/config"
	"study_tutor_backend/pkg/logger"
)

type ConfigReloader func(cfg *config.Config)

// WatchConfig 监听配置文件变更，防抖后整体重载并回调
// 判分模型、温度等可以在不重启服务的情况下切换
func WatchConfig(configPath string, reloader ConfigReloader) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("Failed to create config watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("Failed to resolve config path", zap.Error(err))
		return
	}

	if err := watcher.Add(absPath); err != nil {
		logger.Log.Error("Failed to watch config file", zap.Error(err))
		return
	}

	var mu sync.Mutex
	timer := time.NewTimer(0)
	<-timer.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				// 防抖处理
				mu.Lock()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(1 * time.Second)
				mu.Unlock()
			}
		case <-timer.C:
			newCfg, err := config.LoadConfig(filepath.Dir(absPath))
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			logger.Log.Info("config reloaded", zap.String("model", newCfg.AI.ActiveModel()))
			reloader(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
