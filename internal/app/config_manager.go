package app

import (
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/talkincode/toughrent/internal/domain"
)

const configCacheTTL = 30 * time.Second

// ConfigManager reads sys_config settings with a short-lived in-memory cache.
type ConfigManager struct {
	app      *Application
	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{app: app, cache: map[string]string{}}
}

func (cm *ConfigManager) getValue(category, name string) string {
	key := category + "." + name
	cm.mu.RLock()
	if time.Since(cm.loadedAt) < configCacheTTL {
		v, ok := cm.cache[key]
		cm.mu.RUnlock()
		if ok {
			return v
		}
		return ""
	}
	cm.mu.RUnlock()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if time.Since(cm.loadedAt) >= configCacheTTL {
		var rows []domain.SysConfig
		if err := cm.app.gormDB.Find(&rows).Error; err != nil {
			zap.L().Error("load sys_config failed", zap.Error(err))
			return cm.cache[key]
		}
		cache := make(map[string]string, len(rows))
		for _, row := range rows {
			cache[row.Type+"."+row.Name] = row.Value
		}
		cm.cache = cache
		cm.loadedAt = time.Now()
	}
	return cm.cache[key]
}

func (cm *ConfigManager) GetString(category, name string) string {
	return cm.getValue(category, name)
}

func (cm *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(cm.getValue(category, name))
}

func (cm *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(cm.getValue(category, name))
}

// SetValue writes a setting and drops the cache.
func (cm *ConfigManager) SetValue(category, name, value string) error {
	var row domain.SysConfig
	err := cm.app.gormDB.Where("type = ? AND name = ?", category, name).First(&row).Error
	if err != nil {
		row = domain.SysConfig{Type: category, Name: name, Value: value}
		err = cm.app.gormDB.Create(&row).Error
	} else {
		err = cm.app.gormDB.Model(&row).Update("value", value).Error
	}
	if err != nil {
		return err
	}
	cm.mu.Lock()
	cm.loadedAt = time.Time{}
	cm.mu.Unlock()
	return nil
}
