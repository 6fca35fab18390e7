package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Init loads config.yaml from the working directory with environment
// overrides (UI_LISTEN, LOG_LEVEL, ...). A missing config file is fine;
// defaults cover every key.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("ui.listen", "127.0.0.1:8480")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("settings.path", "")
	viper.SetDefault("notices.max", 50)

	viper.ReadInConfig()
}

// UIListen is the loopback address of the local presentation API.
func UIListen() string { return viper.GetString("ui.listen") }

// LogLevel is the zerolog level name.
func LogLevel() string { return viper.GetString("log.level") }

// SettingsPath overrides the settings blob location; empty means the
// per-user default.
func SettingsPath() string { return viper.GetString("settings.path") }

// NoticesMax bounds the user notice feed.
func NoticesMax() int { return viper.GetInt("notices.max") }
