package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/api"
	"github.com/houzhh15/skillcraft/pkg/logger"
)

// Config 保存 CLI 全局配置
type Config struct {
	ServerURL    string    `yaml:"server_url" json:"server_url" env:"SKILLCRAFT_SERVER_URL"`
	StateDir     string    `yaml:"state_dir" json:"state_dir" env:"SKILLCRAFT_STATE_DIR"`
	Output       string    `yaml:"output" json:"output" env:"SKILLCRAFT_OUTPUT" env-default:"text"`
	Log          LogConfig `yaml:"log" json:"log"`
	PrintMetrics bool      `yaml:"-" json:"-"`
	// Path 实际读取的配置文件，不存在时为空
	Path string `yaml:"-" json:"-"`
}

// LogConfig 日志写入 state 目录下的滚动文件
type LogConfig struct {
	Level       string `yaml:"level" json:"level" env:"SKILLCRAFT_LOG_LEVEL" env-default:"info"`
	Environment string `yaml:"environment" json:"environment" env:"SKILLCRAFT_ENV" env-default:"dev"`
	File        string `yaml:"file" json:"file" env:"SKILLCRAFT_LOG_FILE"`
	MaxSizeMB   int    `yaml:"max_size_mb" json:"max_size_mb" env:"SKILLCRAFT_LOG_MAX_SIZE_MB" env-default:"10"`
	MaxBackups  int    `yaml:"max_backups" json:"max_backups" env:"SKILLCRAFT_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays  int    `yaml:"max_age_days" json:"max_age_days" env:"SKILLCRAFT_LOG_MAX_AGE_DAYS" env-default:"14"`
}

func (c LogConfig) logger() logger.Config {
	return logger.Config{
		Level:       c.Level,
		Environment: c.Environment,
		File:        c.File,
		MaxSizeMB:   c.MaxSizeMB,
		MaxBackups:  c.MaxBackups,
		MaxAgeDays:  c.MaxAgeDays,
	}
}

// LoadConfig 从命令行标志、环境变量、配置文件加载配置（优先级从高到低）
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigPath()
	}
	// 配置文件可选；存在时 cleanenv 读取文件后再叠加环境变量
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg.Path = path
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env config: %w", err)
	}

	// 命令行标志覆盖环境变量
	if v, _ := cmd.Flags().GetString("server-url"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("state-dir"); v != "" {
		cfg.StateDir = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	cfg.PrintMetrics, _ = cmd.Flags().GetBool("print-metrics")

	// 默认值
	if cfg.ServerURL == "" {
		cfg.ServerURL = api.DefaultBaseURL
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Dir(defaultConfigPath())
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.StateDir, "skillcraft.log")
	}
	if cfg.Output != "json" && cfg.Output != "text" {
		return nil, errors.New("output must be json or text")
	}
	return cfg, nil
}

// defaultConfigPath ~/.skillcraft/config.yaml，取不到 home 时退回当前目录
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".skillcraft", "config.yaml")
	}
	return filepath.Join(home, ".skillcraft", "config.yaml")
}

// addGlobalFlags 为 root 命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "配置文件路径 (默认: ~/.skillcraft/config.yaml)")
	cmd.PersistentFlags().String("server-url", "", fmt.Sprintf("服务器地址 (env: SKILLCRAFT_SERVER_URL, 默认: %s)", api.DefaultBaseURL))
	cmd.PersistentFlags().String("state-dir", "", "会话与偏好存储目录 (env: SKILLCRAFT_STATE_DIR, 默认: ~/.skillcraft)")
	cmd.PersistentFlags().StringP("output", "o", "", "输出格式: json / text (默认: text)")
	cmd.PersistentFlags().String("log-level", "", "日志级别: debug/info/warn/error (env: SKILLCRAFT_LOG_LEVEL)")
	cmd.PersistentFlags().Bool("print-metrics", false, "命令结束后输出 Prometheus 指标")
}
