package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	MES    MESConfig    `mapstructure:"mes"`
	Log    LogConfig    `mapstructure:"log"`
	MinIO  MinIOConfig  `mapstructure:"minio"`
	Export ExportConfig `mapstructure:"export"`
}

// MESConfig MES后端连接配置
type MESConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"min=0"`
	Token       string        `mapstructure:"token"`
	CacheBust   bool          `mapstructure:"cache_bust"`
	MetricsName string        `mapstructure:"metrics_namespace"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket" validate:"required_with=Endpoint"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// ExportConfig 报表导出配置
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
	GBK bool   `mapstructure:"gbk"`
}

// Defaults 默认值，与前端 http.ts 的 baseURL / timeout 保持一致
const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 15 * time.Second
)

func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile 从指定文件加载配置，path为空时按默认路径查找 config.yaml
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 设置配置文件
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在，使用环境变量
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mes.base_url", DefaultBaseURL)
	v.SetDefault("mes.timeout", DefaultTimeout)
	v.SetDefault("mes.cache_bust", true)
	v.SetDefault("mes.metrics_namespace", "mes_client")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("export.dir", ".")
}

func bindEnvVariables(v *viper.Viper) {
	// MES
	v.BindEnv("mes.base_url", "MES_BASE_URL")
	v.BindEnv("mes.timeout", "MES_TIMEOUT")
	v.BindEnv("mes.token", "MES_TOKEN")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
	v.BindEnv("minio.region", "MINIO_REGION")

	// Export
	v.BindEnv("export.dir", "EXPORT_DIR")
}

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
