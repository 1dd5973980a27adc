package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OSS      OSSConfig      `mapstructure:"oss"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	SQLiteDriver string `mapstructure:"sqlite_driver"` // sqlite3 (cgo) 或 sqlite (modernc)
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	Channel  string `mapstructure:"channel"`
}

// Enabled 未配置地址时不连接 Redis
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type UploadConfig struct {
	Dir                string   `mapstructure:"dir"`
	MaxSize            int64    `mapstructure:"max_size"`             // 最大请求体（字节）
	AllowedExtensions  []string `mapstructure:"allowed_extensions"`   // 不带点，小写
	OrphanExpireHours  int      `mapstructure:"orphan_expire_hours"`  // 0 表示不清理
	CleanupIntervalMin int      `mapstructure:"cleanup_interval_min"` // 清理周期（分钟）
}

type AnalysisConfig struct {
	Engine string `mapstructure:"engine"` // report 或 lesion
	Seed   uint64 `mapstructure:"seed"`   // lesion 模拟结果的随机种子，0 表示按时间
}

type StorageConfig struct {
	Mirror string `mapstructure:"mirror"` // 空、oss 或 minio
	Prefix string `mapstructure:"prefix"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// 兼容旧部署使用的环境变量名
var envAliases = map[string]string{
	"database.url":          "DATABASE_URL",
	"upload.dir":            "UPLOAD_FOLDER",
	"upload.max_size":       "MAX_CONTENT_LENGTH",
	"server.host":           "HOST",
	"server.port":           "PORT",
	"server.debug":          "DEBUG",
	"analysis.engine":       "ANALYSIS_ENGINE",
	"redis.addr":            "REDIS_ADDR",
	"redis.password":        "REDIS_PASSWORD",
	"storage.mirror":        "STORAGE_MIRROR",
	"oss.access_key_id":     "OSS_ACCESS_KEY_ID",
	"oss.access_key_secret": "OSS_ACCESS_KEY_SECRET",
	"minio.access_key":      "MINIO_ACCESS_KEY",
	"minio.secret_key":      "MINIO_SECRET_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", true)

	v.SetDefault("database.url", "sqlite:///medical_image_data.db")
	v.SetDefault("database.sqlite_driver", "sqlite3")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.channel", "image_analysis_events")

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_size", 16*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{"png", "jpg", "jpeg", "gif", "bmp"})
	v.SetDefault("upload.orphan_expire_hours", 24)
	v.SetDefault("upload.cleanup_interval_min", 60)

	v.SetDefault("analysis.engine", "report")
	v.SetDefault("analysis.seed", 0)

	v.SetDefault("storage.prefix", "images")

	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Request-ID"})
}

// Load 读取配置：默认值 < 配置文件 < 环境变量（含 .env）
// configPath 为空或文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
		localConfigPath := filepath.Join(filepath.Dir(configPath), "config.local.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			configPath = localConfigPath
		}

		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	for i, ext := range cfg.Upload.AllowedExtensions {
		cfg.Upload.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	return &cfg, nil
}
