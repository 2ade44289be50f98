package config

import (
	"github.com/boundless/grants-service/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	AMQP       AMQPConfig       `mapstructure:"amqp"`
	Escrow     EscrowConfig     `mapstructure:"escrow"`
	Task       TaskConfig       `mapstructure:"task"`
	Validation ValidationConfig `mapstructure:"validation"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // 为空则不启用缓存
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"url"` // 为空则通知只落库
	Exchange string `mapstructure:"exchange"`
}

// EscrowConfig 托管合约配置
type EscrowConfig struct {
	RpcUrl        string `mapstructure:"rpc_url"`        // RPC节点URL
	ChainId       int64  `mapstructure:"chain_id"`       // 链ID
	PrivateKey    string `mapstructure:"private_key"`    // 平台账户私钥
	ContractAddr  string `mapstructure:"contract_addr"`  // 托管合约地址
	Confirmations int    `mapstructure:"confirmations"`  // 确认区块数
	GasLimit      uint64 `mapstructure:"gas_limit"`      // 单笔调用gas上限
	MaxAttempts   int    `mapstructure:"max_attempts"`   // 重试上限
	BackoffSecond int    `mapstructure:"backoff_second"` // 初始退避秒数
	WorkerCount   int    `mapstructure:"worker_count"`   // 调用协程池大小
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// ValidationConfig 创意验证配置
type ValidationConfig struct {
	VoteThreshold int64 `mapstructure:"vote_threshold"` // 通过验证所需票数
}

// UploadConfig 上传限制配置
type UploadConfig struct {
	Dir          string `mapstructure:"dir"`            // 文件存储目录
	MaxImageSize int64  `mapstructure:"max_image_size"` // 图片大小上限（字节）
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/grants")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "grants")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("amqp.url", "")
	viper.SetDefault("amqp.exchange", "grants.notifications")
	viper.SetDefault("escrow.confirmations", 12)
	viper.SetDefault("escrow.gas_limit", 300000)
	viper.SetDefault("escrow.max_attempts", 5)
	viper.SetDefault("escrow.backoff_second", 5)
	viper.SetDefault("escrow.worker_count", 4)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("validation.vote_threshold", 100)
	viper.SetDefault("upload.dir", "uploads")
	viper.SetDefault("upload.max_image_size", 5*1024*1024)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
