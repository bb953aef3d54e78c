package config

import (
	"log"

	"starwheel/internal/prize"

	"github.com/spf13/viper"
)

// Config is the full service configuration, loaded once at startup.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	SpinResult        string `mapstructure:"spin_result"`
	ReferralActivated string `mapstructure:"referral_activated"`
}

// BusinessConfig carries the game economy knobs, including the prize table
// itself. The table is validated by the prize package on startup; a broken
// table is replaced by the built-in default rather than rejected.
type BusinessConfig struct {
	SpinCost              int64         `mapstructure:"spin_cost"`                // stars debited per normal spin
	ReferralRewardStars   int64         `mapstructure:"referral_reward_stars"`    // stars credited to the referrer
	ReferralFriendSpins   int64         `mapstructure:"referral_friend_spins"`    // free-spin entitlements per referral
	ActivationLockSeconds int           `mapstructure:"activation_lock_seconds"`  // TTL of the per-pair activation lock
	UseRedisLock          bool          `mapstructure:"use_redis_lock"`           // multi-instance deployments only
	MaxRetryCount         int           `mapstructure:"max_retry_count"`          // outbox delivery retries
	PrizeTable            []prize.Entry `mapstructure:"prize_table"`
}

var GlobalConfig *Config

// LoadConfig reads and parses the YAML config file.
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	GlobalConfig = config
	return config
}
