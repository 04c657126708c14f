package buildCFG

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"alvara/internal/rabbit"
	"alvara/internal/review"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"

	SchedulerTimer  = "timer"
	SchedulerRabbit = "rabbit"
)

type ServerConfig struct {
	Port     string
	MailFrom string
}

type StorageConfig struct {
	Driver   string
	FilePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

type ReviewConfig struct {
	Delay       time.Duration
	Scheduler   string
	SeedHistory bool
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msgf("server.port not set, using %s", port)
	}
	from := cfg.GetString("mail.from")
	if from == "" {
		from = "alvara@londrina.pr.gov.br"
	}
	return ServerConfig{Port: port, MailFrom: from}
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) (StorageConfig, error) {
	sc := StorageConfig{
		Driver:   strings.ToLower(cfg.GetString("storage.driver")),
		FilePath: cfg.GetString("storage.file.path"),
	}
	if sc.Driver == "" {
		sc.Driver = StorageFile
	}
	switch sc.Driver {
	case StorageFile:
		if sc.FilePath == "" {
			sc.FilePath = "data/aprovaEventos_db.json"
		}
	case StoragePostgres, StorageRedis:
	default:
		return StorageConfig{}, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	log.Info().Str("driver", sc.Driver).Msg("storage configured")
	return sc, nil
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	host := cfg.GetString("postgres.host")
	port := cfg.GetInt("postgres.port")
	user := cfg.GetString("postgres.user")
	password := cfg.GetString("postgres.password")
	name := cfg.GetString("postgres.dbname")
	if host == "" || user == "" || name == "" {
		return "", nil, nil, fmt.Errorf("postgres.host, postgres.user and postgres.dbname are required")
	}
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.GetString("postgres.sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	masterDSN := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode)

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("postgres.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("postgres.max_idle_conns"),
		ConnMaxLifetime: cfg.GetDuration("postgres.conn_max_lifetime"),
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 5
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 2
	}
	log.Info().Str("host", host).Int("port", port).Str("db", name).Msg("postgres configured")
	return masterDSN, nil, opts, nil
}

func BuildRedisConfig(cfg *config.Config, log *zerolog.Logger) (RedisConfig, error) {
	rc := RedisConfig{
		Addr:     cfg.GetString("redis.addr"),
		Password: cfg.GetString("redis.password"),
		DB:       cfg.GetInt("redis.db"),
		Key:      cfg.GetString("redis.key"),
	}
	if rc.Addr == "" {
		return RedisConfig{}, fmt.Errorf("redis.addr is required")
	}
	log.Info().Str("addr", rc.Addr).Int("db", rc.DB).Msg("redis configured")
	return rc, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (rabbit.Config, error) {
	rc := rabbit.Config{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rabbit.Config{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "alvara.review.delayed"
	}
	if rc.Queue == "" {
		rc.Queue = "alvara.review"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configured")
	return rc, nil
}

func BuildReviewConfig(cfg *config.Config, log *zerolog.Logger) (ReviewConfig, error) {
	rc := ReviewConfig{
		Delay:       cfg.GetDuration("review.delay"),
		Scheduler:   strings.ToLower(cfg.GetString("review.scheduler")),
		SeedHistory: cfg.GetBool("review.seed_demo_history"),
	}
	if rc.Delay <= 0 {
		rc.Delay = review.DefaultDelay
	}
	if rc.Scheduler == "" {
		rc.Scheduler = SchedulerTimer
	}
	if rc.Scheduler != SchedulerTimer && rc.Scheduler != SchedulerRabbit {
		return ReviewConfig{}, fmt.Errorf("unknown review scheduler %q", rc.Scheduler)
	}
	log.Info().Str("scheduler", rc.Scheduler).Dur("delay", rc.Delay).Msg("review configured")
	return rc, nil
}
