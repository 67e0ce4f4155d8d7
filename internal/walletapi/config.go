package walletapi

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type App struct {
	Rdb    *redis.Client
	Db     *gorm.DB
	Store  Store
	Engine *Engine
	Aqc    *asynq.Client
}

type AppConfig struct {
	Settings AppSettings `json:"settings"`
}

type AppSettings struct {
	Tokens   []string     `json:"tokens"`
	Networks []string     `json:"networks"`
	Limits   SettingLimit `json:"limits"`
}

type SettingLimit struct {
	SendMin       float64 `json:"send_min"`
	SendMax       float64 `json:"send_max"`
	HistoryCount  int     `json:"history_count"`
	ActivityCount int     `json:"activity_count"`
}

var (
	DefaultAppConfig *AppConfig
	CurrentAppConfig *AppConfig
)

func Init() *App {
	LoadEnv()
	redisClient := setupRedis()
	db := setupDb()
	asynqClient := setupAsynqClient()

	DefaultAppConfig = &AppConfig{
		Settings: AppSettings{
			Tokens:   Tokens,
			Networks: Networks,
			Limits: SettingLimit{
				SendMin:       0,
				SendMax:       1000000,
				HistoryCount:  50,
				ActivityCount: 1000,
			},
		},
	}
	CurrentAppConfig = DefaultAppConfig

	store := NewGormStore(db)
	app := &App{
		Rdb:    redisClient,
		Db:     db,
		Store:  store,
		Engine: NewEngine(store),
		Aqc:    asynqClient,
	}
	isSet := false
	appConfigRaw, _ := app.Rdb.Get(context.Background(), "app_config").Result()
	if len(appConfigRaw) > 0 {
		err := json.Unmarshal([]byte(appConfigRaw), &CurrentAppConfig)
		if err == nil {
			isSet = true
		}
	}
	if !isSet {
		currentConfig, _ := json.Marshal(DefaultAppConfig)
		app.Rdb.Set(context.Background(), "app_config", currentConfig, 0)
	}
	return app
}

type AppWorker struct {
	Rdb   *redis.Client
	Db    *gorm.DB
	Store Store
	Aqs   *asynq.Server
}

// InitWorker wires the queue consumer used by cmd/worker.
func InitWorker() *AppWorker {
	LoadEnv()
	redisClient := setupRedis()
	db := setupDb()
	asynqServer := setupAsynqServer()

	app := &AppWorker{
		Rdb:   redisClient,
		Db:    db,
		Store: NewGormStore(db),
		Aqs:   asynqServer,
	}
	appConfigRaw, _ := app.Rdb.Get(context.Background(), "app_config").Result()
	if len(appConfigRaw) > 0 {
		_ = json.Unmarshal([]byte(appConfigRaw), &CurrentAppConfig)
	}
	if CurrentAppConfig == nil {
		CurrentAppConfig = DefaultAppConfig
	}
	return app
}

func setupRedis() *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	return redisClient
}

func setupDb() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect to the db")
	}
	err = db.AutoMigrate(
		&User{},
		&Wallet{},
		&Transaction{},
	)
	if err != nil {
		panic("failed to run migrations")
	}

	return db
}

func setupAsynqClient() *asynq.Client {
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return asynqClient
}

func setupAsynqServer() *asynq.Server {
	concurency, err := strconv.Atoi(os.Getenv("WORKER_SCALE"))
	if err != nil {
		concurency = 10
	}
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		asynq.Config{
			Concurrency: concurency,
			Queues: map[string]int{
				"review": 2,
				"alerts": 3,
			},
		},
	)
	return asynqServer
}

func LoadEnv() {
	env := os.Getenv("APP_ENV")
	if "" == env {
		env = "development"
	}

	godotenv.Load(".env." + env + ".local")

	if "test" != env {
		godotenv.Load(".env.local")
	}
	godotenv.Load(".env." + env)
	godotenv.Load()
}
