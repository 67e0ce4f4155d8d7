package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"novawallet/internal/api"
	"novawallet/internal/api/middleware"
	"novawallet/internal/tasks"
	"novawallet/internal/walletapi"
)

var App *walletapi.App

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func ApiInit() { // Run Api Server
	App = walletapi.Init()
	App.Engine.Notifier = tasks.NewQueueNotifier(App.Aqc)
	if fileLog := os.Getenv("FILE_LOG"); fileLog != "" {
		SetLogger(fileLog)
	}
	router := gin.Default()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	// Each ip can make 100 requests per second
	store := ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       1,
		}),
		Rate:  time.Second,
		Limit: 100,
	})
	mw := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://0.0.0.0:3000",
			"http://localhost:3000",
			os.Getenv("FRONTEND_URL"),
		},
		AllowHeaders:  []string{"Origin", "Access-Control-Allow-Origin", "Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		AllowMethods:  []string{"GET, POST, OPTIONS, PUT, DELETE"},
		MaxAge:        24 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Set("app", App)
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", mw, wsHandler)
	auth := router.Group("/api/auth/")
	{
		auth.POST("/register", mw, api.Register)
		auth.POST("/login", mw, api.Login)
	}
	market := router.Group("/api/market/")
	{
		market.GET("/prices", mw, api.GetMarketPrices)
		market.GET("/gas-fees", mw, api.GetGasFees)
		market.GET("/chart/:symbol", mw, api.GetChart)
	}
	wallet := router.Group("/api/wallet/").Use(middleware.Auth())
	{
		wallet.GET("/balance", mw, api.GetBalance)
		wallet.PUT("/balance", mw, api.UpdateBalance)
	}
	transaction := router.Group("/api/transaction/").Use(middleware.Auth())
	{
		transaction.POST("/send", mw, api.Send)
		transaction.POST("/swap", mw, api.Swap)
		transaction.GET("/history", mw, api.GetHistory)
	}
	user := router.Group("/api/user/").Use(middleware.Auth())
	{
		user.GET("/profile", mw, api.GetProfile)
		user.PUT("/profile", mw, api.UpdateProfile)
		user.PUT("/notifications", mw, api.UpdateNotifications)
	}
	admin := router.Group("/api/admin/").Use(middleware.Auth(), middleware.Admin())
	{
		admin.GET("/transactions", mw, api.GetAllTransactions)
		admin.GET("/users", mw, api.GetAllUsers)
		admin.PUT("/transaction/:id/status", mw, api.UpdateTransactionStatus)
		admin.GET("/activity", mw, api.GetActivity)
		admin.GET("/stats", mw, api.GetStats)
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	fmt.Println("[ Wallet Backend is up and listening to :" + port + " ]")
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to run Wallet Backend on :"+port+": ", err)
	}
}

func wsHandler(c *gin.Context) {
	// Extract token from query
	token := c.DefaultQuery("token", "")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	userId, _, err := api.GetUserFromToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	app := c.MustGet("app").(*walletapi.App)
	user, err := app.Store.UserByID(c.Request.Context(), userId)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	// Upgrade Connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to set websocket upgrade: %+v", err)
		return
	}
	defer conn.Close()

	appConfigRaw, _ := app.Rdb.Get(c, "app_config").Result()
	if len(appConfigRaw) > 0 {
		_ = json.Unmarshal([]byte(appConfigRaw), &walletapi.CurrentAppConfig)
	}
	lastPong := time.Now()
	conn.SetPongHandler(func(string) error {
		lastPong = time.Now()
		return nil
	})
	pingPeriod := 3 * time.Second
	timeout := 9 * time.Second
	var mu sync.Mutex // Serializes writes to the websocket connection

	jsonData := walletapi.SyncWalletStats(c.Request.Context(), app.Store, *user)
	if jsonData != nil {
		if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			fmt.Println("Socket: Failed to send data:", err)
			return
		}
	}
	go func() {
		pubsub := app.Rdb.Subscribe(c, fmt.Sprintf("notification_ch@%d", user.Id))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			mu.Lock()
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Println("Socket: Failed to send data:", err)
				mu.Unlock()
				_ = conn.Close()
				return
			}
			mu.Unlock()
		}
	}()
	// Listen for commands via ws
	go func() {
		defer conn.Close()

		for {
			messageType, p, err := conn.ReadMessage()
			if err != nil {
				log.Println(err)
				return
			}
			switch messageType {
			case websocket.TextMessage:
				message := string(p)
				var ackMsg struct {
					Type string `json:"type"`
					Id   int    `json:"id"`
				}
				if err := json.Unmarshal([]byte(message), &ackMsg); err == nil {
					if ackMsg.Type == "ack" {
						// Remove the acknowledged notification from Redis
						_, err := app.Rdb.Del(context.Background(), fmt.Sprintf("notification_cache@%d:%d", user.Id, ackMsg.Id)).Result()
						if err != nil {
							fmt.Println("failed to delete acknowledged message from Redis:", err)
						}
						continue
					}
				}
				if message == "sync" {
					fresh, err := app.Store.UserByID(context.Background(), user.Id)
					if err != nil {
						continue
					}
					jsonData := walletapi.SyncWalletStats(context.Background(), app.Store, *fresh)
					if jsonData != nil {
						mu.Lock()
						if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
							fmt.Println("Socket: Failed to send data:", err)
							mu.Unlock()
							return
						}
						mu.Unlock()
					}
				}
			default:
				fmt.Println("Socket: Unhandled message type:", messageType)
			}
		}
	}()
	for {
		// Replay cached notifications until acked
		iter := app.Rdb.Scan(context.Background(), 0, fmt.Sprintf("notification_cache@%d:*", user.Id), 0).Iterator()
		for iter.Next(context.Background()) {
			lastNotification, _ := app.Rdb.Get(context.Background(), iter.Val()).Result()
			if len(lastNotification) > 0 {
				mu.Lock()
				if err := conn.WriteMessage(websocket.TextMessage, []byte(lastNotification)); err != nil {
					log.Println("Socket: Failed to send data:", err)
					mu.Unlock()
					_ = conn.Close()
					return
				}
				mu.Unlock()
			}
		}
		if time.Since(lastPong) > timeout {
			log.Println("Socket: Client did not respond to ping, closing connection")
			return
		}
		mu.Lock()
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			log.Println("Socket: Failed to send ping:", err)
			mu.Unlock()
			return
		}
		mu.Unlock()
		time.Sleep(pingPeriod)
	}
}
