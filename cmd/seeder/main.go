package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"novawallet/internal/walletapi"
	"novawallet/internal/worker"
)

// Demo users - only user01 starts with a USDT balance, admin monitors.
var demoUsers = []struct {
	Email    string
	Password string
	Usdt     float64
	IsAdmin  bool
}{
	{"user01@demo.com", "demo123", 5000, false},
	{"user02@demo.com", "demo123", 0, false},
	{"user03@demo.com", "demo123", 0, false},
	{"user04@demo.com", "demo123", 0, false},
	{"user05@demo.com", "demo123", 0, false},
	{"admin@demo.com", "admin@123", 0, true},
}

type seedTask struct {
	engine *walletapi.Engine
	store  walletapi.Store
	index  int
}

func (t *seedTask) Execute() {
	ctx := context.Background()
	entry := demoUsers[t.index]

	hashed, err := bcrypt.GenerateFromPassword([]byte(entry.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Println("bcrypt failed for", entry.Email, ":", err)
		return
	}
	user, wallet, err := t.engine.Register(ctx, entry.Email, string(hashed))
	if err != nil {
		log.Println("seed failed for", entry.Email, ":", err)
		return
	}
	if entry.IsAdmin {
		user.IsAdmin = true
		if err := t.store.SaveUser(ctx, user); err != nil {
			log.Println("admin flag failed for", entry.Email, ":", err)
			return
		}
	}
	if entry.Usdt > 0 {
		actor := walletapi.Actor{UserID: user.Id, WalletID: wallet.Id}
		if _, err := t.engine.SetBalance(ctx, actor, "USDT", entry.Usdt); err != nil {
			log.Println("balance seed failed for", entry.Email, ":", err)
			return
		}
	}
	fmt.Printf("Created %s - %s (USDT: %g, admin: %v)\n", user.UserId, user.Email, entry.Usdt, entry.IsAdmin)
}

func main() {
	app := walletapi.Init()

	speed := 4
	if s, err := strconv.Atoi(os.Getenv("SEEDER_SPEED")); err == nil && s > 0 {
		speed = s
	}
	pool := worker.NewPool(speed, len(demoUsers))
	for i := range demoUsers {
		pool.Exec(&seedTask{engine: app.Engine, store: app.Store, index: i})
	}
	pool.Wait()
	pool.Close()

	fmt.Println("\nDatabase seeded.")
	fmt.Println("Demo credentials: user01@demo.com (USDT 5,000), user02-user05@demo.com (empty), password demo123")
	fmt.Println("Admin: admin@demo.com / admin@123")
}
