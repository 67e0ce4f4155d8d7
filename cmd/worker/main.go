package main

import (
	"log"

	"novawallet/internal/tasks"
	"novawallet/internal/walletapi"
)

func main() {
	app := walletapi.InitWorker()
	handler := &tasks.Handler{
		Rdb:   app.Rdb,
		Store: app.Store,
	}
	log.Println("[ Wallet Worker is up, consuming review and alerts queues ]")
	if err := app.Aqs.Run(handler.Mux()); err != nil {
		log.Fatal("Failed to run Wallet Worker: ", err)
	}
}
