package main

import (
	"novawallet/internal/server"
)

func main() {
	server.ApiInit()
}
