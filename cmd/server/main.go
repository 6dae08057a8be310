package main

import "dawaam/internal/app/server"

func main() {
	server.Run()
}
