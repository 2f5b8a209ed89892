/*
Copyright © 2025 careline
*/
package main

import (
	"log"

	"github.com/careline/chatbot-be/cmd"
	"github.com/joho/godotenv"
)

func main() {
	cmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}
}
