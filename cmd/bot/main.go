package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/feedbackbot"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	if err := feedbackbot.Run(); err != nil {
		log.Fatal(err)
	}
}
