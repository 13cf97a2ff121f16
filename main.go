package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/felicity-portal/felicity-api/cmd/app"
)

// @termsOfService  http://swagger.io/terms/
// @contact.name   API Support
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
