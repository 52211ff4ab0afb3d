package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/powerpix/powerpix-api/cmd/app"
)

// @title        PowerPix API
// @description  Numbers lottery backed by a prepaid PIX wallet.
//
// @contact.name   PowerPix Engineering
// @contact.email  dev@powerpix.com.br
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Admin token, sent as "Bearer <token>"
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
