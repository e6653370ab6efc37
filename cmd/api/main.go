package main

import (
	"construction_estimator/internal/cli"

	_ "github.com/joho/godotenv/autoload"
)

// @title           Construction Estimator API
// @version         1.0
// @description     Drafts, prices and revises construction cost estimates from plans or room lists.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

func main() {
	cli.Execute()
}
