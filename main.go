package main

import (
	"fmt"
	"log"
	"os"

	"clinicore-backend/config"
	"clinicore-backend/models"
	"clinicore-backend/routes"
	"clinicore-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.InitLogger()
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Client{},
		&models.Employee{},
		&models.Treatment{},
		&models.Appointment{},
		&models.AppointmentTreatment{},
		&models.Invoice{},
		&models.Payment{},
		&models.MedicalRecord{},
	)
}

func main() {
	overdue := services.NewOverdueService(config.DB)
	overdue.StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
