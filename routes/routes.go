package routes

import (
	"os"
	"strings"

	"clinicore-backend/config"
	"clinicore-backend/controllers"
	"clinicore-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	allowed := []string{"http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		allowed = append(allowed, strings.Split(extra, ",")...)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowed,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		// Treatment catalog routes
		treatments := api.Group("/treatments")
		{
			treatments.POST("", controllers.CreateTreatment)
			treatments.GET("", controllers.GetTreatments)
			treatments.GET("/:id", controllers.GetTreatment)
			treatments.PUT("/:id", controllers.UpdateTreatment)
			treatments.DELETE("/:id", controllers.DeleteTreatment)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.GET("/:id", controllers.GetAppointment)
			appointments.PUT("/:id", controllers.UpdateAppointment)
			appointments.POST("/:id/confirm", controllers.ConfirmAppointment)
			appointments.POST("/:id/cancel", controllers.CancelAppointment)
			appointments.PATCH("/:id/status", controllers.UpdateAppointmentStatus)
			appointments.DELETE("/:id", controllers.DeleteAppointment)
		}

		// Invoice routes
		invoices := api.Group("/invoices")
		{
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.PUT("/:id/discount", controllers.ApplyInvoiceDiscount)
			invoices.POST("/:id/payments", controllers.RecordInvoicePayment)
		}

		// Medical record routes
		records := api.Group("/medical-records")
		{
			records.GET("", controllers.GetMedicalRecords)
			records.GET("/:id", controllers.GetMedicalRecord)
			records.PUT("/:id", controllers.UpdateMedicalRecord)
		}

		// Employee routes
		employees := api.Group("/employees")
		{
			employees.GET("", controllers.GetEmployees)
			employees.GET("/:id", controllers.GetEmployee)
			employees.POST("", controllers.AddEmployee)
			employees.PUT("/:id", controllers.UpdateEmployee)
			employees.DELETE("/:id", controllers.DeleteEmployee)
		}

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)
	}

	return r
}
