package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pharma-crm-server/internal/config"
	"pharma-crm-server/internal/handlers"
	"pharma-crm-server/internal/middleware"
	"pharma-crm-server/internal/repository"
	"pharma-crm-server/internal/services"
)

// Services is the application layer the routes are served from.
type Services struct {
	Accounts      *services.AccountService
	Auth          *services.AuthService
	Users         *services.UserService
	Doctors       *services.DoctorService
	Scheduling    *services.SchedulingService
	Reports       *services.ReportService
	Organizations *services.OrganizationService
	Pipeline      *services.PipelineService
	Territories   *services.TerritoryService
	Dashboard     *services.DashboardService
}

// Repositories are the storage contracts behind Services.
type Repositories struct {
	Doctors       repository.DoctorRepository
	Appointments  repository.AppointmentRepository
	Reports       repository.ReportRepository
	Organizations repository.OrganizationRepository
	Pipelines     repository.PipelineRepository
	Deals         repository.DealRepository
	Territories   repository.TerritoryRepository
	Users         repository.UserRepository
	Tokens        repository.RefreshTokenRepository
}

// GormRepositories wires every repository to db.
func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Doctors:       repository.NewDoctorRepository(db),
		Appointments:  repository.NewAppointmentRepository(db),
		Reports:       repository.NewReportRepository(db),
		Organizations: repository.NewOrganizationRepository(db),
		Pipelines:     repository.NewPipelineRepository(db),
		Deals:         repository.NewDealRepository(db),
		Territories:   repository.NewTerritoryRepository(db),
		Users:         repository.NewUserRepository(db),
		Tokens:        repository.NewRefreshTokenRepository(db),
	}
}

// NewServices builds the application layer. effects may be nil.
func NewServices(repos Repositories, cfg *config.Config, effects *services.SideEffects) *Services {
	doctors := services.NewDoctorService(repos.Doctors, repos.Organizations, repos.Territories)
	return &Services{
		Accounts:      services.NewAccountService(repos.Users, repos.Territories),
		Auth:          services.NewAuthService(repos.Users, repos.Tokens, cfg),
		Users:         services.NewUserService(repos.Users),
		Doctors:       doctors,
		Scheduling:    services.NewSchedulingService(repos.Appointments, doctors, effects, cfg.Location()),
		Reports:       services.NewReportService(repos.Appointments, repos.Reports),
		Organizations: services.NewOrganizationService(repos.Organizations),
		Pipeline:      services.NewPipelineService(repos.Pipelines, repos.Deals, repos.Organizations, doctors),
		Territories:   services.NewTerritoryService(repos.Territories, repos.Doctors, repos.Users),
		Dashboard:     services.NewDashboardService(repos.Doctors, repos.Appointments),
	}
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, svc *Services, cfg *config.Config, logger zerolog.Logger) {
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	calendarHandler := handlers.NewCalendarHandler(svc.Scheduling)
	dealHandler := handlers.NewDealHandler(svc.Pipeline)
	territoryHandler := handlers.NewTerritoryHandler(svc.Territories)
	pageHandler := handlers.NewPageHandler(handlers.PageServices{
		Doctors:       svc.Doctors,
		Scheduling:    svc.Scheduling,
		Reports:       svc.Reports,
		Organizations: svc.Organizations,
		Pipeline:      svc.Pipeline,
		Dashboard:     svc.Dashboard,
	})
	auth := middleware.AuthMiddleware(cfg, svc.Accounts, logger)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
			authRoutes.POST("/logout", authHandler.Logout)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(auth)
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Calendar feed and actions
		private.GET("/events", calendarHandler.Events)
		private.POST("/events/create", calendarHandler.CreateEvent)
		private.POST("/events/update", calendarHandler.UpdateEvent)
		private.POST("/events/delete", calendarHandler.DeleteEvent)
		private.GET("/alerts", calendarHandler.Alerts)

		// Kanban
		private.GET("/deals", dealHandler.ListDeals)
		private.POST("/deals/move", dealHandler.MoveDeal)

		// Manager console
		admin := private.Group("/admin")
		admin.Use(middleware.RequireManager())
		{
			admin.GET("/users", userHandler.GetUsers)
			admin.POST("/users", userHandler.CreateUser)
			admin.GET("/users/:id", userHandler.GetUserByID)
			admin.PUT("/users/:id", userHandler.UpdateUser)
			admin.DELETE("/users/:id", userHandler.DeleteUser)

			admin.GET("/territories", territoryHandler.ListTerritories)
			admin.POST("/territories", territoryHandler.CreateTerritory)
			admin.PUT("/territories/:id", territoryHandler.UpdateTerritory)
			admin.DELETE("/territories/:id", territoryHandler.DeleteTerritory)

			admin.GET("/representatives", territoryHandler.ListRepresentatives)
			admin.POST("/representatives", territoryHandler.CreateRepresentative)
			admin.DELETE("/representatives/:id", territoryHandler.DeleteRepresentative)

			admin.GET("/assignments", territoryHandler.ListAssignments)
			admin.POST("/assignments", territoryHandler.CreateAssignment)
			admin.PUT("/assignments/:id", territoryHandler.UpdateAssignment)
			admin.DELETE("/assignments/:id", territoryHandler.DeleteAssignment)

			admin.GET("/pipelines", dealHandler.ListPipelines)
			admin.POST("/pipelines", dealHandler.CreatePipeline)
			admin.POST("/pipelines/:id/default", dealHandler.SetDefaultPipeline)
		}
	}

	// Pages
	pages := router.Group("/crm")
	pages.Use(auth)
	{
		pages.GET("", pageHandler.Dashboard)
		pages.GET("/agenda", pageHandler.Agenda)
		pages.GET("/kanban", pageHandler.Kanban)

		pages.GET("/contacts", pageHandler.Contacts)
		pages.GET("/contacts/new", pageHandler.ContactForm)
		pages.POST("/contacts/new", pageHandler.CreateContact)
		pages.GET("/contacts/:id/edit", pageHandler.EditContact)
		pages.POST("/contacts/:id/edit", pageHandler.UpdateContact)
		pages.GET("/contacts/:id/delete", pageHandler.ConfirmDeleteContact)
		pages.POST("/contacts/:id/delete", pageHandler.DeleteContact)

		pages.GET("/appointments", pageHandler.Appointments)
		pages.GET("/appointments/new", pageHandler.AppointmentForm)
		pages.POST("/appointments/new", pageHandler.CreateAppointment)
		pages.GET("/appointments/:id/edit", pageHandler.EditAppointment)
		pages.POST("/appointments/:id/edit", pageHandler.UpdateAppointment)
		pages.GET("/appointments/:id/delete", pageHandler.ConfirmDeleteAppointment)
		pages.POST("/appointments/:id/delete", pageHandler.DeleteAppointment)

		pages.GET("/reports", pageHandler.Reports)
		pages.GET("/reports/new/:appointment", pageHandler.ReportForm)
		pages.POST("/reports/new/:appointment", pageHandler.CreateReport)
		pages.GET("/reports/:id/edit", pageHandler.EditReport)
		pages.POST("/reports/:id/edit", pageHandler.UpdateReport)

		pages.GET("/organizations", pageHandler.Organizations)
		pages.GET("/organizations/new", pageHandler.OrganizationForm)
		pages.POST("/organizations/new", pageHandler.CreateOrganization)
		pages.GET("/organizations/:id/edit", pageHandler.EditOrganization)
		pages.POST("/organizations/:id/edit", pageHandler.UpdateOrganization)
		pages.POST("/organizations/:id/delete", pageHandler.DeleteOrganization)

		pages.GET("/deals", pageHandler.Deals)
		pages.GET("/deals/new", pageHandler.DealForm)
		pages.POST("/deals/new", pageHandler.CreateDeal)
		pages.GET("/deals/:id/edit", pageHandler.EditDeal)
		pages.POST("/deals/:id/edit", pageHandler.UpdateDeal)
		pages.POST("/deals/:id/delete", pageHandler.DeleteDeal)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "time": time.Now().UTC()})
	})
}
