package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"foyer-backend/controllers"
	"foyer-backend/metrics"
	"foyer-backend/middleware"
)

// Controllers groups the handlers mounted under /api.
type Controllers struct {
	University   *controllers.UniversityController
	Foyer        *controllers.FoyerController
	Bloc         *controllers.BlocController
	Room         *controllers.RoomController
	Student      *controllers.StudentController
	Reservation  *controllers.ReservationController
	Availability *controllers.AvailabilityController
}

// SetupRouter builds the gin engine. An empty origins list allows any origin.
func SetupRouter(ctl Controllers, origins []string, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log), middleware.Metrics())

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		universities := api.Group("/universities")
		{
			universities.GET("", ctl.University.GetUniversities)
			universities.POST("", ctl.University.CreateUniversity)
			universities.GET("/:id", ctl.University.GetUniversity)
			universities.PUT("/:id", ctl.University.UpdateUniversity)
			universities.DELETE("/:id", ctl.University.DeleteUniversity)
			universities.POST("/:id/foyer", ctl.University.CreateFoyerAndAssign)
			universities.DELETE("/:id/foyer", ctl.University.UnassignFoyer)

			// by-name must stay a static segment next to /:id
			universities.PUT("/by-name/:name/foyer/:foyerId", ctl.University.AssignFoyer)
			universities.GET("/by-name/:name/rooms", ctl.Room.GetRoomsByUniversity)
			universities.GET("/by-name/:name/reservations", ctl.Reservation.GetReservationsByUniversityAndYear)
		}

		foyers := api.Group("/foyers")
		{
			foyers.GET("", ctl.Foyer.GetFoyers)
			foyers.POST("", ctl.Foyer.CreateFoyer)
			foyers.GET("/:id", ctl.Foyer.GetFoyer)
			foyers.PUT("/:id", ctl.Foyer.UpdateFoyer)
			foyers.DELETE("/:id", ctl.Foyer.DeleteFoyer)
		}

		blocs := api.Group("/blocs")
		{
			blocs.GET("", ctl.Bloc.GetBlocs)
			blocs.POST("", ctl.Bloc.CreateBloc)
			blocs.GET("/:id", ctl.Bloc.GetBloc)
			blocs.PUT("/:id", ctl.Bloc.UpdateBloc)
			blocs.DELETE("/:id", ctl.Bloc.DeleteBloc)
			blocs.PUT("/:id/rooms", ctl.Bloc.AssignRooms)
			blocs.GET("/:id/rooms", ctl.Room.GetRoomsByBlocAndType)
		}

		rooms := api.Group("/rooms")
		{
			rooms.GET("", ctl.Room.GetRooms)
			rooms.POST("", ctl.Room.CreateRoom)
			rooms.GET("/:id", ctl.Room.GetRoom)
			rooms.PUT("/:id", ctl.Room.UpdateRoom)
			rooms.DELETE("/:id", ctl.Room.DeleteRoom)
		}

		students := api.Group("/students")
		{
			students.GET("", ctl.Student.GetStudents)
			students.POST("", ctl.Student.CreateStudent)
			students.POST("/batch", ctl.Student.CreateStudents)
			students.GET("/cin/:cin", ctl.Student.GetStudentByCIN)
			students.GET("/:id", ctl.Student.GetStudent)
			students.PUT("/:id", ctl.Student.UpdateStudent)
			students.DELETE("/:id", ctl.Student.DeleteStudent)
		}

		reservations := api.Group("/reservations")
		{
			reservations.GET("", ctl.Reservation.GetReservations)
			reservations.POST("", ctl.Reservation.CreateReservation)
			reservations.POST("/cancel/:cin", ctl.Reservation.CancelReservation)
			reservations.GET("/:id", ctl.Reservation.GetReservation)
			reservations.PATCH("/:id", ctl.Reservation.UpdateReservation)
		}

		availability := api.Group("/availability")
		{
			availability.GET("", ctl.Availability.GetAvailableRoomsAllUniversities)
			availability.GET("/universities/:name", ctl.Availability.GetAvailableRooms)
		}
	}

	return r
}
