package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/UmetsuJunya/Workplace-Scheduler/auth"
	"github.com/UmetsuJunya/Workplace-Scheduler/broadcast"
	"github.com/UmetsuJunya/Workplace-Scheduler/config"
	"github.com/UmetsuJunya/Workplace-Scheduler/controllers"
	"github.com/UmetsuJunya/Workplace-Scheduler/data"
	"github.com/UmetsuJunya/Workplace-Scheduler/middleware"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	// Инициализация базы данных
	if err := data.InitDB(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Настройка аутентификации
	auth.Configure(cfg.JWTSecret, cfg.TokenTTL)
	middleware.Configure(cfg.AuthEnabled)
	if !cfg.AuthEnabled {
		log.Println("Аутентификация выключена: все запросы разрешены без токена.")
	}

	// Канал рассылки изменений
	hub := broadcast.NewHub()
	hub.Start()
	defer hub.Stop()
	controllers.SetHub(hub)

	router := mux.NewRouter()

	// Маршруты аутентификации (открытые)
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", controllers.RegisterHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", controllers.LoginHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/can-register", controllers.CanRegisterHandler).Methods(http.MethodGet)

	// Создаем подмаршрутизатор для /api, к которому будет применяться JWTMiddleware
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.JWTMiddleware)

	// Пользователи
	apiRouter.HandleFunc("/users", controllers.GetUsersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users", controllers.CreateUserHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/{id:[0-9]+}", controllers.GetUserHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{id:[0-9]+}", controllers.UpdateUserHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/{id:[0-9]+}", controllers.DeleteUserHandler).Methods(http.MethodDelete)

	// Расписание. Маршрут сверки принимает полный снимок месяца и приводит
	// сохраненное состояние к нему минимальным набором upsert/удалений.
	apiRouter.HandleFunc("/schedules", controllers.GetSchedulesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/schedules", controllers.CreateScheduleHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/schedules/bulk", controllers.BulkCreateSchedulesHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/schedules/reconcile", controllers.ReconcileHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/schedules/user/{userId:[0-9]+}", controllers.GetSchedulesByUserHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/schedules/{id:[0-9]+}", controllers.GetScheduleHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/schedules/{id:[0-9]+}", controllers.UpdateScheduleHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/schedules/{id:[0-9]+}", controllers.DeleteScheduleHandler).Methods(http.MethodDelete)

	// Проекты
	apiRouter.HandleFunc("/projects", controllers.GetProjectsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/projects", controllers.CreateProjectHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/projects/{id:[0-9]+}", controllers.GetProjectHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/projects/{id:[0-9]+}", controllers.UpdateProjectHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/projects/{id:[0-9]+}", controllers.DeleteProjectHandler).Methods(http.MethodDelete)

	// Предустановки мест работы. Маршрут reorder регистрируется раньше {id}.
	apiRouter.HandleFunc("/location-presets", controllers.GetLocationPresetsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/location-presets", controllers.CreateLocationPresetHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/location-presets/reorder", controllers.ReorderLocationPresetsHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/location-presets/{id:[0-9]+}", controllers.GetLocationPresetHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/location-presets/{id:[0-9]+}", controllers.UpdateLocationPresetHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/location-presets/{id:[0-9]+}", controllers.DeleteLocationPresetHandler).Methods(http.MethodDelete)

	// Маршрут для проверки состояния сервера (открытый, без JWT)
	router.HandleFunc("/api/health", controllers.HealthCheck).Methods(http.MethodGet)

	// WebSocket-канал рассылки. Открытый: события не содержат чувствительных
	// данных сверх того, что отдает REST API.
	router.HandleFunc("/ws", hub.HandleWebSocket).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Запуск сервера на порту %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
