package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/cancel_booking"
	checkInHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/check_in"
	checkSlotHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/check_slot"
	completeBookingHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/create_booking"
	createScheduleHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/create_schedule"
	materializeSchedulesHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/materialize_schedules"
	findNextSlotHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/find_next_slot"
	getAlternativeBaysHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_alternative_bays"
	getAvailableBaysHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_available_bays"
	getAvailableSlotsHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_booking"
	getPeakHoursHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_peak_hours"
	getUserBookingsHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_user_bookings"
	getZoneAvailabilityHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/get_zone_availability"
	updateBookingHandler "github.com/LitKanna/TF-PickupService/internal/api/handlers/update_booking"
	"github.com/LitKanna/TF-PickupService/internal/api/middleware"
	"github.com/LitKanna/TF-PickupService/internal/cache"
	"github.com/LitKanna/TF-PickupService/internal/config"
	"github.com/LitKanna/TF-PickupService/internal/events"
	availabilityRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/availability"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	registryRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	scheduleRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/schedule"
	timeslotRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/timeslot"
	notifyServiceClient "github.com/LitKanna/TF-PickupService/internal/integrations/notifyservice"
	orderServiceClient "github.com/LitKanna/TF-PickupService/internal/integrations/orderservice"
	availabilityService "github.com/LitKanna/TF-PickupService/internal/service/availability"
	bookingsService "github.com/LitKanna/TF-PickupService/internal/service/bookings"
	notificationsService "github.com/LitKanna/TF-PickupService/internal/service/notifications"
	scheduleService "github.com/LitKanna/TF-PickupService/internal/service/schedule"
	checkInUC "github.com/LitKanna/TF-PickupService/internal/usecase/check_in"
	createBookingUC "github.com/LitKanna/TF-PickupService/internal/usecase/create_booking"
	updateBookingUC "github.com/LitKanna/TF-PickupService/internal/usecase/update_booking"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/logger"
	"github.com/LitKanna/TF-PickupService/pkg/metrics"
	"github.com/LitKanna/TF-PickupService/pkg/simpletxmanager"
	"github.com/LitKanna/TF-PickupService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting TF-PickupService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Подключаемся к redis-кэшу доступности (если включен)
	var availCache *cache.AvailabilityCache
	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unavailable, availability cache disabled: %v", err)
		} else {
			availCache = cache.New(redisClient, time.Duration(cfg.Cache.TTLSeconds)*time.Second, log)
			log.Info("Availability cache enabled (addr=%s, ttl=%ds)", cfg.Cache.Addr, cfg.Cache.TTLSeconds)
		}
	}

	// Инициализируем шину событий и AMQP-публикатор (если включен)
	bus := events.NewBus()
	if cfg.Events.Enabled {
		publisher := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, log)
		if err := publisher.Connect(); err != nil {
			log.Warn("AMQP unavailable, booking events will not leave the process: %v", err)
		} else {
			bus.SubscribeAll(publisher.Handle)
			defer publisher.Close()
			log.Info("Booking events published to exchange %q", cfg.Events.Exchange)
		}
	}

	// Инициализируем интеграционных клиентов
	orderClient := orderServiceClient.NewClient(
		cfg.OrderService.URL,
		time.Duration(cfg.OrderService.Timeout)*time.Second,
		log,
	)
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		cfg.NotifyService.RatePerSecond,
		cfg.NotifyService.Burst,
		log,
	)
	log.Info("Integration clients initialized (OrderService=%s timeout=%ds, NotifyService=%s timeout=%ds)",
		cfg.OrderService.URL, cfg.OrderService.Timeout, cfg.NotifyService.URL, cfg.NotifyService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		registryRepository     *registryRepo.Repository
		timeslotRepository     *timeslotRepo.Repository
		bookingRepository      *bookingRepo.Repository
		availabilityRepository *availabilityRepo.Repository
		scheduleRepository     *scheduleRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		registryRepository = registryRepo.NewRepository(wrappedDB)
		timeslotRepository = timeslotRepo.NewRepository(wrappedDB)
		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		availabilityRepository = availabilityRepo.NewRepository(wrappedDB)
		scheduleRepository = scheduleRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		registryRepository = registryRepo.NewRepository(db)
		timeslotRepository = timeslotRepo.NewRepository(db)
		bookingRepository = bookingRepo.NewRepository(db)
		availabilityRepository = availabilityRepo.NewRepository(db)
		scheduleRepository = scheduleRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(
		registryRepository,
		timeslotRepository,
		bookingRepository,
		availabilityRepository,
		availCache,
		&availabilityService.RealTimeProvider{},
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		availabilityRepository,
		registryRepository,
		orderClient,
		txMgr,
		bus,
		availCache,
		&bookingsService.RealTimeProvider{},
		log,
	)

	// Уведомления слушают шину событий
	notificationsService.NewService(notifyClient, log).RegisterOn(bus)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		availabilityRepository,
		registryRepository,
		timeslotRepository,
		txMgr,
		bus,
		availCache,
		log,
	)
	updateBookingUseCase := updateBookingUC.NewUseCase(
		bookingRepository,
		availabilityRepository,
		registryRepository,
		timeslotRepository,
		txMgr,
		bus,
		availCache,
		log,
	)
	checkInUseCase := checkInUC.NewUseCase(
		bookingRepository,
		availabilityRepository,
		registryRepository,
		orderClient,
		txMgr,
		bus,
		availCache,
		log,
	)

	scheduleSvc := scheduleService.NewService(
		scheduleRepository,
		registryRepository,
		createBookingUseCase,
		&scheduleService.RealTimeProvider{},
		log,
	)

	// Инициализируем handlers
	getAvailableBays := getAvailableBaysHandler.NewHandler(availabilitySvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(availabilitySvc, log)
	getZoneAvailability := getZoneAvailabilityHandler.NewHandler(availabilitySvc, log)
	findNextSlot := findNextSlotHandler.NewHandler(availabilitySvc, log)
	checkSlot := checkSlotHandler.NewHandler(availabilitySvc, log)
	getAlternativeBays := getAlternativeBaysHandler.NewHandler(availabilitySvc, log)
	getPeakHours := getPeakHoursHandler.NewHandler(availabilitySvc, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	updateBooking := updateBookingHandler.NewHandler(updateBookingUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	checkIn := checkInHandler.NewHandler(checkInUseCase, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	createSchedule := createScheduleHandler.NewHandler(scheduleSvc, log)
	materializeSchedules := materializeSchedulesHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// --- Доступность ---
	api.HandleFunc("/availability/bays", getAvailableBays.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/zones", getZoneAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/next-slot", findNextSlot.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/check", checkSlot.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/alternatives", getAlternativeBays.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/peak-hours", getPeakHours.Handle).Methods(http.MethodGet)

	// --- Киоск на въезде ---
	// Чек-ин и просмотр по публичной ссылке идут без X-User-ID:
	// киоск аутентифицирует по коду подтверждения.
	api.HandleFunc("/bookings/check-in", checkIn.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/reference/{reference}", getBooking.HandleByReference).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", updateBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPost)

	// --- Регулярные расписания ---
	protected.HandleFunc("/schedules", createSchedule.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/schedules/materialize", materializeSchedules.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/schedules/{scheduleId}", createSchedule.HandleGet).Methods(http.MethodGet)

	// Фоновые процессы живут до остановки сервера
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Планировщик напоминаний
	if cfg.Reminders.Enabled {
		reminderScheduler := notificationsService.NewReminderScheduler(
			bookingRepository,
			bus,
			&notificationsService.RealTimeProvider{},
			time.Duration(cfg.Reminders.CheckIntervalSeconds)*time.Second,
			log,
		)
		go reminderScheduler.Run(backgroundCtx)
	}

	// Материализация регулярных расписаний
	if cfg.Schedules.Enabled {
		go runScheduleMaterializer(backgroundCtx, scheduleSvc,
			time.Duration(cfg.Schedules.CheckIntervalSeconds)*time.Second, log)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновые процессы
	stopBackground()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// runScheduleMaterializer периодически превращает назревшие регулярные
// расписания в бронирования
func runScheduleMaterializer(ctx context.Context, svc *scheduleService.Service, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("schedules: materializer started, interval=%s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("schedules: materializer stopped")
			return
		case <-ticker.C:
			report, err := svc.MaterializeDue(ctx)
			if err != nil {
				log.Error("schedules: materialization pass failed: %v", err)
				continue
			}
			if report.Due > 0 {
				log.Info("schedules: materialized due=%d created=%d flagged=%d expired=%d",
					report.Due, report.Created, report.Flagged, report.Expired)
			}
		}
	}
}
