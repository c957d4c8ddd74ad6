package main

import (
	"log"
	"os"
	"runtime"

	"backend-checkin/internal/config"
	"backend-checkin/internal/http/handler"
	"backend-checkin/internal/realtime"
	"backend-checkin/internal/service"
	"backend-checkin/internal/store/mysqlstore"
	"backend-checkin/internal/store/redisstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	config.LoadEnv()
	rdb := config.InitRedis()
	db := config.InitDB()
	defer db.Close()

	hub := realtime.NewDisplayHub()
	go hub.Run()

	svc := service.NewQueueService(redisstore.New(rdb), mysqlstore.New(db), hub)
	h := handler.New(svc)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Check-in API jalan",
		})
	})

	// Check-in pasien (OTP + nomor antrian)
	app.Post("/api/checkin/request-otp", h.RequestOtp)
	app.Post("/api/checkin/verify", h.VerifyAndIssue)

	// Ticket
	app.Get("/api/ticket/status", h.TicketStatus)
	app.Post("/api/ticket/reissue", h.Reissue)

	// Admin loket
	app.Post("/api/admin/queue/advance", h.AdvanceQueue)

	// Papan display realtime
	app.Get("/ws/display", websocket.New(handler.DisplayWS(hub)))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	addr := os.Getenv("APP_HOST") + ":" + config.GetEnv("APP_PORT", "3000")
	log.Println("Server jalan di", addr)
	log.Fatal(app.Listen(addr))
}
