package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger логирует запросы с тегом сервиса и размером тела
func Logger(tag string) fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] [" + tag + "] ${status} - ${latency} ${method} ${path} | in ${bytesReceived}B out ${bytesSent}B\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
