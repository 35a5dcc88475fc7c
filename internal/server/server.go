// Package server exposes the pipeline over HTTP: the run-now trigger, the
// ranked article feed, and the monitoring endpoints.
package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/aidoptation/news/internal/app"
	"github.com/aidoptation/news/internal/metrics"
	"github.com/aidoptation/news/internal/rank"
	"github.com/aidoptation/news/internal/storage"
)

// Config carries the server's collaborators.
type Config struct {
	Pipeline *app.Pipeline
	Store    *storage.Store
}

type articleResponse struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Topics      []string  `json:"topics"`
	VisitCount  int       `json:"visitCount"`
	Score       float64   `json:"score"`
}

func toResponse(scored []rank.Scored) []articleResponse {
	out := make([]articleResponse, len(scored))
	for i, s := range scored {
		out[i] = articleResponse{
			Title:       s.Title,
			URL:         s.URL,
			Source:      s.Source,
			PublishedAt: s.PublishedAt,
			Description: s.Description,
			ImageURL:    s.ImageURL,
			Topics:      s.Topics,
			VisitCount:  s.VisitCount,
			Score:       s.Score,
		}
	}
	return out
}

// New returns the fiber app serving the API.
func New(config *Config) *fiber.App {
	srv := fiber.New(fiber.Config{DisableStartupMessage: true})

	srv.Use(requestid.New(requestid.ConfigDefault))

	// Latency logging for every request.
	srv.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Path(),
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	// Trigger one ingestion run. Idempotent, no parameters.
	srv.Post("/api/refresh", func(c *fiber.Ctx) error {
		summary, err := config.Pipeline.Run(c.Context())
		if err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Run failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"stats": fiber.Map{
				"fetched":         summary.Fetched,
				"unique":          summary.Unique,
				"duplicateGroups": summary.DuplicateGroups,
				"saved":           summary.Saved,
				"skipped":         summary.Skipped,
				"duration":        summary.Elapsed.String(),
			},
		})
	})

	// Ranked article feed.
	srv.Get("/api/news", func(c *fiber.Ctx) error {
		var requested []string
		if raw := c.Query("topics"); raw != "" {
			requested = strings.Split(raw, ",")
		}
		limit := c.QueryInt("limit", 100)

		scored, err := config.Pipeline.RankedArticles(c.Context(), requested, limit)
		if err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Listing articles failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch articles"})
		}
		return c.JSON(fiber.Map{"articles": toResponse(scored)})
	})

	// Visit tracking feeds the popularity signal.
	srv.Post("/api/news/visit", func(c *fiber.Ctx) error {
		url := c.Query("url")
		if url == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url parameter required"})
		}
		if err := config.Store.IncrementVisit(c.Context(), url); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	// Team management: colleague topic lists.
	srv.Get("/api/team", func(c *fiber.Ctx) error {
		members, err := config.Store.ListColleagues(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch members"})
		}
		return c.JSON(fiber.Map{"members": members})
	})

	srv.Post("/api/team", func(c *fiber.Ctx) error {
		var body struct {
			Name   string `json:"name"`
			Topics string `json:"topics"`
		}
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}
		if body.Topics == "" {
			body.Topics = `["autonomous-driving"]`
		}
		if err := config.Store.UpsertColleague(c.Context(), body.Name, body.Topics); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	// Global settings, e.g. the general feed's topic list.
	srv.Post("/api/settings", func(c *fiber.Ctx) error {
		var body struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		if err := c.BodyParser(&body); err != nil || body.Key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key is required"})
		}
		if err := config.Store.SetGlobalSetting(c.Context(), body.Key, body.Value); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	srv.Get("/health", func(c *fiber.Ctx) error {
		stats := metrics.Global.GetStats()
		status := "ok"
		if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
			status = "error"
			c.Status(fiber.StatusServiceUnavailable)
		}
		return c.JSON(fiber.Map{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	})

	srv.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(metrics.Global.GetStats())
	})

	return srv
}
