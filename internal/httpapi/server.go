// Package httpapi serves due requests, progress and completion over HTTP.
package httpapi

import (
	"errors"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/chris-regnier/dailyctl/internal/daily"
	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

// Options configures a Server.
type Options struct {
	Metrics bool
}

// Server is the HTTP API. Handlers that touch storage run one at a time.
type Server struct {
	app     *fiber.App
	store   storage.Storage
	sched   *schedule.Scheduler
	planner *daily.Planner
	metrics *metrics
	mu      sync.Mutex
}

// New builds the fiber app and registers every route.
func New(store storage.Storage, sched *schedule.Scheduler, planner *daily.Planner, opts Options) *Server {
	s := &Server{store: store, sched: sched, planner: planner}

	s.app = fiber.New(fiber.Config{
		AppName:               "dailyctl",
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	if opts.Metrics {
		s.metrics = newMetrics()
		s.app.Use(s.metrics.middleware)
		s.app.Get("/metrics", s.metrics.handler)
	}

	s.app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	api := s.app.Group("/api/v1")
	api.Get("/accounts", s.listAccounts)
	api.Get("/accounts/:id/daily-requests", s.dailyRequests)
	api.Get("/accounts/:id/progress", s.progress)
	api.Post("/accounts/:id/levels/:level/complete", s.completeLevel)
	api.Post("/accounts/:id/purchases/:event/complete", s.completePurchase)
	api.Get("/today", s.today)

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	log.WithField("addr", addr).Info("http api listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type errorResponse struct {
	Error string `json:"error"`
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, schedule.ErrAccountNotFound), errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, schedule.ErrInvalidDateFormat), errors.Is(err, schedule.ErrDateBeforeStart),
		errors.Is(err, storage.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, storage.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, schedule.ErrUpstreamLookup):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+": "+c.Params(name))
	}
	return id, nil
}

// dateParam returns ?date= or today in the scheduler's clock.
func (s *Server) dateParam(c *fiber.Ctx) string {
	if d := c.Query("date"); d != "" {
		return d
	}
	return s.sched.Now().Format(model.DateLayout)
}

func (s *Server) listAccounts(c *fiber.Ctx) error {
	gameID := int64(c.QueryInt("game_id", 0))
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.store.ListAccounts(gameID)
	if err != nil {
		return err
	}
	return c.JSON(accounts)
}

func (s *Server) dailyRequests(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.planner.Requests(c.UserContext(), id, s.dateParam(c))
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.requestsRendered.Add(float64(len(out.Requests)))
	}
	return c.JSON(out)
}

func (s *Server) progress(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.sched.AccountProgress(id, s.dateParam(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) today(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, err := s.planner.Today(c.UserContext(), s.dateParam(c))
	if err != nil {
		return err
	}
	return c.JSON(plan)
}

// completed reads {"completed": bool} from the body; an empty body means true.
func completed(c *fiber.Ctx) (bool, error) {
	if len(c.Body()) == 0 {
		return true, nil
	}
	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if req.Completed == nil {
		return true, nil
	}
	return *req.Completed, nil
}

func (s *Server) completeLevel(c *fiber.Ctx) error {
	accountID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	levelID, err := paramID(c, "level")
	if err != nil {
		return err
	}
	done, err := completed(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lp, err := s.planner.CompleteLevel(c.UserContext(), s.store, accountID, levelID, done)
	if err != nil {
		return err
	}
	return c.JSON(lp)
}

func (s *Server) completePurchase(c *fiber.Ctx) error {
	accountID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	eventID, err := paramID(c, "event")
	if err != nil {
		return err
	}
	done, err := completed(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pp, err := s.planner.CompletePurchase(c.UserContext(), s.store, accountID, eventID, done)
	if err != nil {
		return err
	}
	return c.JSON(pp)
}
