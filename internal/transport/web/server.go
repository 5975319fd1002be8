package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/service/scheduling"
	"healthtick/backend/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Scheduler is the slice of the scheduling service the web layer drives.
type Scheduler interface {
	Today() time.Time
	ParseDay(raw string) (time.Time, error)
	Day(ctx context.Context, day time.Time) (scheduling.DayView, error)
	Clients(ctx context.Context, term string) ([]domain.Client, error)
	Client(ctx context.Context, phone string) (domain.Client, bool, error)
	Book(ctx context.Context, in scheduling.BookInput) (domain.Booking, error)
	Delete(ctx context.Context, id string) error
	Upcoming(ctx context.Context, phone string, from, to time.Time) ([]domain.Occurrence, error)
}

type Options struct {
	RequestTimeout time.Duration
	RatePerMinute  int
	Gatherer       prometheus.Gatherer
}

type Server struct {
	svc Scheduler
	log *slog.Logger
}

// NewRouter wires the day page, the JSON API, health and metrics endpoints.
func NewRouter(svc Scheduler, log *slog.Logger, opts Options) (*gin.Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "transport.web"))

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{svc: svc, log: log}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(recovery(log), requestID(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app := r.Group("/")
	if opts.RatePerMinute > 0 {
		app.Use(newRateLimiter(opts.RatePerMinute).middleware(log))
	}
	app.Use(requestTimeout(opts.RequestTimeout))
	{
		app.GET("", s.index)
		app.GET("day", s.pickDay)
		app.GET("day/:date", s.dayPage)
		app.POST("day/:date/select", s.selectClient)
		app.POST("day/:date/book", s.bookSlot)
		app.POST("day/:date/bookings/:id/delete", s.deleteBooking)
	}

	api := app.Group("api")
	{
		api.GET("/days/:date", s.apiDay)
		api.GET("/clients", s.apiClients)
		api.GET("/clients/:phone/upcoming", s.apiUpcoming)
		api.POST("/bookings", s.apiBook)
		api.DELETE("/bookings/:id", s.apiDelete)
	}

	return r, nil
}

// statusFor maps service and store errors onto HTTP statuses. Anything not
// recognised is a failure of the booking backend.
func statusFor(err error) int {
	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
