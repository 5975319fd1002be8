package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/service/scheduling"
)

const defaultUpcomingWindow = 28 * 24 * time.Hour

type slotJSON struct {
	Start   string          `json:"start"`
	Label   string          `json:"label"`
	Booked  bool            `json:"booked"`
	Anchor  bool            `json:"anchor,omitempty"`
	Booking *domain.Booking `json:"booking,omitempty"`
}

type dayJSON struct {
	Date  string     `json:"date"`
	Slots []slotJSON `json:"slots"`
}

type bookRequest struct {
	Date     string `json:"date" binding:"required"`
	Slot     string `json:"slot" binding:"required"`
	Phone    string `json:"phone"`
	CallType string `json:"callType"`
}

type occurrenceJSON struct {
	ID         string          `json:"id"`
	BookingID  string          `json:"bookingId"`
	ClientName string          `json:"clientName"`
	Phone      string          `json:"phone"`
	CallType   domain.CallType `json:"callType"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    time.Time       `json:"endTime"`
}

func (s *Server) apiDay(c *gin.Context) {
	day, err := s.svc.ParseDay(c.Param("date"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	view, err := s.svc.Day(c.Request.Context(), day)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := dayJSON{Date: domain.FormatDate(view.Date), Slots: make([]slotJSON, 0, len(view.Slots))}
	for _, v := range view.Slots {
		out.Slots = append(out.Slots, slotJSON{
			Start:   v.Slot.Clock(),
			Label:   v.Slot.Label(),
			Booked:  v.Booked(),
			Anchor:  v.Anchor,
			Booking: v.Booking,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) apiClients(c *gin.Context) {
	clients, err := s.svc.Clients(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

func (s *Server) apiBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := s.svc.Book(c.Request.Context(), scheduling.BookInput{
		Date:     req.Date,
		Slot:     req.Slot,
		Phone:    req.Phone,
		CallType: req.CallType,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) apiDelete(c *gin.Context) {
	if err := s.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) apiUpcoming(c *gin.Context) {
	from := s.svc.Today()
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		day, err := s.svc.ParseDay(raw)
		if err != nil {
			s.writeError(c, err)
			return
		}
		from = day
	}
	to := from.Add(defaultUpcomingWindow)
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		day, err := s.svc.ParseDay(raw)
		if err != nil {
			s.writeError(c, err)
			return
		}
		to = day
	}

	occs, err := s.svc.Upcoming(c.Request.Context(), c.Param("phone"), from, to)
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]occurrenceJSON, 0, len(occs))
	for _, o := range occs {
		out = append(out, occurrenceJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": out})
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)

	var vErr *scheduling.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(status, gin.H{"error": vErr.Error(), "resetSelection": vErr.ResetSelection})
		return
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String(requestIDKey, c.GetString(requestIDKey)),
			slog.Any("err", err),
		)
		c.JSON(status, gin.H{"error": "booking backend unavailable"})
		return
	}
	c.JSON(status, gin.H{"error": http.StatusText(status)})
}
