package web

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/service/scheduling"
)

const (
	noticeAdded   = "Booking added successfully!"
	noticeDeleted = "Booking deleted successfully!"
	alertAdd      = "An error occurred while adding booking."
	alertDelete   = "An error occurred while deleting booking."
	alertLoad     = "An error occurred while loading bookings."

	headingLayout = "Monday, 2 January 2006"
)

var templateFuncs = template.FuncMap{
	"callTypeLabel": func(ct domain.CallType) string { return ct.Label() },
}

type callTypeOption struct {
	Value    domain.CallType
	Label    string
	Selected bool
}

type slotRow struct {
	Clock        string
	Label        string
	Booked       bool
	Anchor       bool
	BookingID    string
	BookingLabel string
	CallType     domain.CallType
}

type dayPage struct {
	Date     string
	Heading  string
	PrevURL  string
	NextURL  string
	TodayURL string
	PickURL  string

	Phone    string
	CallType domain.CallType
	Client   *domain.Client

	Warning string
	Notice  string
	Alert   string

	Picker    bool
	Query     string
	Clients   []domain.Client
	CallTypes []callTypeOption

	Slots []slotRow
}

// selection is the client and call type picked in the popup. It travels in
// the query string between requests.
type selection struct {
	Phone    string
	CallType string
}

func selectionFrom(c *gin.Context) selection {
	return selection{
		Phone:    strings.TrimSpace(c.Query("phone")),
		CallType: strings.TrimSpace(c.Query("callType")),
	}
}

func selectionFromForm(c *gin.Context) selection {
	return selection{
		Phone:    strings.TrimSpace(c.PostForm("phone")),
		CallType: strings.TrimSpace(c.PostForm("callType")),
	}
}

func dayURL(date string, sel selection, extra url.Values) string {
	q := url.Values{}
	if sel.Phone != "" {
		q.Set("phone", sel.Phone)
	}
	if sel.CallType != "" {
		q.Set("callType", sel.CallType)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u := "/day/" + url.PathEscape(date)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (s *Server) index(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/day/"+domain.FormatDate(s.svc.Today()))
}

// pickDay handles the date picker form.
func (s *Server) pickDay(c *gin.Context) {
	day, err := s.svc.ParseDay(c.Query("date"))
	if err != nil {
		day = s.svc.Today()
	}
	c.Redirect(http.StatusSeeOther, dayURL(domain.FormatDate(day), selectionFrom(c), nil))
}

func (s *Server) dayPage(c *gin.Context) {
	ctx := c.Request.Context()
	day, err := s.svc.ParseDay(c.Param("date"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/day/"+domain.FormatDate(s.svc.Today()))
		return
	}
	date := domain.FormatDate(day)
	sel := selectionFrom(c)

	page := dayPage{
		Date:     date,
		Heading:  day.Format(headingLayout),
		PrevURL:  dayURL(domain.FormatDate(day.AddDate(0, 0, -1)), sel, nil),
		NextURL:  dayURL(domain.FormatDate(day.AddDate(0, 0, 1)), sel, nil),
		TodayURL: dayURL(domain.FormatDate(s.svc.Today()), sel, nil),
		PickURL:  dayURL(date, sel, url.Values{"picker": {"1"}}),
		Phone:    sel.Phone,
		Warning:  c.Query("warning"),
		Notice:   c.Query("notice"),
		Alert:    c.Query("alert"),
		Picker:   c.Query("picker") == "1",
		Query:    strings.TrimSpace(c.Query("q")),
	}
	if ct, ok := domain.ParseCallType(sel.CallType); ok {
		page.CallType = ct
	}
	for _, ct := range []domain.CallType{domain.CallTypeOnboarding, domain.CallTypeFollowUp} {
		page.CallTypes = append(page.CallTypes, callTypeOption{Value: ct, Label: ct.Label(), Selected: ct == page.CallType})
	}

	status := http.StatusOK

	if client, ok, err := s.svc.Client(ctx, sel.Phone); err != nil {
		s.log.Error("client lookup failed", slog.Any("err", err))
	} else if ok {
		page.Client = &client
	}

	if page.Picker {
		clients, err := s.svc.Clients(ctx, page.Query)
		if err != nil {
			s.log.Error("list clients failed", slog.Any("err", err))
			page.Alert = alertLoad
			status = statusFor(err)
		}
		page.Clients = clients
	}

	view, err := s.svc.Day(ctx, day)
	if err != nil {
		s.log.Error("load day failed", slog.String("date", date), slog.Any("err", err))
		page.Alert = alertLoad
		status = statusFor(err)
	}
	for _, v := range view.Slots {
		row := slotRow{
			Clock:  v.Slot.Clock(),
			Label:  v.Slot.Label(),
			Booked: v.Booked(),
			Anchor: v.Anchor,
		}
		if v.Booking != nil {
			row.BookingID = v.Booking.ID
			row.BookingLabel = v.BookingLabel()
			row.CallType = v.Booking.CallType
		}
		page.Slots = append(page.Slots, row)
	}

	c.HTML(status, "day.html", page)
}

func (s *Server) selectClient(c *gin.Context) {
	date := c.Param("date")
	sel := selectionFromForm(c)
	_, validCallType := domain.ParseCallType(sel.CallType)
	if sel.Phone == "" || !validCallType {
		c.Redirect(http.StatusSeeOther, dayURL(date, sel, url.Values{
			"picker":  {"1"},
			"warning": {scheduling.MsgSelectBoth},
		}))
		return
	}
	c.Redirect(http.StatusSeeOther, dayURL(date, sel, nil))
}

func (s *Server) bookSlot(c *gin.Context) {
	date := c.Param("date")
	sel := selectionFromForm(c)

	_, err := s.svc.Book(c.Request.Context(), scheduling.BookInput{
		Date:     date,
		Slot:     c.PostForm("slot"),
		Phone:    sel.Phone,
		CallType: sel.CallType,
	})
	if err != nil {
		var vErr *scheduling.ValidationError
		if errors.As(err, &vErr) {
			if vErr.ResetSelection {
				sel = selection{}
			}
			c.Redirect(http.StatusSeeOther, dayURL(date, sel, url.Values{"warning": {vErr.Error()}}))
			return
		}
		c.Redirect(http.StatusSeeOther, dayURL(date, sel, url.Values{"alert": {alertAdd}}))
		return
	}

	c.Redirect(http.StatusSeeOther, dayURL(date, selection{}, url.Values{"notice": {noticeAdded}}))
}

func (s *Server) deleteBooking(c *gin.Context) {
	date := c.Param("date")
	sel := selectionFromForm(c)

	if err := s.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Redirect(http.StatusSeeOther, dayURL(date, sel, url.Values{"alert": {alertDelete}}))
		return
	}
	c.Redirect(http.StatusSeeOther, dayURL(date, sel, url.Values{"notice": {noticeDeleted}}))
}
