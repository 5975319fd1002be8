package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/observability/metrics"
	"healthtick/backend/internal/service/scheduling"
	"healthtick/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	clients   []domain.Client
	bookings  []domain.Booking
	listErr   error
	addErr    error
	deleteErr error
	nextID    int
}

func (m *memStore) ListClients(ctx context.Context) ([]domain.Client, error) {
	return m.clients, nil
}

func (m *memStore) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.bookings, nil
}

func (m *memStore) AddBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if m.addErr != nil {
		return domain.Booking{}, m.addErr
	}
	m.nextID++
	b.ID = "bk" + string(rune('0'+m.nextID))
	m.bookings = append(m.bookings, b)
	return b, nil
}

func (m *memStore) DeleteBooking(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, b := range m.bookings {
		if b.ID == id {
			m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newTestRouter(t *testing.T, st *memStore, opts Options) *gin.Engine {
	t.Helper()
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	svc := scheduling.NewService(st, nil, scheduling.WithClock(func() time.Time { return now }))
	r, err := NewRouter(svc, nil, opts)
	require.NoError(t, err)
	return r
}

func newMemStore() *memStore {
	return &memStore{
		clients: []domain.Client{
			{ID: "c1", Name: "Asha Rao", Phone: "9000011111"},
			{ID: "c2", Name: "Ravi Kumar", Phone: "9000022222"},
		},
		bookings: []domain.Booking{
			{ID: "b1", Date: "2026-01-05", Time: "11:10", ClientName: "Asha Rao", Phone: "9000011111", CallType: domain.CallTypeOnboarding},
		},
	}
}

func do(r http.Handler, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func redirectQuery(t *testing.T, w *httptest.ResponseRecorder) (string, url.Values) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code)
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return u.Path, u.Query()
}

func TestIndexRedirectsToToday(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodGet, "/", "", "")
	path, _ := redirectQuery(t, w)
	assert.Equal(t, "/day/2026-01-05", path)
}

func TestDayPageRendersGrid(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodGet, "/day/2026-01-05?phone=9000022222&callType=followup", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "Monday, 5 January 2026")
	assert.Contains(t, body, "10:30 AM - 10:50 AM")
	assert.Contains(t, body, "07:10 PM - 07:30 PM")
	assert.Contains(t, body, "Onboarding slot Booked for: Asha Rao (9000011111)")
	assert.Equal(t, 1, strings.Count(body, "/bookings/b1/delete"))
	assert.Contains(t, body, "Ravi Kumar")
	assert.Contains(t, body, "Follow Up")
}

func TestDayPageMarksCallTypes(t *testing.T) {
	st := newMemStore()
	st.bookings = append(st.bookings, domain.Booking{
		ID: "b2", Date: "2026-01-05", Time: "15:10", Recurring: true,
		ClientName: "Ravi Kumar", Phone: "9000022222", CallType: domain.CallTypeFollowUp,
	})
	r := newTestRouter(t, st, Options{})

	w := do(r, http.MethodGet, "/day/2026-01-05", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Equal(t, 2, strings.Count(body, `class="slot booked onboarding"`))
	assert.Equal(t, 1, strings.Count(body, `class="slot booked followup"`))
}

func TestDayPageBadDateRedirects(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodGet, "/day/not-a-date", "", "")
	path, _ := redirectQuery(t, w)
	assert.Equal(t, "/day/2026-01-05", path)
}

func TestDayPageStoreFailure(t *testing.T) {
	st := newMemStore()
	st.listErr = errors.New("remote down")
	r := newTestRouter(t, st, Options{})

	w := do(r, http.MethodGet, "/day/2026-01-05", "", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), alertLoad)
}

func TestClientPickerFilters(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodGet, "/day/2026-01-05?picker=1&q=ravi", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ravi Kumar (9000022222)")
	assert.NotContains(t, body, `value="9000011111"`)
}

func TestSelectClientRequiresBoth(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodPost, "/day/2026-01-05/select", "phone=9000022222", "application/x-www-form-urlencoded")
	_, q := redirectQuery(t, w)
	assert.Equal(t, scheduling.MsgSelectBoth, q.Get("warning"))
	assert.Equal(t, "1", q.Get("picker"))

	w = do(r, http.MethodPost, "/day/2026-01-05/select", "phone=9000022222&callType=followup", "application/x-www-form-urlencoded")
	_, q = redirectQuery(t, w)
	assert.Equal(t, "9000022222", q.Get("phone"))
	assert.Equal(t, "followup", q.Get("callType"))
	assert.Empty(t, q.Get("warning"))
}

func TestBookSlotFlow(t *testing.T) {
	st := newMemStore()
	r := newTestRouter(t, st, Options{})
	form := "application/x-www-form-urlencoded"

	w := do(r, http.MethodPost, "/day/2026-01-05/book", "slot=12:30&callType=followup", form)
	_, q := redirectQuery(t, w)
	assert.Equal(t, scheduling.MsgSelectClient, q.Get("warning"))

	w = do(r, http.MethodPost, "/day/2026-01-05/book", "slot=12:30&phone=9000022222&callType=followup", form)
	_, q = redirectQuery(t, w)
	assert.Equal(t, noticeAdded, q.Get("notice"))
	assert.Empty(t, q.Get("phone"))
	require.Len(t, st.bookings, 2)
	assert.True(t, st.bookings[1].Recurring)

	w = do(r, http.MethodPost, "/day/2026-01-06/book", "slot=12:30&phone=9000022222&callType=followup", form)
	_, q = redirectQuery(t, w)
	assert.Equal(t, `"Ravi Kumar" already has a followup slot.`, q.Get("warning"))
	assert.Empty(t, q.Get("phone"))
	assert.Empty(t, q.Get("callType"))

	st.addErr = errors.New("remote down")
	w = do(r, http.MethodPost, "/day/2026-01-05/book", "slot=14:30&phone=9000022222&callType=onboarding", form)
	_, q = redirectQuery(t, w)
	assert.Equal(t, alertAdd, q.Get("alert"))
	assert.Equal(t, "9000022222", q.Get("phone"))
}

func TestDeleteBookingFlow(t *testing.T) {
	st := newMemStore()
	r := newTestRouter(t, st, Options{})
	form := "application/x-www-form-urlencoded"

	w := do(r, http.MethodPost, "/day/2026-01-05/bookings/b1/delete", "", form)
	_, q := redirectQuery(t, w)
	assert.Equal(t, noticeDeleted, q.Get("notice"))
	assert.Empty(t, st.bookings)

	w = do(r, http.MethodPost, "/day/2026-01-05/bookings/b1/delete", "", form)
	_, q = redirectQuery(t, w)
	assert.Equal(t, alertDelete, q.Get("alert"))
}

func TestAPIDay(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodGet, "/api/days/2026-01-05", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out dayJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "2026-01-05", out.Date)
	require.Len(t, out.Slots, 27)

	booked := 0
	for _, s := range out.Slots {
		if s.Booked {
			booked++
			require.NotNil(t, s.Booking)
			assert.Equal(t, "b1", s.Booking.ID)
		}
	}
	assert.Equal(t, 2, booked)

	w = do(r, http.MethodGet, "/api/days/05-01-2026", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIBook(t *testing.T) {
	st := newMemStore()
	r := newTestRouter(t, st, Options{})

	w := do(r, http.MethodPost, "/api/bookings", `{"date":"2026-01-05","slot":"10:50","phone":"9000022222","callType":"onboarding"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), scheduling.MsgOnboardingOverlap)

	w = do(r, http.MethodPost, "/api/bookings", `{"date":"2026-01-05","slot":"12:30","phone":"9000022222","callType":"onboarding"}`, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	var b domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, "12:30", b.Time)
	assert.False(t, b.Recurring)

	w = do(r, http.MethodPost, "/api/bookings", `{"slot":"12:30"}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	st.addErr = store.ErrConflict
	w = do(r, http.MethodPost, "/api/bookings", `{"date":"2026-01-07","slot":"12:30","phone":"9000011111","callType":"followup"}`, "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	st.addErr = errors.New("remote down")
	w = do(r, http.MethodPost, "/api/bookings", `{"date":"2026-01-07","slot":"12:30","phone":"9000011111","callType":"followup"}`, "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "remote down")
}

func TestAPIDelete(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodDelete, "/api/bookings/b1", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodDelete, "/api/bookings/b1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIClientsAndUpcoming(t *testing.T) {
	st := newMemStore()
	st.bookings = append(st.bookings, domain.Booking{
		ID: "b2", Date: "2026-01-05", Time: "15:10", Recurring: true,
		ClientName: "Asha Rao", Phone: "9000011111", CallType: domain.CallTypeFollowUp,
	})
	r := newTestRouter(t, st, Options{})

	w := do(r, http.MethodGet, "/api/clients?q=900002", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var clients struct {
		Clients []domain.Client `json:"clients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clients))
	require.Len(t, clients.Clients, 1)
	assert.Equal(t, "Ravi Kumar", clients.Clients[0].Name)

	w = do(r, http.MethodGet, "/api/clients/9000011111/upcoming?from=2026-01-05&to=2026-01-19", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var upcoming struct {
		Occurrences []occurrenceJSON `json:"occurrences"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upcoming))
	require.Len(t, upcoming.Occurrences, 3)
	assert.Equal(t, "b1", upcoming.Occurrences[0].BookingID)
	assert.Equal(t, 40*time.Minute, upcoming.Occurrences[0].EndTime.Sub(upcoming.Occurrences[0].StartTime))

	w = do(r, http.MethodGet, "/api/clients/9000011111/upcoming?from=2026-01-19&to=2026-01-05", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSchedulerMetrics(reg)
	m.ObserveBooking("followup", "ok")

	r := newTestRouter(t, newMemStore(), Options{Gatherer: reg})

	w := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthtick_scheduling_booking_attempts_total")
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{})

	w := do(r, http.MethodGet, "/healthz", "", "")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, newMemStore(), Options{RatePerMinute: 2})

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodGet, "/api/clients", "", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, http.MethodGet, "/api/clients", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	l := newRateLimiter(60)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("1.1.1.1"))
	now = now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, l.allow("2.2.2.2"))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.limiters, 1)
	_, ok := l.limiters["2.2.2.2"]
	assert.True(t, ok)
}
