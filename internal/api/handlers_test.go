package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"example.com/ridedash/internal/auth"
	"example.com/ridedash/internal/domain"
	"example.com/ridedash/internal/events"
	"example.com/ridedash/internal/peloton"
	"example.com/ridedash/internal/record"
	"example.com/ridedash/internal/store/memory"
)

var (
	testAuth = auth.Config{Secret: "test-secret", Issuer: "ridedash-test", TTL: time.Hour}
	fixedNow = time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	mem       *memory.Store
	login     *stubLogin
	publisher *stubPublisher
	router    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	svc := domain.NewService(mem, domain.Config{
		Tables:        domain.Tables{Rides: "rides", Courses: "courses", MusicSets: "music"},
		DefaultUserID: "default-user",
		Location:      time.UTC,
	})
	f := &fixture{mem: mem, login: &stubLogin{}, publisher: &stubPublisher{}}
	h := NewHandler(svc, f.login, f.publisher, Options{
		Auth:         testAuth,
		DashboardURL: "http://dashboard.test",
		Now:          func() time.Time { return fixedNow },
	})
	f.router = h.Routes(RouterConfig{AllowedOrigins: []string{"*"}})
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func ride(user, rideID, heartRate, miles string) record.Record {
	output := map[string]record.Value{"value": record.Number("150")}
	if heartRate != "" {
		output["heart_rate"] = record.Number(heartRate)
	}
	if miles != "" {
		output["miles_ridden"] = record.Number(miles)
	}
	return record.Record{
		"user_id":            record.String(user),
		"ride_Id":            record.String(rideID),
		"Avg Output":         record.Map(output),
		"total_achievements": record.Number("3"),
	}
}

func TestLabelsAndHeartRateShareOrder(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("rides",
		ride("U1", "86400", "120", "1"),
		ride("U1", "0", "80", "2"),
		ride("U2", "10", "999", "9"),
	)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_labels/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var labels []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &labels))
	require.Equal(t, []string{"1970-01-01", "1970-01-02"}, labels)

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/get_heart_rate/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var rates []int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rates))
	require.Equal(t, []int{80, 120}, rates)
}

func TestRoutesFallBackToDefaultUser(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("rides", ride("default-user", "5", "70", "4.5"), ride("U1", "6", "90", "1"))

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_user_rollup", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var rollup domain.Rollup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rollup))
	require.Equal(t, domain.Rollup{TotalMiles: 4.5, TotalRides: 1, TotalAchievements: 3}, rollup)
}

func TestChartsSerializeMissingMetricsAsNull(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("rides", ride("U1", "5", "", "2"))

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_charts/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var ds [][]*float64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ds))
	require.Len(t, ds, 5)
	require.InDelta(t, 150, *ds[domain.ChartOutput][0], 1e-9)
	require.Nil(t, ds[domain.ChartCadence][0])
	require.InDelta(t, 2, *ds[domain.ChartMiles][0], 1e-9)
}

func TestRollupWithoutRidesIsNotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_user_rollup/nobody", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", rr.Code, rr.Body.String())
	}
	require.Equal(t, "no_data", errorType(t, rr))
}

func TestCourseDataListing(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("courses", record.Record{
		"user_id":    record.String("U1"),
		"created_at": record.String("1700000000"),
		"name":       record.String("30 min Climb"),
		"difficulty": record.String("7.9"),
		"length":     record.String("30 min"),
	})

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/course_data/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var listing map[string]map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	require.Contains(t, listing, "1700000000")
	course := listing["1700000000"]
	require.Equal(t, "30 min Climb", course["name"])
	require.Equal(t, "2023-11-14", course["date"])
	require.NotContains(t, course, "instructor")
}

func TestMusicByTime(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("music", record.Record{
		"created_at": record.String("1700000000"),
		"set_list":   record.List(record.String("Song A"), record.String("Song B")),
	})

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/music_by_time/1700000000", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var songs []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &songs))
	require.Equal(t, []string{"Song A", "Song B"}, songs)

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/music_by_time/42", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", errorType(t, rr))
}

func TestStoreFailureIsServiceUnavailable(t *testing.T) {
	f := newFixture(t)
	f.mem.FailWith(errors.New("connection reset"))

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_labels", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "store_unavailable", errorType(t, rr))
}

func TestMalformedTimestampIsServerError(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("rides", ride("U1", "yesterday", "", ""))

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_heart_rate/U1", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "malformed_timestamp", errorType(t, rr))
}

func TestPelotonLoginIssuesSession(t *testing.T) {
	f := newFixture(t)
	f.login.session = peloton.Session{UserID: "user-1", SessionID: "sess-1"}

	body := strings.NewReader(`{"email":"rider@example.com","passwd":"hunter2"}`)
	rr := f.do(t, httptest.NewRequest(http.MethodPost, "/peloton_login", body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, peloton.Credentials{Email: "rider@example.com", Password: "hunter2"}, f.login.got)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "user-1", resp.UserID)
	require.Equal(t, "sess-1", resp.Cookies.PelotonSessionID)

	claims, err := auth.Parse(resp.Token, testAuth)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "sess-1", claims.PelotonSession)

	cookies := map[string]string{}
	for _, c := range rr.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	require.Equal(t, resp.Token, cookies[auth.CookieName])
	require.Equal(t, "user-1", cookies[UserIDCookie])
}

func TestPelotonLoginErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		kind   string
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest, kind: "invalid_request"},
		{name: "missing password", body: `{"email":"a@b.c"}`, status: http.StatusBadRequest, kind: "invalid_request"},
		{name: "rejected", body: `{"email":"a@b.c","passwd":"x"}`, err: peloton.ErrInvalidCredentials, status: http.StatusUnauthorized, kind: "unauthorized"},
		{name: "upstream down", body: `{"email":"a@b.c","passwd":"x"}`, err: peloton.ErrUnavailable, status: http.StatusBadGateway, kind: "upstream_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.login.err = tc.err

			rr := f.do(t, httptest.NewRequest(http.MethodPost, "/peloton_login", strings.NewReader(tc.body)))
			require.Equal(t, tc.status, rr.Code)
			require.Equal(t, tc.kind, errorType(t, rr))
		})
	}
}

func TestPullUserDataRequiresSession(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, httptest.NewRequest(http.MethodPost, "/pull_user_data", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthorized", errorType(t, rr))
	require.Empty(t, f.publisher.published)
}

func TestPullUserDataPublishesAndRedirects(t *testing.T) {
	f := newFixture(t)
	token, _, err := auth.Issue(testAuth, "user-1", "sess-1", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/pull_user_data", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rr := f.do(t, req)

	require.Equal(t, http.StatusFound, rr.Code)
	require.Equal(t, "http://dashboard.test", rr.Header().Get("Location"))
	require.Len(t, f.publisher.published, 1)
	got := f.publisher.published[0]
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "sess-1", got.PelotonSessionID)
	require.Equal(t, fixedNow, got.RequestedAt)
	require.NotEmpty(t, got.RequestID)
}

func TestPullUserDataPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	token, _, err := auth.Issue(testAuth, "user-1", "sess-1", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/pull_user_data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := f.do(t, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "sync_unavailable", errorType(t, rr))
}

func TestPingAndLogout(t *testing.T) {
	f := newFixture(t)
	token, _, err := auth.Issue(testAuth, "user-1", "", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := f.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `"pong!"`, strings.TrimSpace(rr.Body.String()))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/logout", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, auth.CookieName, cookies[0].Name)
	require.Less(t, cookies[0].MaxAge, 0)
}

func TestHealthzAndRequestID(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestNonFiniteMetricsStayValidJSON(t *testing.T) {
	f := newFixture(t)
	f.mem.Put("rides", record.Record{
		"user_id": record.String("U1"),
		"ride_Id": record.String("5"),
		"Avg Output": record.Map(map[string]record.Value{
			"value":        record.String("NaN"),
			"heart_rate":   record.String("1e300"),
			"miles_ridden": record.Number("Inf"),
		}),
	})

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/get_charts/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ds [][]*float64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ds))
	require.Nil(t, ds[domain.ChartOutput][0])
	require.Nil(t, ds[domain.ChartMiles][0])

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/get_heart_rate/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var rates []int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rates))
	require.Equal(t, []int{0}, rates)

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/get_user_rollup/U1", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var rollup domain.Rollup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rollup))
	require.Zero(t, rollup.TotalMiles)
}

func TestWriteJSONReportsEncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, []float64{math.NaN()})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "server_error", errorType(t, rr))
}

func TestLoginFormRedirectsToDashboard(t *testing.T) {
	f := newFixture(t)
	f.login.session = peloton.Session{UserID: "user-1", SessionID: "sess-1"}

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `name=username`)

	form := url.Values{"username": {"rider@example.com"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = f.do(t, req)

	require.Equal(t, http.StatusFound, rr.Code, rr.Body.String())
	require.Equal(t, "http://dashboard.test", rr.Header().Get("Location"))
	require.Equal(t, peloton.Credentials{Email: "rider@example.com", Password: "hunter2"}, f.login.got)

	cookies := map[string]string{}
	for _, c := range rr.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	require.Equal(t, "user-1", cookies[UserIDCookie])
	claims, err := auth.Parse(cookies[auth.CookieName], testAuth)
	require.NoError(t, err)
	require.Equal(t, "sess-1", claims.PelotonSession)
}

func TestLoginFormRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.login.err = peloton.ErrInvalidCredentials

	form := url.Values{"username": {"rider@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := f.do(t, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthorized", errorType(t, rr))
	require.Empty(t, rr.Result().Cookies())
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rr.Body.String())
	}
	return body["type"]
}

type stubLogin struct {
	session peloton.Session
	err     error
	got     peloton.Credentials
}

func (s *stubLogin) Login(_ context.Context, creds peloton.Credentials) (peloton.Session, error) {
	s.got = creds
	if s.err != nil {
		return peloton.Session{}, s.err
	}
	return s.session, nil
}

type stubPublisher struct {
	published []events.RideSyncRequested
	err       error
}

func (p *stubPublisher) PublishSyncRequest(_ context.Context, req events.RideSyncRequested) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, req)
	return nil
}

func (p *stubPublisher) Close() error { return nil }
