package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fortuna/sabermetrics/internal/ingest/espn"
	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

type stubPlayers struct{}

func (stubPlayers) PlayerSeason(_ context.Context, name, season string, _ espn.Layout) (stats.Record, error) {
	switch {
	case name == "Transport Down":
		return nil, fmt.Errorf("%w: status 503", stats.ErrTransport)
	case name != "Pitcher Guy":
		return nil, fmt.Errorf("%w: %q", stats.ErrPlayerNotFound, name)
	case season != "2016":
		return nil, fmt.Errorf("%w: %s", stats.ErrSeasonNotFound, season)
	}
	return stats.Record{"HR": "10", "BB": "30", "HBP": "5", "SO": "150", "IP": "200", "FB": "180"}, nil
}

func (stubPlayers) LeagueAverages(context.Context, string, []espn.LeaguePage) (stats.Record, error) {
	return stats.Record{"ERA": "4.19", "HR": "187", "BB": "503", "HBP": "56", "SO": "1299", "IP": "1447", "FB": "1700"}, nil
}

type stubWeights struct{}

func (stubWeights) Weightings(_ context.Context, season string) (stats.Record, error) {
	if season != "2016" {
		return nil, fmt.Errorf("%w: %s", stats.ErrSeasonNotFound, season)
	}
	return stats.Record{"wBB": "0.69", "cFIP": "3.10"}, nil
}

func newTestRouter() (http.Handler, *metrics.Manager) {
	m := metrics.NewManager()
	svc := service.NewMetricsService(stubPlayers{}, stubWeights{}, service.Options{Metrics: m})
	return NewRouter(svc, logger.Nop(), m), m
}

func get(h http.Handler, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRouter(t *testing.T) {
	Convey("Given the REST router", t, func() {
		router, _ := newTestRouter()

		Convey("health reports healthy with a request id", func() {
			rec, body := get(router, "/health")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "healthy")
			So(rec.Header().Get(requestIDHeader), ShouldNotBeEmpty)
		})

		Convey("a caller request id is echoed back", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(requestIDHeader, "abc-123")
			router.ServeHTTP(rec, req)
			So(rec.Header().Get(requestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("a metric computes to a formatted result", func() {
			rec, body := get(router, "/api/v1/metrics/fip?player=Pitcher+Guy&season=2016")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["metric"], ShouldEqual, "FIP")
			So(body["formatted"], ShouldEqual, "2.82")
		})

		Convey("errors map onto statuses", func() {
			cases := []struct {
				target string
				status int
				msg    string
			}{
				{"/api/v1/metrics/fip?player=Nobody&season=2016", http.StatusNotFound, "No stats found for the given player"},
				{"/api/v1/metrics/fip?player=Pitcher+Guy&season=2001", http.StatusNotFound, "No stats found for the given year"},
				{"/api/v1/metrics/fip?player=Pitcher+Guy&season=16", http.StatusBadRequest, ""},
				{"/api/v1/metrics/ops?player=Pitcher+Guy&season=2016", http.StatusBadRequest, ""},
				{"/api/v1/metrics/siera?player=Pitcher+Guy&season=2016", http.StatusNotImplemented, ""},
				{"/api/v1/metrics/fip?player=Transport+Down&season=2016", http.StatusBadGateway, ""},
				{"/api/v1/metrics/woba?player=Pitcher+Guy&season=2016", http.StatusUnprocessableEntity, ""},
			}
			for _, c := range cases {
				rec, body := get(router, c.target)
				So(rec.Code, ShouldEqual, c.status)
				So(body["status"], ShouldEqual, float64(c.status))
				if c.msg != "" {
					So(body["error"], ShouldEqual, c.msg)
				}
			}
		})

		Convey("raw lookups return records", func() {
			rec, body := get(router, "/api/v1/players/Pitcher%20Guy/stats?season=2016&role=pitching")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["stats"].(map[string]interface{})["SO"], ShouldEqual, "150")

			rec, body = get(router, "/api/v1/league/2016/averages")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["averages"].(map[string]interface{})["ERA"], ShouldEqual, "4.19")

			rec, body = get(router, "/api/v1/weightings/2016")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(body["weightings"].(map[string]interface{})["cFIP"], ShouldEqual, "3.10")

			rec, _ = get(router, "/api/v1/weightings/1850")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("CORS preflight is answered", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/weightings/2016", nil)
			req.Header.Set("Origin", "http://example.com")
			req.Header.Set("Access-Control-Request-Method", "GET")
			router.ServeHTTP(rec, req)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("the metrics endpoint exposes request counters", func() {
			get(router, "/health")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "http_requests_total")
			So(strings.Contains(rec.Body.String(), `route="/health"`), ShouldBeTrue)
		})
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	Convey("A panicking handler yields a 500 JSON error", t, func() {
		h := RecoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		So(rec.Body.String(), ShouldContainSubstring, "Internal server error")
	})
}
