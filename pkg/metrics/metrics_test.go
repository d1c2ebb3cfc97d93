package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		m := NewManager(WithNamespace("test"))

		Convey("Fetches are counted by status", func() {
			m.RecordFetch(200, time.Millisecond)
			m.RecordFetch(200, time.Millisecond)
			m.RecordFetch(503, time.Millisecond)
			m.RecordRetry()

			So(testutil.ToFloat64(m.fetchRequests.WithLabelValues("200")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.fetchRequests.WithLabelValues("503")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.fetchRetries), ShouldEqual, 1)
		})

		Convey("Computations are counted by metric and outcome", func() {
			m.RecordComputation("fip", "ok", time.Second)
			m.RecordComputation("fip", "season_not_found", time.Second)
			So(testutil.ToFloat64(m.computations.WithLabelValues("fip", "ok")), ShouldEqual, 1)
		})

		Convey("The handler exposes the namespaced series", func() {
			m.RecordHTTPRequest("/health", 200, time.Millisecond)
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(rec.Body.String(), "test_http_requests_total"), ShouldBeTrue)
		})
	})

	Convey("A nil manager is a no-op", t, func() {
		var m *Manager
		So(func() {
			m.RecordFetch(200, 0)
			m.RecordRetry()
			m.RecordComputation("woba", "ok", 0)
			m.RecordHTTPRequest("/", 200, 0)
		}, ShouldNotPanic)
	})
}
