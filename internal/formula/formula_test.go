package formula_test

import (
	"errors"
	"math"
	"testing"

	"github.com/fortuna/sabermetrics/internal/formula"
	"github.com/fortuna/sabermetrics/internal/stats"
	. "github.com/smartystreets/goconvey/convey"
)

var weights = stats.Record{
	"wBB": "0.69", "wHBP": "0.72", "w1B": "0.89",
	"w2B": "1.27", "w3B": "1.62", "wHR": "2.10",
}

func TestWOBA(t *testing.T) {
	Convey("Given a batting line and linear weights", t, func() {
		line := stats.Record{
			"BB": "50", "IBB": "5", "HBP": "5", "H": "150",
			"2B": "30", "3B": "5", "HR": "20", "AB": "500", "SF": "5",
		}

		Convey("wOBA follows the linear-weights formula", func() {
			want := (0.69*45 + 0.72*5 + 0.89*95 + 1.27*30 + 1.62*5 + 2.10*20) / (500 + 45 + 5 + 5)
			got, err := formula.WOBA(line, weights)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, want, 1e-6)
			So(formula.Format(got), ShouldEqual, "0.37")
		})

		Convey("Repeated evaluation is stable", func() {
			a, _ := formula.WOBA(line, weights)
			b, _ := formula.WOBA(line, weights)
			So(a, ShouldEqual, b)
		})

		Convey("A missing stat names the field and metric", func() {
			delete(line, "SF")
			_, err := formula.WOBA(line, weights)
			var mf *stats.MissingFieldError
			So(errors.As(err, &mf), ShouldBeTrue)
			So(mf.Field, ShouldEqual, "SF")
			So(mf.Metric, ShouldEqual, formula.MetricWOBA)
		})

		Convey("An empty denominator is a division by zero", func() {
			empty := stats.Record{
				"BB": "0", "IBB": "0", "HBP": "0", "H": "0",
				"2B": "0", "3B": "0", "HR": "0", "AB": "0", "SF": "0",
			}
			_, err := formula.WOBA(empty, weights)
			So(errors.Is(err, stats.ErrDivisionByZero), ShouldBeTrue)
		})
	})
}

func TestFIP(t *testing.T) {
	Convey("Given a pitching line", t, func() {
		line := stats.Record{"HR": "10", "BB": "30", "HBP": "5", "SO": "150", "IP": "200"}

		Convey("Pure FIP uses 13/3/2 coefficients", func() {
			got, err := formula.PureFIP(line)
			So(err, ShouldBeNil)
			So(got, ShouldAlmostEqual, -0.325, 1e-9)
		})

		Convey("Adding cFIP lands on the ERA scale", func() {
			got, err := formula.FIP(line, 3.10)
			So(err, ShouldBeNil)
			So(formula.Format(got), ShouldEqual, "2.78")
		})

		Convey("A NaN cell is a parse error, never a NaN result", func() {
			line["HR"] = "NaN"
			_, err := formula.PureFIP(line)
			So(errors.Is(err, stats.ErrParse), ShouldBeTrue)
		})

		Convey("Zero innings is a division by zero", func() {
			line["IP"] = "0.0"
			_, err := formula.PureFIP(line)
			So(errors.Is(err, stats.ErrDivisionByZero), ShouldBeTrue)
		})

		Convey("cFIP comes from league ERA minus league pure FIP", func() {
			league := stats.Record{"ERA": "4.19", "HR": "187", "BB": "503", "HBP": "56", "SO": "1299", "IP": "1447.0"}
			got, err := formula.FIPConstant(league)
			So(err, ShouldBeNil)
			want := 4.19 - (13*187.0+3*(503.0+56.0)-2*1299.0)/1447.0
			So(got, ShouldAlmostEqual, want, 1e-9)
		})
	})
}

func TestXFIP(t *testing.T) {
	Convey("Given a pitching line with fly balls", t, func() {
		line := stats.Record{"FB": "200", "BB": "30", "HBP": "5", "SO": "150", "IP": "200"}
		league := stats.Record{"HR": "187", "FB": "1700"}

		Convey("Home runs are normalized to the league HR/FB rate", func() {
			got, err := formula.PureXFIP(line, league)
			So(err, ShouldBeNil)
			hr := 200 * (187.0 / 1700.0)
			So(got, ShouldAlmostEqual, (13*hr+3*35-2*150)/200, 1e-9)

			full, err := formula.XFIP(line, league, 3.10)
			So(err, ShouldBeNil)
			So(full, ShouldAlmostEqual, got+3.10, 1e-9)
		})

		Convey("A league with no fly balls is a division by zero", func() {
			league["FB"] = "0"
			_, err := formula.PureXFIP(line, league)
			So(errors.Is(err, stats.ErrDivisionByZero), ShouldBeTrue)
		})

		Convey("A missing league field reports xFIP", func() {
			delete(league, "FB")
			_, err := formula.PureXFIP(line, league)
			var mf *stats.MissingFieldError
			So(errors.As(err, &mf), ShouldBeTrue)
			So(mf.Metric, ShouldEqual, formula.MetricXFIP)
		})
	})
}

func TestSIERAAndFormat(t *testing.T) {
	Convey("SIERA is a documented gap", t, func() {
		_, err := formula.SIERA(nil, nil)
		So(errors.Is(err, stats.ErrNotImplemented), ShouldBeTrue)
	})

	Convey("Format rounds half away from zero", t, func() {
		So(formula.Format(2.775), ShouldEqual, "2.78")
		So(formula.Format(0.3737), ShouldEqual, "0.37")
		So(formula.Format(-0.001), ShouldEqual, "0.00")
		So(formula.Format(3), ShouldEqual, "3.00")
		So(formula.Format(1.005), ShouldEqual, "1.01")
		So(formula.Format(-1.005), ShouldEqual, "-1.01")
		So(formula.Format(1.0049), ShouldEqual, "1.00")
		So(formula.Format(math.Copysign(0, -1)), ShouldEqual, "0.00")
	})
}
