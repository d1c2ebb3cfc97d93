package stats_test

import (
	"errors"
	"testing"

	"github.com/fortuna/sabermetrics/internal/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecordFloat(t *testing.T) {
	Convey("Given a scraped record", t, func() {
		rec := stats.Record{"HR": "20", "AB": "1,443", "AVG": ".315", "IP": "200.1", "BAD": "--"}

		Convey("Numeric fields parse, separators included", func() {
			v, err := rec.Float("HR")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 20)

			v, err = rec.Float("AB")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1443)

			v, err = rec.Float("AVG")
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0.315, 1e-9)
		})

		Convey("A missing field is a MissingFieldError", func() {
			_, err := rec.Float("SF")
			var mf *stats.MissingFieldError
			So(errors.As(err, &mf), ShouldBeTrue)
			So(mf.Field, ShouldEqual, "SF")
			So(errors.Is(err, stats.ErrMissingField), ShouldBeTrue)
		})

		Convey("A non-numeric field is a parse error", func() {
			_, err := rec.Float("BAD")
			So(errors.Is(err, stats.ErrParse), ShouldBeTrue)
		})

		Convey("NaN and infinity spellings are parse errors", func() {
			odd := stats.Record{"X": "NaN", "Y": "Inf", "Z": "-infinity", "IP": "Inf", "IP2": "NaN.1"}
			for _, f := range []string{"X", "Y", "Z"} {
				_, err := odd.Float(f)
				So(errors.Is(err, stats.ErrParse), ShouldBeTrue)
			}
			for _, f := range []string{"IP", "IP2"} {
				_, err := odd.Innings(f)
				So(errors.Is(err, stats.ErrParse), ShouldBeTrue)
			}
		})

		Convey("Innings use thirds after the dot", func() {
			v, err := rec.Innings("IP")
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 200+1.0/3.0, 1e-9)

			v, err = stats.Record{"IP": "1443.67"}.Innings("IP")
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 1443.67, 1e-9)

			v, err = stats.Record{"IP": "62.2"}.Innings("IP")
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 62+2.0/3.0, 1e-9)
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given records from several tables", t, func() {
		main := stats.Record{"SEASON": "2016", "TEAM": "LAA", "HR": "29"}
		misc := stats.Record{"SEASON": "2016", "TEAM": "LAA", "IBB": "12"}

		Convey("Shared keys with equal values merge", func() {
			rec, err := stats.Merge(main, misc, nil)
			So(err, ShouldBeNil)
			So(rec.Keys(), ShouldResemble, []string{"HR", "IBB", "SEASON", "TEAM"})
		})

		Convey("Shared keys with different values are rejected", func() {
			_, err := stats.Merge(main, stats.Record{"HR": "30"})
			var ce *stats.ConflictError
			So(errors.As(err, &ce), ShouldBeTrue)
			So(ce.Field, ShouldEqual, "HR")
			So(ce.Existing, ShouldEqual, "29")
			So(ce.Incoming, ShouldEqual, "30")
			So(errors.Is(err, stats.ErrConflict), ShouldBeTrue)
		})

		Convey("Inputs are not mutated", func() {
			_, _ = stats.Merge(main, misc)
			So(main.Has("IBB"), ShouldBeFalse)
		})
	})
}

func TestZip(t *testing.T) {
	Convey("Zip pairs headers with values", t, func() {
		rec, err := stats.Zip([]string{"HR", "BB"}, []string{"1", "2"})
		So(err, ShouldBeNil)
		So(rec["BB"], ShouldEqual, "2")

		Convey("and refuses mismatched lengths", func() {
			_, err := stats.Zip([]string{"HR", "BB"}, []string{"1"})
			So(errors.Is(err, stats.ErrParse), ShouldBeTrue)
		})
	})
}
