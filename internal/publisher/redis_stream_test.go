package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStreamValues(t *testing.T) {
	Convey("Given a computed result", t, func() {
		result := map[string]interface{}{"metric": "wOBA", "value": 0.37}
		now := time.Unix(1700000000, 0)

		values, err := streamValues(result, now)

		Convey("It is encoded as JSON with an event id and timestamp", func() {
			So(err, ShouldBeNil)
			So(values["timestamp"], ShouldEqual, int64(1700000000))
			_, parseErr := uuid.Parse(values["event_id"].(string))
			So(parseErr, ShouldBeNil)

			var decoded map[string]interface{}
			So(json.Unmarshal([]byte(values["data"].(string)), &decoded), ShouldBeNil)
			So(decoded["metric"], ShouldEqual, "wOBA")
		})

		Convey("Event ids are unique", func() {
			again, _ := streamValues(result, now)
			So(again["event_id"], ShouldNotEqual, values["event_id"])
		})
	})

	Convey("Unencodable results are rejected", t, func() {
		_, err := streamValues(map[string]interface{}{"bad": make(chan int)}, time.Now())
		So(err, ShouldNotBeNil)
	})
}

func TestNewRedisPublisherBadURL(t *testing.T) {
	Convey("A malformed URL fails before dialing", t, func() {
		_, err := NewRedisPublisher("http://not-redis", "")
		So(err, ShouldNotBeNil)
	})

	Convey("An empty stream name falls back to the default", t, func() {
		So(NewRedisStreamPublisher(nil, "").Stream(), ShouldEqual, DefaultStream)
	})
}
