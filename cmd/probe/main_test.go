package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestProbeCommands(t *testing.T) {
	convey.Convey("Given a fake discmatch service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/status":
				_, _ = w.Write([]byte(`{"initialized":true,"usingRemote":false,"sourceInUse":"static","counts":{"reference":10,"target":27}}`))
			case "/match":
				if r.URL.Query().Get("name") != "Buzzz" {
					w.WriteHeader(http.StatusNotFound)
					_, _ = w.Write([]byte(`{"code":"not_found","message":"disc not found"}`))
					return
				}
				_, _ = w.Write([]byte(`{"best":{"rank":1,"disc":{"name":"M3"},"score":0.95,"percentage":95,"reasons":["Same category"]},"alternates":[],"candidates":27}`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		execute := func(args ...string) (string, error) {
			var out bytes.Buffer
			cmd := newRootCmd(&out)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(append(args, "--url", srv.URL))
			err := cmd.ExecuteContext(context.Background())
			return out.String(), err
		}

		convey.Convey("When running status", func() {
			out, err := execute("status")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"sourceInUse": "static"`)
		})

		convey.Convey("When matching a known disc", func() {
			out, err := execute("match", "--name", "Buzzz")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"percentage": 95`)
		})

		convey.Convey("When matching an unknown disc", func() {
			_, err := execute("match", "--name", "Nope")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "404")
		})

		convey.Convey("When the name flag is missing", func() {
			_, err := execute("match")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When running the full probe against a service without a catalog", func() {
			_, err := execute("run", "--workers", "2")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
