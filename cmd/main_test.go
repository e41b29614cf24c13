package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	service "github.com/okian/perfil/internal/app"
	"github.com/okian/perfil/internal/config"
	"github.com/okian/perfil/pkg/logger"
	"github.com/okian/perfil/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("PERFIL_ADDR", ":8080")
			_ = os.Setenv("PERFIL_QUEUE_SIZE", "1000")
			_ = os.Setenv("PERFIL_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("PERFIL_ADDR")
				_ = os.Unsetenv("PERFIL_QUEUE_SIZE")
				_ = os.Unsetenv("PERFIL_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building the service from defaults", func() {
			svc, err := newService(context.Background(), config.New(), logger.Get())

			convey.Convey("Then the offline adapters are wired", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc, convey.ShouldNotBeNil)
				convey.So(svc.GetStats()["store"], convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When the config names an unknown provider", func() {
			cfg := config.New()
			cfg.MailProvider = "pigeon"
			_, err := newService(context.Background(), cfg, logger.Get())

			convey.Convey("Then building the service fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.WorkerCount = 1
		svc, err := newService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc))
		defer srv.Close()

		convey.Convey("When a student is created", func() {
			body, _ := json.Marshal(map[string]interface{}{
				"id": "s1", "org_id": "o1", "class_id": "c1", "name": "Ana", "age": 15,
			})
			resp, err := http.Post(srv.URL+"/students", "application/json", bytes.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()

			convey.Convey("Then it is served back with its profile", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				resp, err := http.Get(srv.URL + "/students/s1/profile")
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = resp.Body.Close() }()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the docs are requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then the OpenAPI document is served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the service metrics are refreshed", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When the service metrics updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, service.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are updated directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When a metrics manager uses its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
