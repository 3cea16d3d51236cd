package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jitsucom/airbyte-scenarios/jitsubase/appbase"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsServer struct {
	appbase.Service
	server *http.Server
}

// NewMetricsServer exposes prometheus metrics on a separate port. Disabled when port is 0
func NewMetricsServer(appconfig *Config) *MetricsServer {
	base := appbase.NewServiceBase("metrics_server")
	if appconfig.MetricsPort == 0 {
		return &MetricsServer{Service: base}
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", appconfig.MetricsPort),
		Handler:           engine,
		ReadTimeout:       time.Second * 60,
		ReadHeaderTimeout: time.Second * 60,
		IdleTimeout:       time.Second * 65,
	}
	m := &MetricsServer{Service: base, server: server}
	go func() {
		m.Infof("Starting metrics server on %s", m.server.Addr)
		m.Infof("%v", m.server.ListenAndServe())
	}()
	return m
}

func (s *MetricsServer) Stop() error {
	if s.server == nil {
		return nil
	}
	s.Infof("Stopping metrics server")
	return s.server.Shutdown(context.Background())
}
