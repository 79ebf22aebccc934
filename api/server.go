// Package api exposes the controller's state over a read-only HTTP
// inspection API. It never mutates core state; every response is built from
// a snapshot or a defensive copy.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	ctl "controller/controller"
)

type linkJSON struct {
	U      string `json:"u"`
	V      string `json:"v"`
	Weight int    `json:"weight"`
}

// NewRouter builds the gin router serving the inspection endpoints.
func NewRouter(c *ctl.Controller) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/nodes", func(g *gin.Context) {
		g.JSON(http.StatusOK, gin.H{"nodes": c.Nodes()})
	})

	router.GET("/links", func(g *gin.Context) {
		snap := c.Snapshot()
		links := []linkJSON{}
		for _, u := range snap.Nodes() {
			for v, weight := range snap.Neighbors(u) {
				if u < v { // emit each undirected link once
					links = append(links, linkJSON{U: u, V: v, Weight: weight})
				}
			}
		}
		g.JSON(http.StatusOK, gin.H{"links": links})
	})

	router.GET("/flows", func(g *gin.Context) {
		g.JSON(http.StatusOK, gin.H{
			"active":   c.ActiveFlows(),
			"critical": c.CriticalFlows(),
		})
	})

	router.GET("/tables", func(g *gin.Context) {
		g.JSON(http.StatusOK, c.FlowTable())
	})

	router.GET("/tables/:switch", func(g *gin.Context) {
		sw := g.Param("switch")
		entries, exists := c.SwitchTable(sw)
		if !exists {
			g.JSON(http.StatusNotFound, gin.H{"error": "unknown switch", "switch": sw})
			return
		}
		g.JSON(http.StatusOK, gin.H{"switch": sw, "entries": entries})
	})

	router.GET("/path", func(g *gin.Context) {
		src := g.Query("src")
		dst := g.Query("dst")
		if src == "" || dst == "" {
			g.JSON(http.StatusBadRequest, gin.H{"error": "src and dst query parameters are required"})
			return
		}
		path := c.ComputePath(src, dst)
		if path == nil {
			// Unreachable is a valid answer, not an HTTP failure.
			g.JSON(http.StatusOK, gin.H{"src": src, "dst": dst, "reachable": false})
			return
		}
		g.JSON(http.StatusOK, gin.H{"src": src, "dst": dst, "reachable": true, "path": path})
	})

	return router
}

// RunServer serves the inspection API until ctx is canceled.
func RunServer(ctx context.Context, c *ctl.Controller, listenAddr string) {
	server := &http.Server{
		Addr:         listenAddr,
		Handler:      NewRouter(c),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("Starting inspection API on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Context canceled. Shutting down inspection API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Inspection API forced to shutdown: %v", err)
		} else {
			log.Info("Inspection API stopped gracefully.")
		}
	case err := <-serverErrors:
		log.Errorf("Inspection API error: %v", err)
	}
}
