// Command guacd accepts browser-facing connections and bridges them into
// the display-protocol core in internal/guacd (§6 "external collaborators":
// listener, CLI, driver selection). It plays the role
// balookrd-h3ws2h1ws-proxy's main.go/internal/run.go play for that proxy:
// parse flags, stand up an optional metrics server, then block serving
// connections.
package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"guacd/internal/config"
	"guacd/internal/drivers/demo"
	"guacd/internal/guacd"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		return err
	}

	drivers := guacd.NewDriverRegistry()
	drivers.Register(demo.Name, demo.New())

	daemon := guacd.NewDaemon(drivers)

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr)
	} else {
		log.Printf("metrics disabled (use -metrics to enable)")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		handleUpgrade(w, r, upgrader, daemon, cfg)
	})

	if cfg.ListenH3Addr != "" {
		go serveH3(cfg, mux)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("guacd listening on %s, protocol=%s", cfg.ListenAddr, cfg.Protocol)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func handleUpgrade(w http.ResponseWriter, r *http.Request, upgrader websocket.Upgrader, daemon *guacd.Daemon, cfg config.Config) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("guacd: ws upgrade failed: %v", err)
		return
	}
	conn := newWSConn(ws)
	applyTimeouts(conn, cfg)

	if err := daemon.HandleConn(conn, cfg.Protocol, cfg.ProtocolArgs); err != nil {
		log.Printf("guacd: connection ended: %v", err)
	}
}

// applyTimeouts installs the operator-configured per-connection read/write
// deadlines up front. internal/protocol.Stream sets its own read deadline
// (selectInterval) before every read, the first one included, so only the
// write deadline installed here takes effect.
func applyTimeouts(conn net.Conn, cfg config.Config) {
	if cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
	}
}

// serveH3 runs the same upgrade-capable mux over HTTP/3. WebSocket upgrade
// relies on http.Hijacker, which quic-go's response writer does not
// implement, so a browser dialing in over this listener gets a clean 501
// instead of a silently broken connection; the listener still exists so a
// future webtransport-based transport has somewhere to live without a CLI
// surface change.
func serveH3(cfg config.Config, mux *http.ServeMux) {
	server := http3.Server{
		Addr:    cfg.ListenH3Addr,
		Handler: h3Guard(mux),
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS13,
			NextProtos: []string{http3.NextProtoH3},
		},
		QUICConfig: &quic.Config{
			EnableDatagrams: false,
			MaxIdleTimeout:  60 * time.Second,
			KeepAlivePeriod: 20 * time.Second,
		},
	}
	log.Printf("guacd HTTP/3 listener on udp %s", cfg.ListenH3Addr)
	if err := server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile); err != nil {
		log.Printf("guacd: h3 listener error: %v", err)
	}
}

func h3Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Hijacker); !ok && r.Header.Get("Upgrade") != "" {
			http.Error(w, "websocket upgrade not supported over HTTP/3", http.StatusNotImplemented)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func startMetricsServer(addr string) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Printf("metrics listening on http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()
}
