// Command sealink-echo runs an encrypted echo server. It listens for
// framed TCP connections, wraps each one in a secretbox socket with a
// pre-shared key, and echoes every message back to the sender.
//
// Usage:
//
//	sealink-echo -key <64 hex digits> [flags]
//
// Flags:
//
//	-config string    YAML config file
//	-listen string    listen address (default ":4040")
//	-key string       shared key, hex-encoded
//	-key-file string  file holding the hex-encoded key
//	-instance string  mDNS instance name to advertise (empty disables)
//	-name string      endpoint name for mDNS TXT records
//	-capture string   protocol event capture file (CBOR)
//	-log-level string slog level: debug, info, warn, error
//
// Examples:
//
//	sealink-echo -key $(openssl rand -hex 32)
//	sealink-echo -config echo.yaml -instance echo-1
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sealink-protocol/sealink-go/internal/cliconf"
	"github.com/sealink-protocol/sealink-go/pkg/discovery"
	"github.com/sealink-protocol/sealink-go/pkg/log"
	"github.com/sealink-protocol/sealink-go/pkg/seal"
	"github.com/sealink-protocol/sealink-go/pkg/transport"
)

var (
	configPath   string
	listenAddr   string
	keyHex       string
	keyFilePath  string
	instance     string
	endpointName string
	captureFile  string
	logLevel     string
)

func init() {
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&listenAddr, "listen", "", "listen address (default :4040)")
	flag.StringVar(&keyHex, "key", "", "shared key, hex-encoded")
	flag.StringVar(&keyFilePath, "key-file", "", "file holding the hex-encoded key")
	flag.StringVar(&instance, "instance", "", "mDNS instance name to advertise")
	flag.StringVar(&endpointName, "name", "", "endpoint name for mDNS TXT records")
	flag.StringVar(&captureFile, "capture", "", "protocol event capture file")
	flag.StringVar(&logLevel, "log-level", "", "slog level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	cfg, err := cliconf.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overlays non-empty command-line flags on the file config.
func applyFlags(cfg *cliconf.Config) {
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if cfg.Listen == "" {
		cfg.Listen = fmt.Sprintf(":%d", discovery.DefaultPort)
	}
	if keyHex != "" {
		cfg.Key = keyHex
	}
	if keyFilePath != "" {
		cfg.KeyFile = keyFilePath
	}
	if instance != "" {
		cfg.Instance = instance
	}
	if endpointName != "" {
		cfg.Name = endpointName
	}
	if captureFile != "" {
		cfg.CaptureFile = captureFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

func run(cfg cliconf.Config) error {
	key, err := cfg.ResolveKey()
	if err != nil {
		return err
	}

	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	plog, closeCapture, err := cfg.ProtocolLogger(slogger)
	if err != nil {
		return err
	}
	defer closeCapture()

	listener, err := transport.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer listener.Close()
	slogger.Info("listening", "addr", listener.Addr().String())

	if cfg.Instance != "" {
		port := listener.Addr().(*net.TCPAddr).Port
		adv := &discovery.Advertiser{}
		if err := adv.Advertise(cfg.Instance, port, cfg.Name); err != nil {
			return fmt.Errorf("advertise: %w", err)
		}
		defer adv.Stop()
		slogger.Info("advertising", "instance", cfg.Instance, "port", port)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutting down")
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go serve(conn, key, plog, slogger)
	}
}

// serve echoes messages on a single connection until the peer goes away.
func serve(conn *transport.Conn, key []byte, plog log.Logger, slogger *slog.Logger) {
	remote := conn.RemoteAddr().String()
	slogger.Info("connection accepted", "remote", remote, "conn", conn.ID())

	sock, err := seal.Attach(conn, key, seal.WithLogger(plog, conn.ID()))
	if err != nil {
		slogger.Error("attach failed", "remote", remote, "err", err)
		conn.Close()
		return
	}
	defer sock.Close()

	buf := make([]byte, transport.DefaultMaxMessageSize)
	for {
		n, err := sock.Receive(buf, time.Time{})
		if err != nil {
			if errors.Is(err, io.EOF) {
				slogger.Info("connection closed", "remote", remote)
			} else {
				slogger.Warn("receive failed", "remote", remote, "err", err)
			}
			return
		}
		if err := sock.Send(buf[:n], time.Time{}); err != nil {
			slogger.Warn("send failed", "remote", remote, "err", err)
			return
		}
	}
}
