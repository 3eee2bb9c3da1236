// Command sealink-chat is an interactive client for sealink-echo. Each
// line typed at the prompt is sealed with the pre-shared key, sent to
// the server, and the decrypted reply is printed.
//
// Usage:
//
//	sealink-chat -connect host:port -key <64 hex digits> [flags]
//	sealink-chat -discover <instance> -key <64 hex digits> [flags]
//
// Flags:
//
//	-config string    YAML config file
//	-connect string   server address (host:port)
//	-discover string  find the server by mDNS instance name instead
//	-key string       shared key, hex-encoded
//	-key-file string  file holding the hex-encoded key
//	-capture string   protocol event capture file (CBOR)
//	-log-level string slog level: debug, info, warn, error
//	-timeout duration per-message deadline (default 10s)
//
// Type "exit" or press Ctrl-D to quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/sealink-protocol/sealink-go/internal/cliconf"
	"github.com/sealink-protocol/sealink-go/pkg/discovery"
	"github.com/sealink-protocol/sealink-go/pkg/seal"
	"github.com/sealink-protocol/sealink-go/pkg/transport"
)

var (
	configPath   string
	connectAddr  string
	discoverName string
	keyHex       string
	keyFilePath  string
	captureFile  string
	logLevel     string
	msgTimeout   time.Duration
)

func init() {
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&connectAddr, "connect", "", "server address (host:port)")
	flag.StringVar(&discoverName, "discover", "", "find the server by mDNS instance name")
	flag.StringVar(&keyHex, "key", "", "shared key, hex-encoded")
	flag.StringVar(&keyFilePath, "key-file", "", "file holding the hex-encoded key")
	flag.StringVar(&captureFile, "capture", "", "protocol event capture file")
	flag.StringVar(&logLevel, "log-level", "", "slog level: debug, info, warn, error")
	flag.DurationVar(&msgTimeout, "timeout", 10*time.Second, "per-message deadline")
}

func main() {
	flag.Parse()

	cfg, err := cliconf.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if connectAddr != "" {
		cfg.Connect = connectAddr
	}
	if discoverName != "" {
		cfg.Instance = discoverName
	}
	if keyHex != "" {
		cfg.Key = keyHex
	}
	if keyFilePath != "" {
		cfg.KeyFile = keyFilePath
	}
	if captureFile != "" {
		cfg.CaptureFile = captureFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg cliconf.Config) error {
	key, err := cfg.ResolveKey()
	if err != nil {
		return err
	}
	addr, err := resolveAddr(cfg)
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

	ctx, cancel := context.WithTimeout(context.Background(), msgTimeout)
	conn, err := transport.Dial(ctx, "tcp", addr)
	cancel()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sock, err := seal.Attach(conn, key, seal.WithLogger(plog, conn.ID()))
	if err != nil {
		conn.Close()
		return err
	}
	defer sock.Close()
	fmt.Printf("connected to %s\n", addr)

	return chat(sock)
}

// resolveAddr returns the server address, browsing mDNS when an instance
// name is configured instead of an explicit address.
func resolveAddr(cfg cliconf.Config) (string, error) {
	if cfg.Connect != "" {
		return cfg.Connect, nil
	}
	if cfg.Instance == "" {
		return "", errors.New("no server: set -connect or -discover")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ep, err := discovery.Find(ctx, cfg.Instance, 3*time.Second)
	if err != nil {
		return "", fmt.Errorf("discover %q: %w", cfg.Instance, err)
	}
	fmt.Printf("found %s at %s\n", cfg.Instance, ep.Addr())
	return ep.Addr(), nil
}

func chat(sock *seal.Socket) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	reply := make([]byte, transport.DefaultMaxMessageSize)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		deadline := time.Now().Add(msgTimeout)
		if err := sock.Send([]byte(line), deadline); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		n, err := sock.Receive(reply, deadline)
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		fmt.Printf("< %s\n", reply[:n])
	}
}
