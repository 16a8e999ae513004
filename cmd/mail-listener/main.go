package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rentdesk/internal/config"
	"rentdesk/internal/connectors"
	gmailconnector "rentdesk/internal/connectors/gmail"
	imapconnector "rentdesk/internal/connectors/imap"
	"rentdesk/internal/listener"
	"rentdesk/internal/pipeline"
	"rentdesk/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	conn, err := makeConnector(cfg)
	must(err)

	poller := pipeline.NewPoller(db, cfg, conn)
	svc := listener.NewService(poller, time.Duration(cfg.ListenerIntervalSec)*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func makeConnector(cfg config.Config) (connectors.Connector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MailProvider)) {
	case "imap":
		return imapconnector.NewConnector(cfg)
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.MailProvider)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
