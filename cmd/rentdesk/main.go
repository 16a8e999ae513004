package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rentdesk/internal/api"
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

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "serve":
		conn, err := makeConnector(cfg, cfg.MailProvider)
		must(err)
		poller := pipeline.NewPoller(db, cfg, conn)
		svc := listener.NewService(poller, time.Duration(cfg.ListenerIntervalSec)*time.Second)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if cfg.ListenerEnabled {
			go func() { _ = svc.Run(ctx) }()
		}

		server := api.NewServer(api.NewHandler(db, svc))
		fmt.Printf("serving on %s\n", cfg.HTTPAddr)
		must(server.Run(cfg.HTTPAddr))
	case "mail:poll":
		conn, err := makeConnector(cfg, cfg.MailProvider)
		must(err)
		poller := pipeline.NewPoller(db, cfg, conn)
		result, err := poller.PollOnce(context.Background())
		must(err)
		fmt.Printf("poll done seen=%d ingested=%d skipped=%d errors=%d\n",
			result.MessagesSeen, result.Ingested, result.Skipped, result.Errors)
	case "mail:listen":
		conn, err := makeConnector(cfg, cfg.MailProvider)
		must(err)
		poller := pipeline.NewPoller(db, cfg, conn)
		svc := listener.NewService(poller, time.Duration(cfg.ListenerIntervalSec)*time.Second)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(svc.Run(ctx))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		status := fs.String("status", "", "filter by status")
		out := fs.String("out", "", "output xlsx path")
		limit := fs.Int("limit", 500, "max records")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		records, err := db.ListEmailRecords(storage.EmailFilter{Status: *status, Limit: *limit})
		must(err)
		must(pipeline.ExportRecordsToXLSX(records, *out))
		fmt.Printf("exported %d records to %s\n", len(records), *out)
	case "blacklist:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		order := fs.String("order", "", "order number")
		reason := fs.String("reason", "", "why this order is blocked")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*order) == "" {
			must(fmt.Errorf("--order is required"))
		}
		must(db.AddBlacklistEntry(*order, *reason))
		fmt.Printf("blacklisted %s\n", *order)
	case "blacklist:remove":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		order := fs.String("order", "", "order number")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*order) == "" {
			must(fmt.Errorf("--order is required"))
		}
		must(db.RemoveBlacklistEntry(*order))
		fmt.Printf("removed %s from blacklist\n", *order)
	case "blacklist:list":
		entries, err := db.ListBlacklist()
		must(err)
		for _, entry := range entries {
			fmt.Printf("%s\t%s\t%s\n", entry.OrderNumber, entry.Reason, entry.CreatedAt)
		}
	case "fleet:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		plate := fs.String("plate", "", "vehicle plate")
		name := fs.String("name", "", "descriptive name/model")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*plate) == "" || strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--plate and --name are required"))
		}
		vehicle, err := db.UpsertVehicle(*plate, *name)
		must(err)
		fmt.Printf("vehicle id=%d plate=%s name=%s\n", vehicle.ID, vehicle.Plate, vehicle.Name)
	case "fleet:list":
		vehicles, err := db.ListVehicles()
		must(err)
		for _, v := range vehicles {
			fmt.Printf("%d\t%s\t%s\n", v.ID, v.Plate, v.Name)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.Connector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "imap":
		return imapconnector.NewConnector(cfg)
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: rentdesk <command>")
	fmt.Println("commands:")
	fmt.Println("  serve")
	fmt.Println("  mail:poll")
	fmt.Println("  mail:listen")
	fmt.Println("  export:xlsx --out=./out/emails.xlsx [--status=new] [--limit=500]")
	fmt.Println("  blacklist:add --order=BR10234 [--reason=...]")
	fmt.Println("  blacklist:remove --order=BR10234")
	fmt.Println("  blacklist:list")
	fmt.Println("  fleet:add --plate=AB123CD --name=\"Škoda Octavia\"")
	fmt.Println("  fleet:list")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
