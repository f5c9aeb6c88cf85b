// Command client is a small interactive console for the FinanceERP session
// subsystem: it drives the session monitor through login, status and
// logout, and shows invalidation signals arriving from the API layer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	clientapi "github.com/arelunainstituto/financeerp/internal/client/api"
	"github.com/arelunainstituto/financeerp/internal/client/config"
	"github.com/arelunainstituto/financeerp/internal/client/events"
	"github.com/arelunainstituto/financeerp/internal/client/session"
	"github.com/arelunainstituto/financeerp/internal/observability"
	serverconfig "github.com/arelunainstituto/financeerp/internal/config"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(serverconfig.LoggerConfig{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := session.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open session db", zap.Error(err))
	}
	defer db.Close()

	bus := events.NewBus()
	store := session.NewSQLiteStore(db, logger)
	api := clientapi.New(cfg.ServerURL, cfg.HTTPTimeout(), bus, store, logger)

	monitor := session.NewMonitor(store, api, bus, logger, session.MonitorConfig{
		BackstopInterval: cfg.BackstopInterval(),
		VerifyTimeout:    cfg.HTTPTimeout(),
	})
	monitor.OnChange(func(state session.State) {
		fmt.Printf("\n[session] state: %s\n> ", state)
	})
	defer monitor.Close()

	ctx := context.Background()
	monitor.Start(ctx)

	fmt.Println("commands: login <email> <password> | status | me | logout | quit")
	repl(ctx, monitor, store, api)
}

func repl(ctx context.Context, monitor *session.Monitor, store session.Store, api *clientapi.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <email> <password>")
				continue
			}
			if err := monitor.Login(ctx, fields[1], fields[2]); err != nil {
				fmt.Printf("login failed: %v\n", err)
				continue
			}
			fmt.Printf("logged in as %s\n", monitor.Identity().Email)
		case "status":
			fmt.Printf("state: %s", monitor.State())
			if id := monitor.Identity(); id != nil {
				fmt.Printf(", user %s <%s>", id.UserID, id.Email)
			}
			fmt.Println()
		case "me":
			record, err := store.Load(ctx)
			if err != nil || record == nil {
				fmt.Println("not logged in")
				continue
			}
			profile, err := api.Me(ctx, record.Token)
			if err != nil {
				fmt.Printf("profile fetch failed: %v\n", err)
				continue
			}
			fmt.Printf("profile: %s <%s>\n", profile.UserID, profile.Email)
		case "logout":
			if err := monitor.Logout(ctx); err != nil {
				fmt.Printf("logout incomplete: %v\n", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Println("commands: login <email> <password> | status | me | logout | quit")
		}
	}
}
