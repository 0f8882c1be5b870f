// Package admin wires configuration and startup for the operator process.
package admin

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harlowe/wholesail/internal/platform/otel"
	"github.com/harlowe/wholesail/internal/services/admin"
	catalogsvc "github.com/harlowe/wholesail/internal/services/catalog"
	catalogsqlite "github.com/harlowe/wholesail/internal/services/catalog/storage/sqlite"
	memberssvc "github.com/harlowe/wholesail/internal/services/members"
	"github.com/harlowe/wholesail/internal/services/members/authz"
	memberssqlite "github.com/harlowe/wholesail/internal/services/members/storage/sqlite"
	notifiersvc "github.com/harlowe/wholesail/internal/services/notifier"
	notifierchinbox "github.com/harlowe/wholesail/internal/services/notifier/channel/inbox"
	notifierchwebhook "github.com/harlowe/wholesail/internal/services/notifier/channel/webhook"
	notifierdomain "github.com/harlowe/wholesail/internal/services/notifier/domain"
	notifiersqlite "github.com/harlowe/wholesail/internal/services/notifier/storage/sqlite"
	"github.com/harlowe/wholesail/internal/services/session"
)

const (
	defaultHTTPAddr   = ":8082"
	defaultMembersDB  = "data/members.db"
	defaultCatalogDB  = "data/catalog.db"
	defaultNotifierDB = "data/notifier.db"
	serviceName       = "wholesail-admin"
)

// Config holds the admin command configuration.
type Config struct {
	HTTPAddr   string
	MembersDB  string
	CatalogDB  string
	NotifierDB string
	WebhookURL string
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config, with environment defaults.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		HTTPAddr:   envOrDefault(lookup, []string{"WHOLESAIL_ADMIN_ADDR"}, defaultHTTPAddr),
		MembersDB:  envOrDefault(lookup, []string{"WHOLESAIL_MEMBERS_DB_PATH"}, defaultMembersDB),
		CatalogDB:  envOrDefault(lookup, []string{"WHOLESAIL_CATALOG_DB_PATH"}, defaultCatalogDB),
		NotifierDB: envOrDefault(lookup, []string{"WHOLESAIL_NOTIFIER_DB_PATH"}, defaultNotifierDB),
		WebhookURL: envOrDefault(lookup, []string{"WHOLESAIL_NOTIFY_WEBHOOK_URL"}, ""),
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.MembersDB, "members-db", cfg.MembersDB, "path to members sqlite database")
	fs.StringVar(&cfg.CatalogDB, "catalog-db", cfg.CatalogDB, "path to catalog sqlite database")
	fs.StringVar(&cfg.NotifierDB, "notifier-db", cfg.NotifierDB, "path to notifier sqlite database")
	fs.StringVar(&cfg.WebhookURL, "notify-webhook", cfg.WebhookURL, "webhook URL for decision notices (optional)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the operator server.
func Run(ctx context.Context, cfg Config) error {
	shutdownOtel, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	memberStore, err := openStoreDir(cfg.MembersDB, memberssqlite.Open)
	if err != nil {
		return fmt.Errorf("open members store: %w", err)
	}
	defer closeStore("members", memberStore)

	catalogStore, err := openStoreDir(cfg.CatalogDB, catalogsqlite.Open)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer closeStore("catalog", catalogStore)

	noticeStore, err := openStoreDir(cfg.NotifierDB, notifiersqlite.Open)
	if err != nil {
		return fmt.Errorf("open notifier store: %w", err)
	}
	defer closeStore("notifier", noticeStore)

	sessionConfig, err := session.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load session config: %w", err)
	}
	sessions := session.NewManager(sessionConfig)

	channels := []notifierdomain.Channel{notifierchinbox.NewChannel(noticeStore)}
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		webhookChannel, err := notifierchwebhook.NewChannel(cfg.WebhookURL)
		if err != nil {
			return fmt.Errorf("build webhook channel: %w", err)
		}
		channels = append(channels, webhookChannel)
	}
	dispatcher := notifierdomain.NewDispatcher(notifierdomain.NewFanout(channels...))
	decisions := notifiersvc.NewDecisionDispatcher(dispatcher)
	defer decisions.Wait()

	gate := authz.NewGate(memberStore)
	members := memberssvc.NewService(memberStore, gate, decisions, time.Now)
	catalog := catalogsvc.NewService(catalogStore, memberStore, time.Now)

	server, err := admin.NewServer(admin.Config{
		HTTPAddr: cfg.HTTPAddr,
		Handler:  admin.NewHandler(members, catalog, gate),
		Sessions: sessions,
	})
	if err != nil {
		return fmt.Errorf("init admin server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve admin: %w", err)
	}
	return nil
}

func envOrDefault(lookup EnvLookup, keys []string, fallback string) string {
	for _, key := range keys {
		if lookup == nil {
			break
		}
		value, ok := lookup(key)
		if ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}

func openStoreDir[S any](path string, open func(string) (S, error)) (S, error) {
	var zero S
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zero, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return open(path)
}

func closeStore(name string, store interface{ Close() error }) {
	if err := store.Close(); err != nil {
		log.Printf("close %s store: %v", name, err)
	}
}
