// Package storefront wires configuration and startup for the member-facing
// process.
package storefront

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
	catalogsvc "github.com/harlowe/wholesail/internal/services/catalog"
	catalogsqlite "github.com/harlowe/wholesail/internal/services/catalog/storage/sqlite"
	"github.com/harlowe/wholesail/internal/services/identity"
	identitysqlite "github.com/harlowe/wholesail/internal/services/identity/storage/sqlite"
	memberssqlite "github.com/harlowe/wholesail/internal/services/members/storage/sqlite"
	notifiersvc "github.com/harlowe/wholesail/internal/services/notifier"
	notifiersqlite "github.com/harlowe/wholesail/internal/services/notifier/storage/sqlite"
	"github.com/harlowe/wholesail/internal/services/session"
	"github.com/harlowe/wholesail/internal/services/signup"
	"github.com/harlowe/wholesail/internal/services/storefront"
)

const (
	defaultHTTPAddr   = ":8081"
	defaultMembersDB  = "data/members.db"
	defaultCatalogDB  = "data/catalog.db"
	defaultIdentityDB = "data/identity.db"
	defaultNotifierDB = "data/notifier.db"
	serviceName       = "wholesail-storefront"
)

// Config holds the storefront command configuration.
type Config struct {
	HTTPAddr      string
	MembersDB     string
	CatalogDB     string
	IdentityDB    string
	NotifierDB    string
	SecureCookies bool
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config, with environment defaults.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		HTTPAddr:      envOrDefault(lookup, []string{"WHOLESAIL_STOREFRONT_ADDR"}, defaultHTTPAddr),
		MembersDB:     envOrDefault(lookup, []string{"WHOLESAIL_MEMBERS_DB_PATH"}, defaultMembersDB),
		CatalogDB:     envOrDefault(lookup, []string{"WHOLESAIL_CATALOG_DB_PATH"}, defaultCatalogDB),
		IdentityDB:    envOrDefault(lookup, []string{"WHOLESAIL_IDENTITY_DB_PATH"}, defaultIdentityDB),
		NotifierDB:    envOrDefault(lookup, []string{"WHOLESAIL_NOTIFIER_DB_PATH"}, defaultNotifierDB),
		SecureCookies: envOrDefault(lookup, []string{"WHOLESAIL_SECURE_COOKIES"}, "true") != "false",
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.MembersDB, "members-db", cfg.MembersDB, "path to members sqlite database")
	fs.StringVar(&cfg.CatalogDB, "catalog-db", cfg.CatalogDB, "path to catalog sqlite database")
	fs.StringVar(&cfg.IdentityDB, "identity-db", cfg.IdentityDB, "path to identity sqlite database")
	fs.StringVar(&cfg.NotifierDB, "notifier-db", cfg.NotifierDB, "path to notifier sqlite database")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies, "mark session cookies Secure")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the storefront server.
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

	identityStore, err := openStoreDir(cfg.IdentityDB, identitysqlite.Open)
	if err != nil {
		return fmt.Errorf("open identity store: %w", err)
	}
	defer closeStore("identity", identityStore)

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

	identities := identity.NewService(identityStore)
	catalog := catalogsvc.NewService(catalogStore, memberStore, time.Now)
	orchestrator := signup.NewOrchestrator(identities, memberStore)
	inbox := notifiersvc.NewService(noticeStore)

	handler := storefront.NewHandler(storefront.HandlerConfig{
		Signup:        orchestrator,
		Identity:      identities,
		Members:       memberStore,
		Catalog:       catalog,
		Inbox:         inbox,
		Sessions:      sessions,
		SessionTTL:    sessionConfig.TTL,
		SecureCookies: cfg.SecureCookies,
	})

	server, err := storefront.NewServer(storefront.Config{
		HTTPAddr: cfg.HTTPAddr,
		Handler:  handler,
	})
	if err != nil {
		return fmt.Errorf("init storefront server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve storefront: %w", err)
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
