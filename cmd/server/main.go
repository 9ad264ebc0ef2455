package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "petnotice/internal/adapters/email"
	web "petnotice/internal/adapters/http"
	"petnotice/internal/adapters/http/perf"
	"petnotice/internal/adapters/storage"
	noticeStore "petnotice/internal/adapters/storage/notice"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Optional .env for local development; a missing file is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Initialize database with WAL mode and a busy timeout
	dbPath := envOrDefault("PETNOTICE_DB", "pet_notice.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	// Create schema
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)

	stores := &web.Stores{
		NoticeStore: noticeStore.NewSQLiteStore(timedDB),
	}
	web.SetDBPinger(db.Ping)

	// Configure email sender for creation notifications
	resendKey := os.Getenv("PETNOTICE_RESEND_KEY")
	emailFrom := envOrDefault("PETNOTICE_RESEND_FROM", "Pet Notice <noreply@petnotice.example>")
	notifyTo := os.Getenv("PETNOTICE_NOTIFY_TO")
	if resendKey != "" {
		web.SetEmailSender(emailPkg.NewResendSender(resendKey, emailFrom), notifyTo)
		log.Println("Email sender configured (Resend)")
	} else {
		web.SetEmailSender(emailPkg.NewNoopSender(), notifyTo)
		log.Println("Email sender configured (noop — set PETNOTICE_RESEND_KEY for real delivery)")
	}

	// Create HTTP handler with middleware (pass collector for timing + /perf)
	uploadDir := envOrDefault("PETNOTICE_UPLOAD_DIR", "uploads")
	mux := web.NewMux(uploadDir, stores, collector)

	// Start server
	addr := envOrDefault("PETNOTICE_ADDR", ":3000")
	log.Printf("Pet Notice %s starting on %s (env=%s)", version, addr, envOrDefault("PETNOTICE_ENV", "development"))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
