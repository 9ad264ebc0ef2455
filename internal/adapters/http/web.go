package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"petnotice/internal/adapters/email"
	"petnotice/internal/adapters/http/middleware"
	"petnotice/internal/adapters/http/perf"
	noticeStore "petnotice/internal/adapters/storage/notice"
)

// Stores holds all storage dependencies.
type Stores struct {
	NoticeStore noticeStore.Store
}

// loadCSRFKey reads the CSRF secret from PETNOTICE_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("PETNOTICE_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("PETNOTICE_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("PETNOTICE_ENV") == "production" {
		log.Fatal("PETNOTICE_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (board sessions won't survive restart). Set PETNOTICE_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Upload directory for notice images (set by NewMux)
var uploadDir string

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Recipient for creation notification e-mails (empty disables them)
var notifyTo string

// Database health probe (set by SetDBPinger)
var dbPinger func() error

// SetEmailSender sets the global email sender and notification recipient.
func SetEmailSender(sender email.Sender, to string) {
	emailSender = sender
	notifyTo = to
}

// SetDBPinger sets the probe used by the health endpoint.
func SetDBPinger(ping func() error) {
	dbPinger = ping
}

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the service.
// uploads is the directory where accepted notice images are stored; it is
// served statically under /uploads/.
func NewMux(uploads string, s *Stores, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	uploadDir = uploads

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleBoard)
	mux.HandleFunc("/board/notices", handleBoardCreate)
	mux.HandleFunc("/notices", handleNotices)
	mux.HandleFunc("/notices/", handleNoticeByID)
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/perf", handlePerf)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> CSRF -> CORS -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CORS,
		middleware.CSRF(csrfKey),
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}
