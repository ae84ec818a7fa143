package http

import (
	"container/list"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}

	return len(toRemove)
}

type Server struct {
	http.Server
	templates *template.Template
	store     ledger.Store
	svc       *services.LedgerService
	taxonomy  config.Taxonomy

	rateLimiter *rateLimiter

	// Per-month caches for the dashboard partial
	summaryCache *lruCache[core.MonthSummary]
	itemsCache   *lruCache[[]core.Transaction]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// startCacheCleanup runs periodic cleanup for both caches
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summariesCleaned := s.summaryCache.CleanExpired()
			itemsCleaned := s.itemsCache.CleanExpired()
			if summariesCleaned > 0 || itemsCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"summary_entries_removed", summariesCleaned,
					"items_entries_removed", itemsCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. Unparsable templates fail construction; every partial
// handler renders through them.
func NewServer(addr string, store ledger.Store, svc *services.LedgerService, tax config.Taxonomy) (*Server, error) {
	// Parse embedded templates before spawning any background work.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		templates:        t,
		store:            store,
		svc:              svc,
		taxonomy:         tax,
		rateLimiter:      newRateLimiter(),
		summaryCache:     newLRUCache[core.MonthSummary](100, 5*time.Minute),
		itemsCache:       newLRUCache[[]core.Transaction](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleCreateTransaction))

	mux.HandleFunc("/subscriptions", s.withSecurityHeaders(s.handleCreateSubscription))
	mux.HandleFunc("/subscriptions/edit", s.withSecurityHeaders(s.handleEditSubscription))
	mux.HandleFunc("/subscriptions/delete", s.withSecurityHeaders(s.handleDeleteSubscription))
	mux.HandleFunc("/subscriptions/post-charges", s.withSecurityHeaders(s.handlePostCharges))

	mux.HandleFunc("/cards", s.withSecurityHeaders(s.handleCreateCard))
	mux.HandleFunc("/cards/edit", s.withSecurityHeaders(s.handleEditCard))
	mux.HandleFunc("/cards/delete", s.withSecurityHeaders(s.handleDeleteCard))
	mux.HandleFunc("/cards/pay", s.withSecurityHeaders(s.handleCardPayment))

	mux.HandleFunc("/goals", s.withSecurityHeaders(s.handleCreateGoal))
	mux.HandleFunc("/goals/edit", s.withSecurityHeaders(s.handleEditGoal))
	mux.HandleFunc("/goals/delete", s.withSecurityHeaders(s.handleDeleteGoal))

	mux.HandleFunc("/budgets", s.withSecurityHeaders(s.handleUpsertBudget))

	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/ui/subscriptions", s.withSecurityHeaders(s.handleSubscriptionList))
	mux.HandleFunc("/ui/cards-goals", s.withSecurityHeaders(s.handleCardsGoals))
	mux.HandleFunc("/ui/budgets", s.withSecurityHeaders(s.handleBudgetList))

	// CSV downloads
	mux.HandleFunc("/export/", s.withSecurityHeaders(s.handleExport))

	return s, nil
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Apply rate limiting to writes
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) cacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateMonth(year, month int) {
	key := s.cacheKey(year, month)
	s.summaryCache.Delete(key)
	s.itemsCache.Delete(key)
}

// getTransactions returns the ledger rows for one month, cached.
func (s *Server) getTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	key := s.cacheKey(year, month)

	if items, found := s.itemsCache.Get(key); found {
		slog.DebugContext(ctx, "Transactions cache hit", "year", year, "month", month, "count", len(items))
		// Return a copy to prevent external mutation
		result := make([]core.Transaction, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	all, err := s.store.ReadTransactions(cctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger (year=%d, month=%d): %w", year, month, err)
	}
	items := make([]core.Transaction, 0, len(all))
	for _, t := range all {
		if t.Date.In(year, month) {
			items = append(items, t)
		}
	}

	s.itemsCache.Set(key, items)
	slog.DebugContext(ctx, "Transactions cached", "year", year, "month", month, "count", len(items))
	return items, nil
}

// getSummary returns the month summary, cached.
func (s *Server) getSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	key := s.cacheKey(year, month)

	if data, found := s.summaryCache.Get(key); found {
		slog.DebugContext(ctx, "Summary cache hit", "year", year, "month", month)
		return data, nil
	}

	items, err := s.getTransactions(ctx, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	data := core.Summarize(items, year, month)

	s.summaryCache.Set(key, data)
	slog.DebugContext(ctx, "Summary cached", "year", year, "month", month,
		"income_cents", data.Income.Cents, "expense_cents", data.Expense.Cents)
	return data, nil
}

// formatDollars renders cents as a dollar string with thousands
// separators, e.g. -425000 -> "-$4,250.00".
func formatDollars(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	dollars := cents / 100
	rem := cents % 100

	digits := strconv.FormatInt(dollars, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := "$" + b.String() + fmt.Sprintf(".%02d", rem)
	if neg {
		return "-" + out
	}
	return out
}
