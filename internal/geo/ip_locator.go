package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

const (
	defaultIPLookupURL = "https://ipapi.co"
	defaultIPCacheTTL  = time.Hour
	defaultIPCacheSize = 4096
)

// LookupObserver records lookup outcomes by source.
type LookupObserver interface {
	ObserveGeoLookup(source string, ok bool)
}

type ipLookup struct {
	IP        string   `json:"ip"`
	City      string   `json:"city"`
	Country   string   `json:"country_name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

type cachedLocation struct {
	coords    catalog.Coordinates
	expiresAt time.Time
}

type lookupResult struct {
	coords catalog.Coordinates
	found  bool
}

// IPLocator resolves a client IP to approximate coordinates via ipapi.co.
// Private and loopback addresses are never looked up. Only successful
// lookups are cached, for ttl and up to maxEntries addresses.
type IPLocator struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	metrics LookupObserver
	logger  *logging.Logger

	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu     sync.RWMutex
	cache  map[string]cachedLocation
	flight singleflight.Group
}

func NewIPLocator(baseURL string, timeout time.Duration, metrics LookupObserver, logger *logging.Logger) *IPLocator {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultIPLookupURL
	}
	return &IPLocator{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		metrics: metrics,
		logger:  logger,

		ttl:        defaultIPCacheTTL,
		maxEntries: defaultIPCacheSize,
		now:        time.Now,
		cache:      make(map[string]cachedLocation),
	}
}

// Locate returns the coordinates for ip and whether they were found.
func (l *IPLocator) Locate(ctx context.Context, ip string) (catalog.Coordinates, bool) {
	if l == nil {
		return catalog.Coordinates{}, false
	}
	ip = strings.TrimSpace(ip)
	if isPrivateIP(ip) {
		return catalog.Coordinates{}, false
	}

	if coords, ok := l.cached(ip); ok {
		return coords, true
	}

	// The lookup is shared by concurrent callers, so it must not die with
	// whichever request happened to start it.
	v, _, _ := l.flight.Do(ip, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		coords, err := l.fetch(fetchCtx, ip)
		l.observe(err == nil)
		if err != nil {
			l.logger.Warn("ip geolocation failed", "ip", ip, "error", err)
			return lookupResult{}, nil
		}
		l.store(ip, coords)
		return lookupResult{coords: coords, found: true}, nil
	})
	res := v.(lookupResult)
	return res.coords, res.found
}

func (l *IPLocator) cached(ip string) (catalog.Coordinates, bool) {
	l.mu.RLock()
	hit, ok := l.cache[ip]
	l.mu.RUnlock()
	if !ok || !l.now().Before(hit.expiresAt) {
		return catalog.Coordinates{}, false
	}
	return hit.coords, true
}

func (l *IPLocator) store(ip string, coords catalog.Coordinates) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[ip]; !ok && len(l.cache) >= l.maxEntries {
		l.evictLocked(now)
	}
	l.cache[ip] = cachedLocation{coords: coords, expiresAt: now.Add(l.ttl)}
}

// evictLocked drops expired entries, then the soonest to expire if the
// cache is still full.
func (l *IPLocator) evictLocked(now time.Time) {
	var (
		oldestIP string
		oldest   time.Time
	)
	for ip, entry := range l.cache {
		if !now.Before(entry.expiresAt) {
			delete(l.cache, ip)
			continue
		}
		if oldestIP == "" || entry.expiresAt.Before(oldest) {
			oldestIP, oldest = ip, entry.expiresAt
		}
	}
	if len(l.cache) >= l.maxEntries && oldestIP != "" {
		delete(l.cache, oldestIP)
	}
}

func (l *IPLocator) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

func (l *IPLocator) fetch(ctx context.Context, ip string) (catalog.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", l.baseURL, ip), nil)
	if err != nil {
		return catalog.Coordinates{}, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return catalog.Coordinates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return catalog.Coordinates{}, fmt.Errorf("geo: ip lookup returned status %d", resp.StatusCode)
	}

	var body ipLookup
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return catalog.Coordinates{}, fmt.Errorf("geo: decode ip lookup: %w", err)
	}
	if body.Error || body.Latitude == nil || body.Longitude == nil {
		return catalog.Coordinates{}, fmt.Errorf("geo: ip lookup has no position: %s", body.Reason)
	}
	coords := catalog.Coordinates{Lat: *body.Latitude, Lng: *body.Longitude}
	if !ValidCoordinates(coords) {
		return catalog.Coordinates{}, fmt.Errorf("geo: ip lookup returned invalid position %v", coords)
	}
	return coords, nil
}

func (l *IPLocator) observe(ok bool) {
	if l.metrics != nil {
		l.metrics.ObserveGeoLookup("ip", ok)
	}
}

// isPrivateIP treats unparsable, loopback, link-local and RFC 1918
// addresses as private.
func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsLinkLocalUnicast() || parsed.IsUnspecified()
}
