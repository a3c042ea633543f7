// Package facade implements the orchestration facade: the HTTP boundary
// fronting the four pipeline stages and their durable queues. Search and
// scrape run synchronously inline; discovery and profile enqueue work for a
// stage worker and acknowledge immediately.
package facade

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/queue"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
	"github.com/FelpTB/fornecedor-orchestrator/internal/scrape"
	"github.com/FelpTB/fornecedor-orchestrator/internal/store"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/jina"
)

// Config configures the facade's HTTP behavior.
type Config struct {
	SharedSecret    string
	CORSAllowOrigin []string
}

// scraper is the slice of *scrape.Orchestrator the facade depends on,
// narrowed to an interface at the point of use so handler tests can fake
// the synchronous scrape stage without a real prober/fetcher/store chain.
type scraper interface {
	Run(ctx context.Context, key model.CompanyKey, targetURL string) (*scrape.Result, error)
}

// Facade wires the stage endpoints to the store, queues, search client, and
// scrape orchestrator behind them.
type Facade struct {
	store     store.Store
	search    jina.Client
	scrape    scraper
	discovery *queue.Queue
	profile   *queue.Queue
	queues    map[string]queuedStage

	cfg     Config
	metrics *Metrics
	log     *zap.Logger
}

// queuedStage names one routable queue for the /v2/queue_{name}/* endpoints.
type queuedStage struct {
	name model.QueueName
	q    *queue.Queue
}

// New builds a Facade. discoveryQueue and profileQueue back the two
// asynchronous stages; both are also exposed under /v2/queue_{name}/*.
func New(st store.Store, search jina.Client, orch *scrape.Orchestrator, discoveryQueue, profileQueue *queue.Queue, cfg Config, log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{
		store:     st,
		search:    search,
		scrape:    orch,
		discovery: discoveryQueue,
		profile:   profileQueue,
		queues: map[string]queuedStage{
			"discovery": {name: model.QueueDiscovery, q: discoveryQueue},
			"profile":   {name: model.QueueProfile, q: profileQueue},
		},
		cfg:     cfg,
		metrics: NewMetrics(),
		log:     log,
	}
}

// Router builds the chi router for the facade: request-scoped logging,
// panic recovery, CORS, Prometheus instrumentation, shared-secret auth on
// every /v2 route, and /healthz and /metrics left open for probes.
func (f *Facade) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: f.corsOrigins(),
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
	}))
	r.Use(f.instrument)

	r.Get("/healthz", f.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(f.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v2", func(v2 chi.Router) {
		v2.Use(requireSharedSecret(f.cfg.SharedSecret))

		v2.Post("/serper", f.handleSearch)
		v2.Post("/encontrar_site", f.handleEncontrarSite)
		v2.Post("/scrape", f.handleScrape)
		v2.Post("/montagem_perfil", f.handleMontagemPerfil)

		v2.Route("/queue_{queue}", func(qr chi.Router) {
			qr.Post("/enqueue", f.handleQueueEnqueue)
			qr.Post("/enqueue_batch", f.handleQueueEnqueueBatch)
			qr.Get("/metrics", f.handleQueueMetrics)
		})
	})

	return r
}

func (f *Facade) corsOrigins() []string {
	if len(f.cfg.CORSAllowOrigin) == 0 {
		return []string{"*"}
	}
	return f.cfg.CORSAllowOrigin
}

// instrument records Prometheus counters/histograms for every request using
// the matched chi route pattern rather than the raw path, so per-company
// paths don't explode the metric's cardinality.
func (f *Facade) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		f.metrics.observe(route, http.StatusText(sw.status), time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps the resilience error-kind taxonomy to the HTTP status
// a synchronous endpoint returns: an expired context deadline becomes 504,
// unavailable input 404, rate-limited 503, exhausted/transport/
// protection/schema/degeneration failures 502, everything else 500.
func statusForError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	kind, ok := resilience.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case resilience.KindUnavailableInput:
		return http.StatusNotFound
	case resilience.KindRateLimited:
		return http.StatusServiceUnavailable
	case resilience.KindExhausted:
		return http.StatusBadGateway
	case resilience.KindTransport, resilience.KindProtectionDetected:
		return http.StatusBadGateway
	case resilience.KindSchemaViolation, resilience.KindDegeneration:
		return http.StatusBadGateway
	case resilience.KindFatalConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (f *Facade) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
