// Command clawsecd is the wiring binary: it loads configuration, builds the
// decision engine and its collaborators, watches the config file for live
// reconfiguration (§5), optionally starts the Kubernetes controller for
// ClawsecPolicy CRDs, and serves Prometheus metrics. The hook surface
// itself (§6.1) is a library — pkg/hooks.Handler — that an embedding host
// calls directly; this binary's job is only to assemble everything that
// handler needs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	clawsecv1alpha1 "github.com/clawsec/clawsec/api/v1alpha1"
	"github.com/clawsec/clawsec/pkg/approval"
	"github.com/clawsec/clawsec/pkg/audit"
	"github.com/clawsec/clawsec/pkg/clawsec"
	"github.com/clawsec/clawsec/pkg/config"
	"github.com/clawsec/clawsec/pkg/controller"
	"github.com/clawsec/clawsec/pkg/hooks"
	"github.com/clawsec/clawsec/pkg/metrics"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(clawsecv1alpha1.AddToScheme(scheme))
}

// logAdapter satisfies clawsec.Logger by forwarding to controller-runtime's
// logr-backed log.Log, the same sink the controller and manager use.
type logAdapter struct{}

func (logAdapter) Printf(format string, args ...interface{}) {
	log.Log.Info(fmt.Sprintf(format, args...))
}

func main() {
	var (
		configPath       = flag.String("config", "/etc/clawsec/config.yaml", "path to the clawsec configuration file")
		templateDir      = flag.String("template-dir", "/etc/clawsec/templates", "directory holding extends[] templates")
		metricsAddr      = flag.String("metrics-addr", ":9090", "address to serve Prometheus metrics on")
		redisAddr        = flag.String("redis-addr", "", "optional redis address for the oracle response cache")
		enableController = flag.Bool("enable-controller", false, "watch ClawsecPolicy CRDs via a controller-runtime manager")
	)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseDevMode(true)))
	logger := logAdapter{}

	cfg, err := config.Load(*configPath, config.DirTemplateLoader(*templateDir))
	if err != nil {
		log.Log.Error(err, "failed to load initial configuration")
		os.Exit(1)
	}

	comps, err := config.Build(cfg)
	if err != nil {
		log.Log.Error(err, "failed to compile initial configuration")
		os.Exit(1)
	}

	store := approval.NewStore(approval.WithTTL(time.Duration(cfg.Approval.Native.Timeout) * time.Second))
	store.StartSweep(30*time.Second, true)
	defer store.Stop()

	engineOpts := []clawsec.EngineOption{
		clawsec.WithApprovalHandler(store),
		clawsec.WithEngineLogger(logger),
	}
	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		engineOpts = append(engineOpts, clawsec.WithOracleCache(clawsec.NewRedisOracleCache(rdb, 2*time.Minute)))
	}
	if cfg.LLM.Enabled {
		engineOpts = append(engineOpts, clawsec.WithOracle(clawsec.NewOpenAIOracle(cfg.LLM.Model, clawsec.WithOpenAILogger(logger))))
	}

	engine := clawsec.NewEngine(comps.Enabled, comps.Detectors, comps.Rules, comps.ConfirmParam, engineOpts...)

	emitter := audit.NewEmitter(audit.NewStdoutAuditSink(false))
	reg := prometheus.NewRegistry()
	emitter.AddSink(metrics.NewRecorder(reg, engine.DecisionCache()))

	handler := hooks.NewHandler(engine, cfg, hooks.WithAuditSink(emitter), hooks.WithHookLogger(logger))

	watcher, err := config.NewWatcher(*configPath, config.DirTemplateLoader(*templateDir), reconfigurerFunc(func(enabled bool, detectors []clawsec.Detector, rules map[clawsec.ThreatCategory]clawsec.RuleConfig, confirmParam string) {
		engine.Reconfigure(enabled, detectors, rules, confirmParam)
		if reloaded, err := config.Load(*configPath, config.DirTemplateLoader(*templateDir)); err == nil {
			handler.UpdateConfig(reloaded)
		}
	}), config.WithWatchLogger(logger))
	if err != nil {
		log.Log.Error(err, "failed to start config watcher")
		os.Exit(1)
	}
	defer watcher.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *enableController {
		go runController(ctx, engine)
	}

	if cfg.Approval.Native.Enabled {
		go runNativeApprovalPrompt(ctx, store)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Log.Error(err, "metrics server stopped")
		}
	}()

	// handler is the library surface an embedding host calls directly
	// (BeforeAgentStart/BeforeToolCall/ToolResultPersist); this daemon keeps
	// it alive and configured via the watcher above but doesn't call it
	// itself.
	_ = handler

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func runController(ctx context.Context, engine *clawsec.Engine) {
	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:         scheme,
		LeaderElection: false,
	})
	if err != nil {
		log.Log.Error(err, "failed to create controller-runtime manager")
		return
	}

	reconciler := &controller.ClawsecPolicyReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
		Engine: engine,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		log.Log.Error(err, "failed to set up ClawsecPolicy controller")
		return
	}

	if err := mgr.Start(ctx); err != nil {
		log.Log.Error(err, "controller manager exited")
	}
}

// runNativeApprovalPrompt polls the store for tickets awaiting a decision
// and renders approval.RenderPrompt to the operator's terminal, reading a
// y/N answer from stdin. Polling (rather than a push channel) keeps the
// store ignorant of whether anyone is watching it.
func runNativeApprovalPrompt(ctx context.Context, store *approval.Store) {
	reader := bufio.NewReader(os.Stdin)
	seen := make(map[string]bool)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ticket := range store.Pending() {
				if seen[ticket.ID] {
					continue
				}
				seen[ticket.ID] = true

				pending := clawsec.PendingApproval{
					ID:               ticket.ID,
					ExpiresInSeconds: int(time.Until(ticket.ExpiresAt).Seconds()),
				}
				fmt.Println(approval.RenderPrompt(ticket, pending))

				answer, _ := reader.ReadString('\n')
				var err error
				if strings.EqualFold(strings.TrimSpace(answer), "y") {
					_, err = store.Approve(ticket.ID, "native-terminal")
				} else {
					_, err = store.Deny(ticket.ID, "native-terminal")
				}
				if err != nil {
					log.Log.Error(err, "failed to record native approval decision", "ticket", ticket.ID)
				}
			}
		}
	}
}

// reconfigurerFunc adapts a plain function to config.Reconfigurer.
type reconfigurerFunc func(enabled bool, detectors []clawsec.Detector, rules map[clawsec.ThreatCategory]clawsec.RuleConfig, confirmParam string)

func (f reconfigurerFunc) Reconfigure(enabled bool, detectors []clawsec.Detector, rules map[clawsec.ThreatCategory]clawsec.RuleConfig, confirmParam string) {
	f(enabled, detectors, rules, confirmParam)
}
