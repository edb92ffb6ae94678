package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// Reconfigurer is the capability interface a Watcher drives. *clawsec.Engine
// satisfies it directly.
type Reconfigurer interface {
	Reconfigure(enabled bool, detectors []clawsec.Detector, rules map[clawsec.ThreatCategory]clawsec.RuleConfig, confirmParam string)
}

// Watcher implements live reconfiguration (§5): it watches the config file
// (and every template it extends) for writes, rebuilds Components, and
// swaps them into the engine atomically. A reload that fails validation
// logs and keeps serving the last-good configuration.
type Watcher struct {
	path         string
	loadTemplate TemplateLoader
	engine       Reconfigurer
	log          clawsec.Logger
	watcher      *fsnotify.Watcher
	done         chan struct{}
}

// WatchOption configures a Watcher at construction time.
type WatchOption func(*Watcher)

func WithWatchLogger(log clawsec.Logger) WatchOption {
	return func(w *Watcher) { w.log = log }
}

// NewWatcher builds and starts a Watcher for path, applying the initial
// configuration to engine before returning.
func NewWatcher(path string, loadTemplate TemplateLoader, engine Reconfigurer, opts ...WatchOption) (*Watcher, error) {
	w := &Watcher{path: path, loadTemplate: loadTemplate, engine: engine, log: clawsec.NopLogger{}, done: make(chan struct{})}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, newConfigError("start config watcher", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, newConfigError("watch config file", err)
	}
	w.watcher = fsw

	go w.run()
	return w, nil
}

// Stop releases the underlying filesystem watch. Idempotent.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	select {
	case <-w.done:
		return
	default:
	}
	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Editors commonly replace the file (write-new, rename-over)
			// rather than write in place; both Write and Create are worth
			// a reload attempt, Chmod-only noise is not.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				w.log.Printf("clawsec: config reload failed, keeping previous configuration: %v", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Printf("clawsec: config watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() error {
	cfg, err := Load(w.path, w.loadTemplate)
	if err != nil {
		return err
	}
	comps, err := Build(cfg)
	if err != nil {
		return newConfigError("build engine components", err)
	}
	for _, warning := range comps.Warnings {
		w.log.Printf("clawsec: config warning: %s", warning)
	}
	w.engine.Reconfigure(comps.Enabled, comps.Detectors, comps.Rules, comps.ConfirmParam)
	return nil
}
