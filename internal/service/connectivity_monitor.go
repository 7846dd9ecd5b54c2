package service

import (
	"context"
	"sync"
	"time"

	"fatwabox/internal/constants"
	"fatwabox/internal/metrics"
	"fatwabox/pkg/questions"

	"github.com/sirupsen/logrus"
)

// ConnectivityMonitor periodically probes the remote service and tracks
// whether it is reachable. Listeners are notified on every transition,
// which is how the sync engine learns that a flush is worth attempting.
type ConnectivityMonitor struct {
	submitter     questions.Submitter
	logger        *logrus.Logger
	checkInterval time.Duration
	probeTimeout  time.Duration

	mu        sync.Mutex
	online    bool
	running   bool
	stopCh    chan struct{}
	listeners []func(online bool)
	sinks     []NotificationSink
}

// NewConnectivityMonitor creates a monitor. The service starts in the
// offline state until the first successful probe.
func NewConnectivityMonitor(submitter questions.Submitter, logger *logrus.Logger, checkInterval, probeTimeout time.Duration) *ConnectivityMonitor {
	if checkInterval <= 0 {
		checkInterval = time.Duration(constants.DefaultConnectivityCheckSec) * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = time.Duration(constants.DefaultConnectivityProbeSec) * time.Second
	}

	return &ConnectivityMonitor{
		submitter:     submitter,
		logger:        logger,
		checkInterval: checkInterval,
		probeTimeout:  probeTimeout,
		stopCh:        make(chan struct{}),
	}
}

// AddSink registers a notification sink for connectivity transitions.
func (cm *ConnectivityMonitor) AddSink(sink NotificationSink) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.sinks = append(cm.sinks, sink)
}

// OnTransition registers a callback invoked on every connectivity
// transition. Callbacks run on the monitor goroutine and must return
// quickly.
func (cm *ConnectivityMonitor) OnTransition(fn func(online bool)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.listeners = append(cm.listeners, fn)
}

// IsOnline reports the last observed connectivity state.
func (cm *ConnectivityMonitor) IsOnline() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.online
}

// SetOnline overrides the connectivity state. It exists for the manual
// override endpoint and for tests; the next probe may flip it back.
func (cm *ConnectivityMonitor) SetOnline(online bool) {
	cm.transition(online, "manual override")
}

// Start begins the probe loop.
func (cm *ConnectivityMonitor) Start(ctx context.Context) {
	cm.mu.Lock()
	if cm.running {
		cm.mu.Unlock()
		cm.logger.Warn("Connectivity monitor is already running")
		return
	}

	if cm.stopCh == nil {
		cm.stopCh = make(chan struct{})
	}

	cm.running = true
	cm.mu.Unlock()

	go cm.monitorLoop(ctx)
	cm.logger.Info("Connectivity monitor started")
}

// Stop stops the probe loop.
func (cm *ConnectivityMonitor) Stop() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.running {
		return
	}

	if cm.stopCh != nil {
		close(cm.stopCh)
		cm.stopCh = nil
	}
	cm.running = false
	cm.logger.Info("Connectivity monitor stopped")
}

func (cm *ConnectivityMonitor) monitorLoop(ctx context.Context) {
	// Probe immediately so queued questions from a previous run are
	// flushed on startup rather than waiting a full interval.
	cm.CheckNow(ctx)

	ticker := time.NewTicker(cm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cm.getStopCh():
			return
		case <-ticker.C:
			cm.CheckNow(ctx)
		}
	}
}

// getStopCh safely retrieves the stop channel
func (cm *ConnectivityMonitor) getStopCh() <-chan struct{} {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.stopCh == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return cm.stopCh
}

// CheckNow performs a single probe and applies any resulting
// transition.
func (cm *ConnectivityMonitor) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, cm.probeTimeout)
	defer cancel()

	err := cm.submitter.Ping(probeCtx)
	online := err == nil

	if !online {
		cm.logger.WithError(err).Debug("Connectivity probe failed")
	}

	cm.transition(online, "probe")
	return online
}

func (cm *ConnectivityMonitor) transition(online bool, reason string) {
	cm.mu.Lock()
	changed := cm.online != online
	cm.online = online
	listeners := make([]func(bool), len(cm.listeners))
	copy(listeners, cm.listeners)
	sinks := make([]NotificationSink, len(cm.sinks))
	copy(sinks, cm.sinks)
	cm.mu.Unlock()

	gauge := 0.0
	if online {
		gauge = 1.0
	}
	metrics.SetGauge("remote_online", gauge, nil, "Remote service reachability")

	if !changed {
		return
	}

	cm.logger.WithFields(logrus.Fields{
		"online": online,
		"reason": reason,
	}).Info("Connectivity state changed")

	for _, sink := range sinks {
		sink.ConnectivityChanged(online)
	}
	for _, fn := range listeners {
		fn(online)
	}
}
