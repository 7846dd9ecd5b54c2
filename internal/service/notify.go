package service

import (
	"github.com/sirupsen/logrus"
)

// NotificationSink receives queue lifecycle events. Implementations must
// not block; slow consumers should buffer internally.
type NotificationSink interface {
	// QueueChanged fires when the number of pending questions changes.
	QueueChanged(pending int)
	// ConnectivityChanged fires on every online/offline transition.
	ConnectivityChanged(online bool)
}

// LogSink writes queue events to the application log.
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink creates a NotificationSink backed by the given logger.
func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) QueueChanged(pending int) {
	s.logger.WithField(LogFieldPending, pending).Debug("Queue size changed")
}

func (s *LogSink) ConnectivityChanged(online bool) {
	if online {
		s.logger.Info("Connectivity restored")
	} else {
		s.logger.Warn("Connectivity lost")
	}
}

// QueueEvent is a single notification delivered through a ChannelSink.
type QueueEvent struct {
	Type    string `json:"type"`
	Pending int    `json:"pending,omitempty"`
	Online  bool   `json:"online,omitempty"`
}

const (
	EventQueueChanged        = "queue_changed"
	EventConnectivityChanged = "connectivity_changed"
)

// ChannelSink forwards queue events to a channel, dropping events when
// the receiver falls behind.
type ChannelSink struct {
	events chan QueueEvent
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSink{events: make(chan QueueEvent, buffer)}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan QueueEvent {
	return s.events
}

func (s *ChannelSink) QueueChanged(pending int) {
	s.send(QueueEvent{Type: EventQueueChanged, Pending: pending})
}

func (s *ChannelSink) ConnectivityChanged(online bool) {
	s.send(QueueEvent{Type: EventConnectivityChanged, Online: online})
}

func (s *ChannelSink) send(ev QueueEvent) {
	select {
	case s.events <- ev:
	default:
	}
}
