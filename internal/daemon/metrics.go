package daemon

import (
	"sync/atomic"
	"time"
)

// Metrics tracks daemon statistics using atomic operations for thread-safety
type Metrics struct {
	EventsReceived   atomic.Int64 // board_changed events published by clients
	EventsSent       atomic.Int64 // messages queued to subscribers, pings included
	EventsDropped    atomic.Int64 // messages skipped because a queue was full
	Broadcasts       atomic.Int64 // sequenced events fanned out
	ConnectionsTotal atomic.Int64
	ConnectedClients atomic.Int32
	StartTime        time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

func (m *Metrics) IncEventsReceived() { m.EventsReceived.Add(1) }
func (m *Metrics) IncEventsSent()     { m.EventsSent.Add(1) }
func (m *Metrics) IncEventsDropped()  { m.EventsDropped.Add(1) }
func (m *Metrics) IncBroadcasts()     { m.Broadcasts.Add(1) }
func (m *Metrics) IncConnections()    { m.ConnectionsTotal.Add(1) }

// SetConnectedClients sets the current connected clients count
func (m *Metrics) SetConnectedClients(count int32) {
	m.ConnectedClients.Store(count)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	EventsReceived   int64     `json:"events_received"`
	EventsSent       int64     `json:"events_sent"`
	EventsDropped    int64     `json:"events_dropped"`
	Broadcasts       int64     `json:"broadcasts"`
	ConnectionsTotal int64     `json:"connections_total"`
	ConnectedClients int32     `json:"connected_clients"`
	StartTime        time.Time `json:"start_time"`
	Uptime           string    `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsReceived:   m.EventsReceived.Load(),
		EventsSent:       m.EventsSent.Load(),
		EventsDropped:    m.EventsDropped.Load(),
		Broadcasts:       m.Broadcasts.Load(),
		ConnectionsTotal: m.ConnectionsTotal.Load(),
		ConnectedClients: m.ConnectedClients.Load(),
		StartTime:        m.StartTime,
		Uptime:           time.Since(m.StartTime).Round(time.Second).String(),
	}
}
