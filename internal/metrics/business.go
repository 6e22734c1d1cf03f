package metrics

// RecordTransition counts a committed toggle or activity by action
func (m *Metrics) RecordTransition(action string) {
	m.safeExecute("RecordTransition", func() {
		m.TransitionsTotal.WithLabelValues(action).Inc()
	})
}

// RecordPartialWrite counts a transition whose feed write was lost
func (m *Metrics) RecordPartialWrite() {
	m.safeExecute("RecordPartialWrite", func() {
		m.PartialWritesTotal.Inc()
	})
}

// RecordFeedEviction adds the number of feed entries a cleanup job removed
func (m *Metrics) RecordFeedEviction(job string, deleted int64) {
	m.safeExecute("RecordFeedEviction", func() {
		if deleted > 0 {
			m.FeedEvictionsTotal.WithLabelValues(job).Add(float64(deleted))
		}
	})
}

// RecordCleanupFailure counts a failed cleanup run
func (m *Metrics) RecordCleanupFailure(job string) {
	m.safeExecute("RecordCleanupFailure", func() {
		m.CleanupFailuresTotal.WithLabelValues(job).Inc()
	})
}

// SetStudentsPresent sets the checked-in gauge
func (m *Metrics) SetStudentsPresent(count int64) {
	m.safeExecute("SetStudentsPresent", func() {
		m.StudentsPresent.Set(float64(count))
	})
}

// SetStudentsTotal sets the registered students gauge
func (m *Metrics) SetStudentsTotal(count int64) {
	m.safeExecute("SetStudentsTotal", func() {
		m.StudentsTotal.Set(float64(count))
	})
}

// SetSyncClients sets the connected display clients gauge
func (m *Metrics) SetSyncClients(count int) {
	m.safeExecute("SetSyncClients", func() {
		m.SyncClients.Set(float64(count))
	})
}

// RecordSyncEvent counts a broadcast event by type
func (m *Metrics) RecordSyncEvent(eventType string) {
	m.safeExecute("RecordSyncEvent", func() {
		m.SyncEventsTotal.WithLabelValues(eventType).Inc()
	})
}
