package database

import (
	"time"

	"gorm.io/gorm"
)

// MetricsRecorder is an interface for recording database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats interface{})
}

const startKey = "metrics:start_time"

// RegisterMetricsCallbacks times every select, insert, update, delete and raw
// statement that goes through db
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) {
	cb := db.Callback()

	register := func(op string, before, after func(string, func(*gorm.DB)) error) {
		_ = before("metrics:"+op+"_before", func(tx *gorm.DB) {
			tx.InstanceSet(startKey, time.Now())
		})
		_ = after("metrics:"+op+"_after", func(tx *gorm.DB) {
			start, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			recorder.RecordDBQuery(op, table, time.Since(start.(time.Time)), tx.Error)
		})
	}

	register("select",
		cb.Query().Before("gorm:query").Register,
		cb.Query().After("gorm:query").Register)
	register("insert",
		cb.Create().Before("gorm:create").Register,
		cb.Create().After("gorm:create").Register)
	register("update",
		cb.Update().Before("gorm:update").Register,
		cb.Update().After("gorm:update").Register)
	register("delete",
		cb.Delete().Before("gorm:delete").Register,
		cb.Delete().After("gorm:delete").Register)
	register("raw",
		cb.Raw().Before("gorm:raw").Register,
		cb.Raw().After("gorm:raw").Register)
}

// StartDBStatsCollector pushes sql.DBStats to recorder every interval until
// the returned channel is closed
func StartDBStatsCollector(db *gorm.DB, recorder MetricsRecorder, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-done:
				return
			}
		}
	}()

	return done
}
