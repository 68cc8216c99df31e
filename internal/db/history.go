package db

import (
	"encoding/json"
	"time"
)

// RunRecord is one optimization run in the history log. Bid payloads are not
// stored; downstream bid persistence belongs to the dispatcher.
type RunRecord struct {
	ID         int64           `json:"id"`
	Timestamp  string          `json:"timestamp"`
	ColdTasks  int             `json:"cold_tasks"`
	RawTasks   int             `json:"raw_tasks"`
	ColdBids   int             `json:"cold_bids"`
	RawBids    int             `json:"raw_bids"`
	DurationMs int64           `json:"duration_ms"`
	Stats      json.RawMessage `json:"stats"`
}

// InsertRun inserts an optimization run record and returns its ID.
func (d *DB) InsertRun(coldTasks, rawTasks, coldBids, rawBids int, durationMs int64, stats interface{}) int64 {
	statsJSON, _ := json.Marshal(stats)
	result, err := d.sql.Exec(
		"INSERT INTO optimize_history (timestamp, cold_tasks, raw_tasks, cold_bids, raw_bids, duration_ms, stats_json) VALUES (?, ?, ?, ?, ?, ?, ?)",
		time.Now().Format(time.RFC3339), coldTasks, rawTasks, coldBids, rawBids, durationMs, string(statsJSON),
	)
	if err != nil {
		return 0
	}
	id, _ := result.LastInsertId()
	return id
}

// GetHistory returns the last N run records (newest first).
func (d *DB) GetHistory(limit int) []RunRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, cold_tasks, raw_tasks, cold_bids, raw_bids,
		 COALESCE(duration_ms, 0), COALESCE(stats_json, '{}')
		 FROM optimize_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []RunRecord{}
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var statsStr string
		rows.Scan(&r.ID, &r.Timestamp, &r.ColdTasks, &r.RawTasks, &r.ColdBids, &r.RawBids, &r.DurationMs, &statsStr)
		r.Stats = json.RawMessage(statsStr)
		records = append(records, r)
	}
	if records == nil {
		return []RunRecord{}
	}
	return records
}

// GetHistoryByID returns a single run record, or nil when not found.
func (d *DB) GetHistoryByID(id int64) *RunRecord {
	row := d.sql.QueryRow(
		`SELECT id, timestamp, cold_tasks, raw_tasks, cold_bids, raw_bids,
		 COALESCE(duration_ms, 0), COALESCE(stats_json, '{}')
		 FROM optimize_history WHERE id = ?`,
		id,
	)
	var r RunRecord
	var statsStr string
	if err := row.Scan(&r.ID, &r.Timestamp, &r.ColdTasks, &r.RawTasks, &r.ColdBids, &r.RawBids, &r.DurationMs, &statsStr); err != nil {
		return nil
	}
	r.Stats = json.RawMessage(statsStr)
	return &r
}

// DeleteHistory deletes a run record.
func (d *DB) DeleteHistory(id int64) error {
	_, err := d.sql.Exec("DELETE FROM optimize_history WHERE id = ?", id)
	return err
}
