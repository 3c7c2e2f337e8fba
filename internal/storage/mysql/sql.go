package mysql

const insertSnapshotSQL = `
INSERT INTO snapshots
  (id, kind, latitude, longitude, radius_m, filters, adr, occupancy, listings, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// One row per (filters, kind); repeated misses bump the counter.
const insertMissSQL = `
INSERT INTO fetch_misses (filters_hash, kind, filters, reason)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  hits    = hits + 1,
  reason  = VALUES(reason),
  seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; an empty kind matches every kind.
const listSnapshotsSQL = `
SELECT id, kind, filters, adr, occupancy, listings, created_at
FROM snapshots
WHERE (? = '' OR kind = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?
`
