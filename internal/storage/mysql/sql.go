package mysql

const upsertContentSQL = `
INSERT INTO properties
  (id, name, content, fetched_at)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  content    = VALUES(content),
  fetched_at = VALUES(fetched_at),
  updated_at = CURRENT_TIMESTAMP
`

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

const getContentSQL = `
SELECT id, name, content, fetched_at
FROM properties
WHERE id = ?
`

// Keyset pagination on the primary key; the cursor is the last id seen.
const listPropertiesSQL = `
SELECT id, name, fetched_at
FROM properties
WHERE id > ?
ORDER BY id
LIMIT ?
`
