package mysql

const insertRecordSQL = `
INSERT INTO records (id, kind, doc)
VALUES (?, ?, ?)
`

const getRecordSQL = `
SELECT id, doc
FROM records
WHERE kind = ? AND id = ?
`

// seq keeps insertion order; created_at alone ties within a second.
const listRecordsSQL = `
SELECT id, doc
FROM records
WHERE kind = ?
ORDER BY seq
`

const replaceRecordSQL = `
UPDATE records
SET doc = ?, updated_at = CURRENT_TIMESTAMP
WHERE kind = ? AND id = ?
`

const existsRecordSQL = `
SELECT 1 FROM records WHERE kind = ? AND id = ?
`
