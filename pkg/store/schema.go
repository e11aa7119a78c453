package store

// Schema DDL. Entities share a single table with a type discriminator; the
// placement and scheduling columns piggyback on the entity row itself, so
// clearing a placement is a field update, never a row delete. The links
// table enforces 5-tuple uniqueness at the engine level, which is what makes
// check-then-insert atomic.
const (
	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    flow_x REAL,
    flow_y REAL,
    scheduled_date TEXT,
    scheduled_time TEXT,
    project_ids TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);`

	createEntitiesTypeIndex = `CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);`

	createLinks = `CREATE TABLE IF NOT EXISTS links (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_type TEXT NOT NULL,
    source_id INTEGER NOT NULL,
    target_type TEXT NOT NULL,
    target_id INTEGER NOT NULL,
    relationship TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE(source_type, source_id, target_type, target_id, relationship)
);`

	createLinksSourceIndex = `CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_type, source_id);`
	createLinksTargetIndex = `CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_type, target_id);`

	createBOMLines = `CREATE TABLE IF NOT EXISTS bom_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    inventory_id INTEGER NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);`

	createBOMProjectIndex = `CREATE INDEX IF NOT EXISTS idx_bom_project ON bom_lines(project_id);`
)

// schemaStatements lists every DDL statement executed on open, in order.
var schemaStatements = []string{
	createEntities,
	createEntitiesTypeIndex,
	createLinks,
	createLinksSourceIndex,
	createLinksTargetIndex,
	createBOMLines,
	createBOMProjectIndex,
}
