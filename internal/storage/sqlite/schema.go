package sqlite

const schema = `
-- Tracker integrations: one row per (workspace, provider)
CREATE TABLE IF NOT EXISTS integrations (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    domain TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    api_token TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (workspace_id, provider)
);

-- External project mappings. The UNIQUE constraint is the concurrency
-- guard for project identity: racing imports lose with a benign conflict.
CREATE TABLE IF NOT EXISTS external_project_mappings (
    id TEXT PRIMARY KEY,
    integration_id TEXT NOT NULL REFERENCES integrations(id),
    external_project_id TEXT NOT NULL,
    space_id TEXT NOT NULL,
    project_id TEXT,
    meta TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    UNIQUE (integration_id, external_project_id)
);

CREATE TABLE IF NOT EXISTS spaces (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    space_id TEXT NOT NULL REFERENCES spaces(id),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    external_id TEXT,
    external_key TEXT,
    external_data TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_space ON projects(space_id);

CREATE TABLE IF NOT EXISTS statuses (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT 'gray',
    scope TEXT NOT NULL DEFAULT 'space',
    space_id TEXT,
    project_id TEXT,
    position INTEGER NOT NULL DEFAULT 0,
    external_id TEXT UNIQUE,
    external_data TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_statuses_space ON statuses(space_id);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL CHECK(length(name) <= 500),
    description TEXT NOT NULL DEFAULT '',
    status_id TEXT NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium',
    parent_task_id TEXT REFERENCES tasks(id),
    project_id TEXT NOT NULL,
    space_id TEXT NOT NULL,
    external_id TEXT UNIQUE,
    external_data TEXT NOT NULL DEFAULT '',
    sync_status TEXT NOT NULL DEFAULT 'unsynced',
    last_synced_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_space ON tasks(space_id);
`
