package postgres

const ddlBase = `
CREATE TABLE IF NOT EXISTS items (
	id          BIGSERIAL PRIMARY KEY,
	path        TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	is_dir      BOOLEAN NOT NULL DEFAULT FALSE,
	size        BIGINT,
	modified_at BIGINT NOT NULL,
	created_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS tag_groups (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tags (
	id       BIGSERIAL PRIMARY KEY,
	group_id BIGINT NOT NULL REFERENCES tag_groups(id) ON DELETE CASCADE,
	value    TEXT NOT NULL,
	UNIQUE(group_id, value)
);

CREATE TABLE IF NOT EXISTS item_tags (
	item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
	tag_id  BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (item_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);
CREATE INDEX IF NOT EXISTS idx_items_modified ON items(modified_at);
CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id, item_id);
`
