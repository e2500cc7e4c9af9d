package postgres

import "github.com/tagql/tagql/tagql/storage"

var SQLTemplates = storage.SQL{
	UpsertItem: `INSERT INTO items (path, name, is_dir, size, modified_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (path) DO UPDATE SET
	name = excluded.name,
	is_dir = excluded.is_dir,
	size = excluded.size,
	modified_at = excluded.modified_at
RETURNING id`,

	DeleteItem:    `DELETE FROM items WHERE path = $1`,
	GetItemByPath: `SELECT id, path, name, is_dir, size, modified_at, created_at FROM items WHERE path = $1`,
	ListItemPaths: `SELECT path FROM items ORDER BY path`,

	EnsureGroup: `INSERT INTO tag_groups (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
	GetGroupID:  `SELECT id FROM tag_groups WHERE name = $1`,
	EnsureTag:   `INSERT INTO tags (group_id, value) VALUES ($1, $2) ON CONFLICT (group_id, value) DO NOTHING`,
	GetTagID:    `SELECT id FROM tags WHERE group_id = $1 AND value = $2`,

	TagItem:    `INSERT INTO item_tags (item_id, tag_id) VALUES ($1, $2) ON CONFLICT (item_id, tag_id) DO NOTHING`,
	UntagItem:  `DELETE FROM item_tags WHERE item_id = $1 AND tag_id = $2`,
	ClearTags:  `DELETE FROM item_tags WHERE item_id = $1`,
	ItemTagIDs: `SELECT tag_id FROM item_tags WHERE item_id = $1 ORDER BY tag_id`,

	ListGroups: `SELECT id, name FROM tag_groups ORDER BY name`,
	ListTags:   `SELECT id, group_id, value FROM tags ORDER BY group_id, value`,
	TagCounts: `SELECT g.name, t.value, COUNT(it.item_id)
FROM tags t
JOIN tag_groups g ON g.id = t.group_id
LEFT JOIN item_tags it ON it.tag_id = t.id
GROUP BY t.id, g.name, t.value
ORDER BY g.name, t.value`,
}
