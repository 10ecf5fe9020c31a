// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	enqueueAction = `
		INSERT INTO actions (
			id,
			type,
			target_endpoint,
			method,
			payload,
			created_at,
			retry_count,
			idempotency_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	listActions = `
		SELECT
			id,
			type,
			target_endpoint,
			method,
			payload,
			created_at,
			retry_count,
			idempotency_key
		FROM actions
		ORDER BY seq ASC;`

	removeAction = `
		DELETE FROM actions
		WHERE id = $1;`

	updateActionRetryCount = `
		UPDATE actions
		SET retry_count = $1
		WHERE id = $2;`

	countActions = `
		SELECT COUNT(*) FROM actions;`

	getSyncMarker = `
		SELECT
			resource,
			value,
			updated_at
		FROM sync_markers
		WHERE resource = $1;`

	upsertSyncMarker = `
		INSERT INTO sync_markers (resource, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (resource) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at;`
)
