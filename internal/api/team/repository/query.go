package teamRepository

const (
	queryGetAvailableAgent = `
		SELECT
			id, user_id, name, email, specializations, is_available,
			active_load, max_load, created_at, updated_at
		FROM agents
		WHERE user_id = :user_id
			AND is_available = TRUE
			AND active_load < max_load
			AND (:specialization = '' OR :specialization = ANY(specializations))
		ORDER BY active_load ASC, updated_at ASC
		LIMIT 1
	`

	queryIncrementAgentLoad = `
		UPDATE agents
		SET
			active_load = active_load + 1,
			updated_at = NOW()
		WHERE id = :id
	`

	queryCreateAssignment = `
		INSERT INTO agent_assignments (
			id, agent_id, conversation_id, session_id, assigned_at
		) VALUES (
			:id, :agent_id, :conversation_id, :session_id, :assigned_at
		)
	`
)
