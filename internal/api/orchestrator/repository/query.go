package orchestratorRepository

const (
	queryCreateSession = `
		INSERT INTO conversation_sessions (
			id, user_id, conversation_id, customer_id, customer_name,
			customer_phone, mode, status, language, voice_config,
			context, started_at, message_count, voice_message_count
		) VALUES (
			:id, :user_id, :conversation_id, :customer_id, :customer_name,
			:customer_phone, :mode, :status, :language, :voice_config,
			:context, :started_at, :message_count, :voice_message_count
		)
	`

	queryGetSessionByID = `
		SELECT
			id, user_id, conversation_id, customer_id, customer_name,
			customer_phone, mode, status, language, voice_config,
			context, started_at, ended_at, end_reason, total_duration,
			message_count, voice_message_count
		FROM conversation_sessions
		WHERE id = :id
	`

	queryUpdateSessionStatus = `
		UPDATE conversation_sessions
		SET status = :status
		WHERE id = :id
	`

	queryUpdateSessionCounters = `
		UPDATE conversation_sessions
		SET
			message_count = :message_count,
			voice_message_count = :voice_message_count
		WHERE id = :id
	`

	queryCloseSession = `
		UPDATE conversation_sessions
		SET
			status = 'ended',
			ended_at = :ended_at,
			end_reason = :end_reason,
			total_duration = :total_duration
		WHERE id = :id
	`

	queryGetCustomerByID = `
		SELECT
			id, user_id, name, phone, email, language, metadata,
			created_at, updated_at
		FROM customers
		WHERE id = :id
	`

	queryCreateTask = `
		INSERT INTO tasks (
			id, user_id, customer_id, session_id, title, description,
			category, status, due_at, created_at, updated_at
		) VALUES (
			:id, :user_id, :customer_id, :session_id, :title, :description,
			:category, :status, :due_at, :created_at, :updated_at
		)
	`

	queryCreateCallback = `
		INSERT INTO callbacks (
			id, user_id, customer_id, session_id, customer_phone,
			reason, status, scheduled_at, created_at
		) VALUES (
			:id, :user_id, :customer_id, :session_id, :customer_phone,
			:reason, :status, :scheduled_at, :created_at
		)
	`
)
