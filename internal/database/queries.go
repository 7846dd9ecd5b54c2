package database

// Pending question queries
const (
	InsertPendingQuestionQuery = `
		INSERT INTO pending_questions (
			id, category, question_text, timestamp
		) VALUES (?, ?, ?, ?)
	`

	SelectAllPendingQuestionsQuery = `
		SELECT id, category, question_text, timestamp
		FROM pending_questions
		ORDER BY timestamp ASC
	`

	SelectPendingQuestionByIDQuery = `
		SELECT id, category, question_text, timestamp
		FROM pending_questions
		WHERE id = ?
	`

	UpdatePendingQuestionQuery = `
		UPDATE pending_questions
		SET category = ?, question_text = ?
		WHERE id = ?
	`

	DeletePendingQuestionQuery = `
		DELETE FROM pending_questions
		WHERE id = ?
	`

	DeleteAllPendingQuestionsQuery = `
		DELETE FROM pending_questions
	`

	CountPendingQuestionsQuery = `
		SELECT COUNT(*) FROM pending_questions
	`
)
