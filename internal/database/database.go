package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"fatwabox/internal/errors"
	"fatwabox/internal/migrations"
	"fatwabox/internal/models"
	"fatwabox/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the local durable store for pending questions. Records survive
// process restarts and each operation is a single atomic statement or
// transaction, so a crash never leaves a half-written record behind.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := migrations.GetInitialSchema()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to read schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	encryptor, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: encryptor}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// SavePendingQuestion inserts a new pending question. The id is assigned by
// the queue manager; inserting an id that already exists fails with
// DUPLICATE_ID rather than overwriting the queued record.
func (d *Database) SavePendingQuestion(ctx context.Context, q *models.PendingQuestion) error {
	encryptedCategory, err := d.encryptor.EncryptIfEnabled(q.Category)
	if err != nil {
		return fmt.Errorf("failed to encrypt category: %w", err)
	}

	encryptedText, err := d.encryptor.EncryptIfEnabled(q.QuestionText)
	if err != nil {
		return fmt.Errorf("failed to encrypt question text: %w", err)
	}

	err = retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, InsertPendingQuestionQuery,
			q.ID, encryptedCategory, encryptedText, q.Timestamp)
		return execErr
	}, "save pending question")

	if err != nil {
		if isDuplicateKeyError(err) {
			return errors.Wrap(err, errors.ErrCodeDuplicateID, "pending question id already exists").
				WithContext("question_id", q.ID)
		}
		return errors.NewPersistenceError("save", err)
	}

	return nil
}

// GetAllPendingQuestions returns every queued question ordered by creation
// timestamp. The order is for display and flush enumeration; the store itself
// guarantees nothing beyond it.
func (d *Database) GetAllPendingQuestions(ctx context.Context) ([]models.PendingQuestion, error) {
	rows, err := d.db.QueryContext(ctx, SelectAllPendingQuestionsQuery)
	if err != nil {
		return nil, errors.NewPersistenceError("list", err)
	}
	defer rows.Close()

	var questions []models.PendingQuestion
	for rows.Next() {
		var q models.PendingQuestion
		var encryptedCategory, encryptedText string

		if err := rows.Scan(&q.ID, &encryptedCategory, &encryptedText, &q.Timestamp); err != nil {
			return nil, errors.NewPersistenceError("list", err)
		}

		q.Category, err = d.encryptor.DecryptIfEnabled(encryptedCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt category: %w", err)
		}

		q.QuestionText, err = d.encryptor.DecryptIfEnabled(encryptedText)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt question text: %w", err)
		}

		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("list", err)
	}

	return questions, nil
}

// UpdatePendingQuestion shallow-merges the given fields into an existing
// record inside a single transaction. Returns NOT_FOUND when the id is absent
// (for example when the sync engine already relayed and removed it).
func (d *Database) UpdatePendingQuestion(ctx context.Context, id string, update models.QuestionUpdate) error {
	return retryableDBOperation(ctx, func() error {
		tx, err := d.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var q models.PendingQuestion
		var encryptedCategory, encryptedText string
		err = tx.QueryRowContext(ctx, SelectPendingQuestionByIDQuery, id).Scan(
			&q.ID, &encryptedCategory, &encryptedText, &q.Timestamp)
		if err == sql.ErrNoRows {
			return errors.New(errors.ErrCodeNotFound, "no pending question with this id").
				WithContext("question_id", id)
		}
		if err != nil {
			return fmt.Errorf("failed to load pending question: %w", err)
		}

		q.Category, err = d.encryptor.DecryptIfEnabled(encryptedCategory)
		if err != nil {
			return fmt.Errorf("failed to decrypt category: %w", err)
		}
		q.QuestionText, err = d.encryptor.DecryptIfEnabled(encryptedText)
		if err != nil {
			return fmt.Errorf("failed to decrypt question text: %w", err)
		}

		if update.Category != nil {
			q.Category = *update.Category
		}
		if update.QuestionText != nil {
			q.QuestionText = *update.QuestionText
		}

		encryptedCategory, err = d.encryptor.EncryptIfEnabled(q.Category)
		if err != nil {
			return fmt.Errorf("failed to encrypt category: %w", err)
		}
		encryptedText, err = d.encryptor.EncryptIfEnabled(q.QuestionText)
		if err != nil {
			return fmt.Errorf("failed to encrypt question text: %w", err)
		}

		if _, err := tx.ExecContext(ctx, UpdatePendingQuestionQuery, encryptedCategory, encryptedText, id); err != nil {
			return fmt.Errorf("failed to update pending question: %w", err)
		}

		return tx.Commit()
	}, "update pending question")
}

// DeletePendingQuestion removes one record. Deleting an absent id is a no-op,
// not an error, so removal is idempotent.
func (d *Database) DeletePendingQuestion(ctx context.Context, id string) error {
	err := retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, DeletePendingQuestionQuery, id)
		return execErr
	}, "delete pending question")
	if err != nil {
		return errors.NewPersistenceError("delete", err)
	}
	return nil
}

// DeleteAllPendingQuestions clears the queue.
func (d *Database) DeleteAllPendingQuestions(ctx context.Context) error {
	err := retryableDBOperation(ctx, func() error {
		_, execErr := d.db.ExecContext(ctx, DeleteAllPendingQuestionsQuery)
		return execErr
	}, "clear pending questions")
	if err != nil {
		return errors.NewPersistenceError("clear", err)
	}
	return nil
}

// CountPendingQuestions returns the number of queued records.
func (d *Database) CountPendingQuestions(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, CountPendingQuestionsQuery).Scan(&count)
	if err != nil {
		return 0, errors.NewPersistenceError("count", err)
	}
	return count, nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "PRIMARY KEY constraint")
}
