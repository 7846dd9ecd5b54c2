package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"fatwabox/internal/errors"
	"fatwabox/internal/migrations"
	"fatwabox/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestMigrations writes the initial schema into a temp migrations dir
func setupTestMigrations(t *testing.T, tmpDir string) string {
	migrationsPath := filepath.Join(tmpDir, "migrations")
	err := os.MkdirAll(migrationsPath, 0755)
	require.NoError(t, err)

	schemaContent := `-- Initial schema for the fatwabox offline question queue
CREATE TABLE IF NOT EXISTS pending_questions (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    question_text TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pending_questions_timestamp ON pending_questions(timestamp);

CREATE TRIGGER IF NOT EXISTS pending_questions_updated_at
AFTER UPDATE ON pending_questions
BEGIN
    UPDATE pending_questions SET updated_at = CURRENT_TIMESTAMP
    WHERE id = NEW.id;
END;`

	err = os.WriteFile(filepath.Join(migrationsPath, "001_initial_schema.sql"), []byte(schemaContent), 0644)
	require.NoError(t, err)

	return migrationsPath
}

func setupTestDB(t *testing.T) (*Database, func()) {
	tmpDir, err := os.MkdirTemp("", "fatwabox-db-test")
	require.NoError(t, err)

	migrationsPath := setupTestMigrations(t, tmpDir)
	originalMigrationsDir := migrations.MigrationsDir
	migrations.MigrationsDir = migrationsPath

	dbPath := filepath.Join(tmpDir, "queue.db")
	db, err := New(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Close()
		_ = os.RemoveAll(tmpDir)
		migrations.MigrationsDir = originalMigrationsDir
	}

	return db, cleanup
}

func testQuestion(id string, ts int64) *models.PendingQuestion {
	return &models.PendingQuestion{
		ID:           id,
		Category:     "zakat",
		QuestionText: "Is X permissible?",
		Timestamp:    ts,
	}
}

func TestNew(t *testing.T) {
	t.Run("invalid path", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})

	t.Run("traversal path rejected", func(t *testing.T) {
		_, err := New(filepath.Join("..", "queue.db"))
		assert.Error(t, err)
	})

	t.Run("creates database and schema", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		count, err := db.CountPendingQuestions(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestSavePendingQuestion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	q := testQuestion("offline-1712000000000-abc123", 1712000000000)
	require.NoError(t, db.SavePendingQuestion(ctx, q))

	stored, err := db.GetAllPendingQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, *q, stored[0])

	t.Run("duplicate id fails", func(t *testing.T) {
		err := db.SavePendingQuestion(ctx, q)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateID))

		// the original record is untouched
		stored, err := db.GetAllPendingQuestions(ctx)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}

func TestGetAllPendingQuestionsOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Insert out of timestamp order
	require.NoError(t, db.SavePendingQuestion(ctx, testQuestion("id-b", 200)))
	require.NoError(t, db.SavePendingQuestion(ctx, testQuestion("id-a", 100)))
	require.NoError(t, db.SavePendingQuestion(ctx, testQuestion("id-c", 300)))

	stored, err := db.GetAllPendingQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "id-a", stored[0].ID)
	assert.Equal(t, "id-b", stored[1].ID)
	assert.Equal(t, "id-c", stored[2].ID)
}

func TestUpdatePendingQuestion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	q := testQuestion("id-1", 100)
	require.NoError(t, db.SavePendingQuestion(ctx, q))

	t.Run("merges question text only", func(t *testing.T) {
		newText := "Is Y permissible instead?"
		err := db.UpdatePendingQuestion(ctx, "id-1", models.QuestionUpdate{QuestionText: &newText})
		require.NoError(t, err)

		stored, err := db.GetAllPendingQuestions(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, newText, stored[0].QuestionText)
		assert.Equal(t, "zakat", stored[0].Category)
		assert.Equal(t, int64(100), stored[0].Timestamp)
	})

	t.Run("merges category only", func(t *testing.T) {
		newCategory := "fasting"
		err := db.UpdatePendingQuestion(ctx, "id-1", models.QuestionUpdate{Category: &newCategory})
		require.NoError(t, err)

		stored, err := db.GetAllPendingQuestions(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "fasting", stored[0].Category)
		assert.Equal(t, "Is Y permissible instead?", stored[0].QuestionText)
	})

	t.Run("absent id fails with not found", func(t *testing.T) {
		text := "anything"
		err := db.UpdatePendingQuestion(ctx, "missing", models.QuestionUpdate{QuestionText: &text})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	})
}

func TestDeletePendingQuestion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SavePendingQuestion(ctx, testQuestion("id-1", 100)))

	require.NoError(t, db.DeletePendingQuestion(ctx, "id-1"))

	count, err := db.CountPendingQuestions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	t.Run("second delete is a no-op", func(t *testing.T) {
		assert.NoError(t, db.DeletePendingQuestion(ctx, "id-1"))
	})

	t.Run("deleting unknown id is a no-op", func(t *testing.T) {
		assert.NoError(t, db.DeletePendingQuestion(ctx, "never-existed"))
	})
}

func TestDeleteAllPendingQuestions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.SavePendingQuestion(ctx, testQuestion(fmt.Sprintf("id-%d", i), int64(i))))
	}

	require.NoError(t, db.DeleteAllPendingQuestions(ctx))

	count, err := db.CountPendingQuestions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	stored, err := db.GetAllPendingQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCountPendingQuestions(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.SavePendingQuestion(ctx, testQuestion(fmt.Sprintf("id-%d", i), int64(i))))

		count, err := db.CountPendingQuestions(ctx)
		require.NoError(t, err)
		assert.Equal(t, i+1, count)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fatwabox-db-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	migrationsPath := setupTestMigrations(t, tmpDir)
	originalMigrationsDir := migrations.MigrationsDir
	migrations.MigrationsDir = migrationsPath
	defer func() { migrations.MigrationsDir = originalMigrationsDir }()

	dbPath := filepath.Join(tmpDir, "queue.db")
	ctx := context.Background()

	db, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.SavePendingQuestion(ctx, testQuestion("survivor", 100)))
	require.NoError(t, db.Close())

	reopened, err := New(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	stored, err := reopened.GetAllPendingQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "survivor", stored[0].ID)
}
