package implementation

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/model"
	"mindstorm-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	pool := database.DefaultPoolConfig()
	pool.Quiet = true
	db, err := database.NewGormDBFromDSN(dsn, pool)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error)
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func newActiveSession(t *testing.T, db *gorm.DB) *entity.Session {
	t.Helper()
	session := &entity.Session{
		Id:        uuid.New(),
		Title:     "Launch ideas",
		Slug:      uuid.NewString()[:10],
		Status:    entity.SessionStatusActive,
		CreatorId: uuid.New(),
		CreatedAt: time.Now(),
	}
	require.NoError(t, NewSessionRepository(db).Create(context.Background(), session))
	t.Cleanup(func() { db.Where("id = ?", session.Id).Delete(&model.Session{}) })
	return session
}

func TestMarkEndedOnlyOnce(t *testing.T) {
	db := setupDB(t)
	repo := NewSessionRepository(db)
	session := newActiveSession(t, db)
	ctx := context.Background()

	ended, err := repo.MarkEnded(ctx, session.Id, time.Now())
	require.NoError(t, err)
	assert.True(t, ended)

	ended, err = repo.MarkEnded(ctx, session.Id, time.Now())
	require.NoError(t, err)
	assert.False(t, ended)
}

func TestTriggerClaimHasOneWinner(t *testing.T) {
	db := setupDB(t)
	repo := NewSessionTriggerRepository(db)
	session := newActiveSession(t, db)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.Claim(ctx, session.Id, "alignment")
			assert.NoError(t, err)
			if claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)

	keys, err := repo.Keys(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"alignment"}, keys)
}
