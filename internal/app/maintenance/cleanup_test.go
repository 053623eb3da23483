package maintenance

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/agoralabs/agora/internal/auth"
	"github.com/agoralabs/agora/internal/database/testutil"
	"github.com/agoralabs/agora/internal/models"
	"github.com/agoralabs/agora/pkg/crypto"
)

func newCleanupFixture(t *testing.T, clock func() time.Time) (*gorm.DB, *iauth.SessionService, *iauth.CredentialService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:   "test-secret",
		Issuer:   "agora",
		TokenTTL: time.Hour,
		Clock:    clock,
	})
	require.NoError(t, err)

	sessions, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{Clock: clock})
	require.NoError(t, err)

	credentials, err := iauth.NewCredentialService(db, sessions, iauth.CredentialConfig{Clock: clock})
	require.NoError(t, err)

	return db, sessions, credentials
}

func seedCleanupUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("pw123456")
	require.NoError(t, err)

	user := &models.User{Email: email, Password: hashed, HName: "Cleanup User", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRunOnceSweepsExpiredRows(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	db, sessions, credentials := newCleanupFixture(t, func() time.Time { return now })

	user := seedCleanupUser(t, db, "cleanup@example.com")

	expiredSession := models.UserSession{
		UID:        user.UID,
		TokenHash:  "hash-expired",
		ExpiresAt:  now.Add(-time.Minute),
		LastUsedAt: now.Add(-2 * time.Hour),
	}
	liveSession := models.UserSession{
		UID:        user.UID,
		TokenHash:  "hash-live",
		ExpiresAt:  now.Add(time.Hour),
		LastUsedAt: now,
	}
	require.NoError(t, db.Create(&expiredSession).Error)
	require.NoError(t, db.Create(&liveSession).Error)

	expiredReset := models.PasswordResetToken{
		UID:       user.UID,
		TokenHash: "reset-expired",
		ExpiresAt: now.Add(-time.Minute),
	}
	liveReset := models.PasswordResetToken{
		UID:       user.UID,
		TokenHash: "reset-live",
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, db.Create(&expiredReset).Error)
	require.NoError(t, db.Create(&liveReset).Error)

	cleaner := NewCleaner(sessions, credentials)
	require.NoError(t, cleaner.RunOnce())

	var sessionCount int64
	require.NoError(t, db.Model(&models.UserSession{}).Count(&sessionCount).Error)
	require.EqualValues(t, 1, sessionCount)

	var remaining models.UserSession
	require.NoError(t, db.Take(&remaining, "id = ?", liveSession.ID).Error)

	var resetCount int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&resetCount).Error)
	require.EqualValues(t, 1, resetCount)

	var keptReset models.PasswordResetToken
	require.NoError(t, db.Take(&keptReset, "token_hash = ?", "reset-live").Error)
}

func TestRunOnceWithNilDependencies(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.RunOnce())
	require.NoError(t, cleaner.Start())
}

func TestStartRegistersScheduledJobs(t *testing.T) {
	_, sessions, credentials := newCleanupFixture(t, time.Now)

	scheduler := cron.New(cron.WithLogger(cron.DiscardLogger))
	cleaner := NewCleaner(sessions, credentials,
		WithCron(scheduler),
		WithSessionSchedule("@every 1m"),
		WithTokenSchedule("@every 5m"),
	)

	require.NoError(t, cleaner.Start())
	require.Len(t, scheduler.Entries(), 2)

	ctx := cleaner.Stop()
	<-ctx.Done()
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	_, sessions, credentials := newCleanupFixture(t, time.Now)

	cleaner := NewCleaner(sessions, credentials, WithSessionSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}
