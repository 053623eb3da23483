package database

import (
	"gorm.io/gorm"

	"github.com/agoralabs/agora/internal/models"
)

// AutoMigrate creates or updates the database schema for all models. The
// unique indexes declared on the models back the API's idempotency
// guarantees (one participant per identity, one vote per ballot, unique
// email and invite code), so migration must run before serving requests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.PasswordResetToken{},
		&models.Conversation{},
		&models.ConversationInvite{},
		&models.Participant{},
		&models.Comment{},
		&models.Vote{},
	)
}
