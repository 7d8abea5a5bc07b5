package repository

import (
	"context"
	"strings"

	"backoffice/internal/listing"
	"backoffice/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes a search term match literally inside a LIKE pattern. The
// escape character is '!' because backslash is itself an escape in MySQL
// string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type PlayerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// List pages players, newest first. Search is matched case-insensitively by the
// database against name, username and email.
func (r *PlayerRepository) List(ctx context.Context, q listing.Query) (listing.Page[models.Player], error) {
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}
	scope := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&models.Player{})
		if len(q.Teams) > 0 {
			tx = tx.Where("LOWER(team) IN ?", lowerAll(q.Teams))
		}
		if q.Team != "" {
			tx = tx.Where("LOWER(team) = ?", strings.ToLower(q.Team))
		}
		if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
			like := "%" + likeEscaper.Replace(term) + "%"
			tx = tx.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(username) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'", like, like, like)
		}
		return tx
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return listing.Page[models.Player]{}, err
	}
	var players []models.Player
	err := scope().Order("created_at DESC, id DESC").Offset(listing.Offset(page, size)).Limit(size).Find(&players).Error
	if err != nil {
		return listing.Page[models.Player]{}, err
	}
	return listing.NewPage(players, total, page, size), nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id uint) (*models.Player, error) {
	var p models.Player
	err := r.db.WithContext(ctx).
		Preload("PlatformUsernames", func(db *gorm.DB) *gorm.DB { return db.Order("platform ASC") }).
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpsertPlatformUsername sets the player's username on platform, creating the
// row if needed.
func (r *PlayerRepository) UpsertPlatformUsername(ctx context.Context, playerID uint, platform, username string) (*models.PlatformUsername, error) {
	db := r.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Player{}).Where("id = ?", playerID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	pu := models.PlatformUsername{PlayerID: playerID, Platform: platform, Username: username}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(&pu).Error
	if err != nil {
		return nil, err
	}
	var saved models.PlatformUsername
	if err := db.Where("player_id = ? AND platform = ?", playerID, platform).First(&saved).Error; err != nil {
		return nil, notFound(err)
	}
	return &saved, nil
}
