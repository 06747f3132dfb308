// Package members is the member directory: lookup and creation of member
// rows, username generation and the registration flow.
package members

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	usernamePrefix      = "EWE"
	maxUsernameAttempts = 20

	// MinSearchLength is the shortest query Search answers.
	MinSearchLength  = 3
	maxSearchResults = 10
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type Directory struct {
	db           *gorm.DB
	rootUsername string
}

func NewDirectory(db *gorm.DB, rootUsername string) *Directory {
	return &Directory{db: db, rootUsername: rootUsername}
}

// WithTx returns a directory bound to tx.
func (d *Directory) WithTx(tx *gorm.DB) *Directory {
	return &Directory{db: tx, rootUsername: d.rootUsername}
}

// IsRoot reports whether m is the root sentinel.
func (d *Directory) IsRoot(m *models.Member) bool {
	return m.Username == d.rootUsername
}

func (d *Directory) Get(ctx context.Context, id uint) (*models.Member, error) {
	var m models.Member
	if err := d.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("member %d not found", id))
	}
	return &m, nil
}

func (d *Directory) GetByUsername(ctx context.Context, username string) (*models.Member, error) {
	var m models.Member
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&m).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("member %q not found", username))
	}
	return &m, nil
}

func (d *Directory) GetByUserID(ctx context.Context, userID uint) (*models.Member, error) {
	var m models.Member
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("member for user %d not found", userID))
	}
	return &m, nil
}

// Root returns the root sentinel member.
func (d *Directory) Root(ctx context.Context) (*models.Member, error) {
	return d.GetByUsername(ctx, d.rootUsername)
}

// Create inserts m. Username and mobile number must be unused.
func (d *Directory) Create(ctx context.Context, m *models.Member) error {
	db := d.db.WithContext(ctx)

	q := db.Model(&models.Member{}).Where("username = ?", m.Username)
	if m.MobileNo != nil {
		q = q.Or("mobile_no = ?", *m.MobileNo)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check existing member: %w", err)
	}
	if count > 0 {
		return apperrors.New(apperrors.CodeDuplicateMember,
			fmt.Sprintf("member with username %q or the same mobile number already exists", m.Username))
	}

	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// Activate marks the member Active. It reports whether the status changed.
func (d *Directory) Activate(ctx context.Context, id uint) (bool, error) {
	res := d.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ? AND status = ?", id, models.StatusInactive).
		Update("status", models.StatusActive)
	if res.Error != nil {
		return false, fmt.Errorf("activate member %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// List returns members newest first.
func (d *Directory) List(ctx context.Context, limit, offset int) ([]models.Member, error) {
	var out []models.Member
	if err := d.db.WithContext(ctx).
		Order("joined_on DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}

// SearchResult is a member matched by Search.
type SearchResult struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Search returns up to limit members whose username contains q, ignoring case.
// Queries shorter than MinSearchLength match nothing.
func (d *Directory) Search(ctx context.Context, q string, limit int) ([]SearchResult, error) {
	out := []SearchResult{}
	q = strings.TrimSpace(q)
	if len(q) < MinSearchLength {
		return out, nil
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	err := d.db.WithContext(ctx).Table("members").
		Select("members.username, COALESCE(users.first_name, '') AS first_name, COALESCE(users.last_name, '') AS last_name").
		Joins("LEFT JOIN users ON users.id = members.user_id AND users.deleted_at IS NULL").
		Where(`LOWER(members.username) LIKE ? ESCAPE '\'`, pattern).
		Order("members.username").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	return out, nil
}

// GenerateUsername returns an unused username of the form EWE + 6 digits.
func (d *Directory) GenerateUsername(ctx context.Context) (string, error) {
	for i := 0; i < maxUsernameAttempts; i++ {
		candidate := fmt.Sprintf("%s%06d", usernamePrefix, rand.Intn(1000000))

		var count int64
		if err := d.db.WithContext(ctx).Model(&models.Member{}).
			Where("username = ?", candidate).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free username after %d attempts", maxUsernameAttempts)
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.CodeMemberNotFound, message, err)
	}
	return fmt.Errorf("load member: %w", err)
}
