package members

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"
	"binarymlm-go/tree"

	"gorm.io/gorm"
)

// NewMember is a validated sign-up. PasswordHash is already hashed.
type NewMember struct {
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	MobileNo        string
	Username        string
	SponsorUsername string
	Position        models.Position
	IsAdmin         bool
}

type Registration struct {
	User      models.User     `json:"user"`
	Member    models.Member   `json:"member"`
	Placement *tree.Placement `json:"placement"`
}

// Notifier tells a new member they have joined.
type Notifier interface {
	Welcome(ctx context.Context, user *models.User, member *models.Member) error
}

// LogNotifier writes welcome notices to the log.
type LogNotifier struct{}

func (LogNotifier) Welcome(_ context.Context, user *models.User, member *models.Member) error {
	log.Printf("[members] welcome %s %s (%s), username %s", user.FirstName, user.LastName, user.Email, member.Username)
	return nil
}

type Registrar struct {
	db       *gorm.DB
	dir      *Directory
	notifier Notifier
}

func NewRegistrar(db *gorm.DB, dir *Directory, notifier Notifier) *Registrar {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Registrar{db: db, dir: dir, notifier: notifier}
}

// Register creates the user and member and places the member in the
// sponsor's leg, all in one transaction. An empty sponsor means the root
// sentinel; an empty position means Left.
func (r *Registrar) Register(ctx context.Context, in NewMember) (*Registration, error) {
	side := in.Position
	if side == "" {
		side = models.PositionLeft
	}
	if !side.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidSide, fmt.Sprintf("invalid position %q", in.Position))
	}

	var reg Registration
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dir := r.dir.WithTx(tx)

		var sponsor *models.Member
		var err error
		if strings.TrimSpace(in.SponsorUsername) == "" {
			sponsor, err = dir.Root(ctx)
		} else {
			sponsor, err = dir.GetByUsername(ctx, strings.TrimSpace(in.SponsorUsername))
		}
		if err != nil {
			if errors.Is(err, apperrors.ErrMemberNotFound) {
				return apperrors.Wrap(apperrors.CodeSponsorNotFound,
					fmt.Sprintf("sponsor %q not found", in.SponsorUsername), err)
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return apperrors.New(apperrors.CodeDuplicateMember, fmt.Sprintf("email %s is already registered", in.Email))
		}

		username := in.Username
		if username == "" {
			if username, err = dir.GenerateUsername(ctx); err != nil {
				return err
			}
		}

		reg.User = models.User{
			Email:     in.Email,
			Password:  in.PasswordHash,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			IsActive:  true,
			IsAdmin:   in.IsAdmin,
		}
		if err := tx.Create(&reg.User).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		reg.Member = models.Member{
			Username:  username,
			UserID:    &reg.User.ID,
			SponsorID: &sponsor.ID,
			Status:    models.StatusInactive,
		}
		if in.MobileNo != "" {
			mobile := in.MobileNo
			reg.Member.MobileNo = &mobile
		}
		if err := dir.Create(ctx, &reg.Member); err != nil {
			return err
		}

		if reg.Placement, err = tree.NewPlacer(tx).Place(ctx, sponsor.ID, reg.Member.ID, side); err != nil {
			return err
		}
		reg.Member.ParentID = &reg.Placement.ParentID
		reg.Member.Position = side
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[members] registered %s under sponsor %q, parent %d (%s)",
		reg.Member.Username, in.SponsorUsername, reg.Placement.ParentID, side)

	if err := r.notifier.Welcome(ctx, &reg.User, &reg.Member); err != nil {
		log.Printf("[members] welcome notice for %s failed: %v", reg.Member.Username, err)
	}
	return &reg, nil
}
