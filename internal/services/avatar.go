package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/types"
	"github.com/wellbeam/burnout-backend/internal/utils"
)

const avatarSize = 512

// AvatarService renders an initials avatar for a user and stores it in
// the bucket. Optional feature: main wires it only when a font and a
// bucket are configured.
type AvatarService interface {
	CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error
}

type avatarService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	bucket   BucketService
	palette  []color.NRGBA
	fontFace font.Face
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, bucket BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")
	if bucket == nil {
		return nil, fmt.Errorf("avatar service requires a bucket")
	}

	fontPath := utils.GetEnv("AVATAR_FONT", "", log)
	if fontPath == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("load avatar font: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		userRepo: userRepo,
		bucket:   bucket,
		palette: []color.NRGBA{
			{R: 0x4C, G: 0x6E, B: 0xF5, A: 0xFF},
			{R: 0x16, G: 0xA3, B: 0x4A, A: 0xFF},
			{R: 0xD9, G: 0x77, B: 0x06, A: 0xFF},
			{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF},
			{R: 0x7C, G: 0x3A, B: 0xED, A: 0xFF},
			{R: 0x0D, G: 0x94, B: 0x88, A: 0xFF},
		},
		fontFace: face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}

	buf, err := as.renderInitialsAvatar(user)
	if err != nil {
		return err
	}

	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	newKey := fmt.Sprintf("user_avatar/%s/%d.png", user.ID, time.Now().UnixNano())

	if err := as.bucket.Upload(ctx, newKey, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("upload user avatar: %w", err)
	}
	user.AvatarBucketKey = newKey
	user.AvatarURL = as.bucket.PublicURL(newKey)

	if err := as.userRepo.UpdateAvatarFields(ctx, tx, user.ID, user.AvatarBucketKey, user.AvatarURL); err != nil {
		return fmt.Errorf("persist avatar fields: %w", err)
	}

	// Best effort, a stale object is not worth failing the request.
	if oldKey != "" && oldKey != newKey {
		if err := as.bucket.Delete(ctx, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) renderInitialsAvatar(user *types.User) (bytes.Buffer, error) {
	var buf bytes.Buffer

	bg := as.palette[paletteIndex(user.ID, len(as.palette))]
	dc := gg.NewContext(avatarSize, avatarSize)
	dc.SetColor(bg)
	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Fill()

	initials := computeInitials(user.FullName, user.Email)
	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	dc.SetColor(color.White)
	dc.DrawString(initials, avatarSize/2-tw/2, avatarSize/2+th/2-10)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("encode avatar png: %w", err)
	}
	return buf, nil
}

// paletteIndex derives a stable color choice from the user id, so the
// avatar background survives regeneration.
func paletteIndex(id uuid.UUID, n int) int {
	var sum int
	for _, b := range id {
		sum += int(b)
	}
	return sum % n
}

func computeInitials(fullName, email string) string {
	fields := strings.Fields(fullName)
	switch {
	case len(fields) >= 2:
		return upperFirst(fields[0]) + upperFirst(fields[len(fields)-1])
	case len(fields) == 1:
		return upperFirst(fields[0])
	case email != "":
		return upperFirst(email)
	default:
		return "?"
	}
}

func upperFirst(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}
