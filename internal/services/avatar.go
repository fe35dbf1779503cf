package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

const avatarSize = 512

type AvatarService interface {
	// UploadInitials renders the user's initials and stores them. It returns the object key and URL.
	UploadInitials(ctx context.Context, user *types.User) (string, string, error)
	// UploadImage crops raw into a circle and stores it.
	UploadImage(ctx context.Context, user *types.User, raw []byte) (string, string, error)
	RenderInitials(user *types.User) (*bytes.Buffer, error)
	Delete(ctx context.Context, key string)
}

type avatarService struct {
	log      *logger.Logger
	bucket   gcp.BucketService
	palette  []color.NRGBA
	fontFace font.Face
}

var defaultAvatarPalette = []color.NRGBA{
	{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF},
	{R: 0x43, G: 0xA0, B: 0x47, A: 0xFF},
	{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF},
	{R: 0x8E, G: 0x24, B: 0xAA, A: 0xFF},
	{R: 0xFB, G: 0x8C, B: 0x00, A: 0xFF},
	{R: 0x00, G: 0x89, B: 0x7B, A: 0xFF},
	{R: 0x39, G: 0x49, B: 0xAB, A: 0xFF},
	{R: 0x6D, G: 0x4C, B: 0x41, A: 0xFF},
}

func NewAvatarService(log *logger.Logger, bucket gcp.BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontBytes := goregular.TTF
	if path := strings.TrimSpace(os.Getenv("AVATAR_FONT")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read avatar font: %w", err)
		}
		fontBytes = b
		serviceLog.Info("Loading avatar font", "font", path)
	}
	face, err := loadFontFace(fontBytes, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}
	return &avatarService{
		log:      serviceLog,
		bucket:   bucket,
		palette:  defaultAvatarPalette,
		fontFace: face,
	}, nil
}

func (as *avatarService) UploadInitials(ctx context.Context, user *types.User) (string, string, error) {
	buf, err := as.RenderInitials(user)
	if err != nil {
		return "", "", err
	}
	return as.upload(ctx, user, buf)
}

func (as *avatarService) UploadImage(ctx context.Context, user *types.User, raw []byte) (string, string, error) {
	buf, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return "", "", apierr.BadRequest("Invalid image file")
	}
	return as.upload(ctx, user, buf)
}

func (as *avatarService) upload(ctx context.Context, user *types.User, buf *bytes.Buffer) (string, string, error) {
	// Versioned key so caches never serve a stale avatar.
	key := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())
	if err := as.bucket.UploadFile(ctx, gcp.BucketCategoryAvatar, key, bytes.NewReader(buf.Bytes())); err != nil {
		return "", "", fmt.Errorf("failed to upload user avatar: %w", err)
	}
	return key, as.bucket.GetPublicURL(gcp.BucketCategoryAvatar, key), nil
}

func (as *avatarService) Delete(ctx context.Context, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	deleteObjects(ctx, as.bucket, as.log, []objectRef{{category: gcp.BucketCategoryAvatar, key: key}})
}

func (as *avatarService) RenderInitials(user *types.User) (*bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)
	dc.DrawCircle(avatarSize/2, avatarSize/2, avatarSize/2)
	dc.Clip()

	dc.SetColor(as.colorFor(user))
	dc.DrawRectangle(0, 0, avatarSize, avatarSize)
	dc.Fill()

	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(user.FirstName, user.LastName), avatarSize/2, avatarSize/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return &buf, nil
}

// colorFor is stable per user so re-rendering keeps the same background.
func (as *avatarService) colorFor(user *types.User) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write(user.ID[:])
	return as.palette[int(h.Sum32()%uint32(len(as.palette)))]
}

func processUploadedAvatar(raw []byte, size int) (*bytes.Buffer, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropped := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(cropped, cropped.Bounds(), img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &out, nil
}

func computeInitials(first, last string) string {
	initial := func(s string) string {
		for _, r := range strings.TrimSpace(s) {
			return string(unicode.ToUpper(r))
		}
		return "?"
	}
	return initial(first) + initial(last)
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
