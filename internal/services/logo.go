package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"strings"
	"time"
	"unicode"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/queueflow-backend/internal/data/repos"
	types "github.com/yungbote/queueflow-backend/internal/domain"
	"github.com/yungbote/queueflow-backend/internal/platform/apierr"
	"github.com/yungbote/queueflow-backend/internal/platform/dbctx"
	"github.com/yungbote/queueflow-backend/internal/platform/gcp"
	"github.com/yungbote/queueflow-backend/internal/platform/logger"
)

const (
	logoSize       = 512
	maxLogoUpload  = 5 << 20
	logoFontPoints = 206
)

var defaultLogoColors = []string{
	"#1E88E5", "#43A047", "#E53935", "#8E24AA", "#FB8C00",
	"#00897B", "#3949AB", "#6D4C41", "#546E7A", "#D81B60",
}

// LogoService renders and stores branch logos.
type LogoService interface {
	// GenerateInitials renders the branch initials on the theme colour and stores it as the logo.
	GenerateInitials(ctx context.Context, branch *types.Branch, setting *types.Setting) (string, error)
	// UploadImage center-crops and re-encodes raw as a square PNG logo.
	UploadImage(ctx context.Context, branchID uuid.UUID, oldKey string, raw []byte) (string, error)
	Render(name, hexColor string) (bytes.Buffer, error)
}

type logoService struct {
	log         *logger.Logger
	settingRepo repos.SettingRepo
	bucket      gcp.BucketService
	colors      []color.NRGBA
	fontFace    font.Face
	now         func() time.Time
}

// NewLogoService loads the initials font from fontPath, or the bundled Go font when empty.
func NewLogoService(log *logger.Logger, settingRepo repos.SettingRepo, bucket gcp.BucketService, fontPath string) (LogoService, error) {
	serviceLog := log.With("service", "LogoService")

	face, err := loadFontFace(fontPath, logoFontPoints)
	if err != nil {
		return nil, fmt.Errorf("could not load logo font: %w", err)
	}
	colors := make([]color.NRGBA, 0, len(defaultLogoColors))
	for _, h := range defaultLogoColors {
		c, err := parseHexColor(h)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	serviceLog.Debug("Logo service ready", "font", fontLabel(fontPath), "colors", len(colors))

	return &logoService{
		log:         serviceLog,
		settingRepo: settingRepo,
		bucket:      bucket,
		colors:      colors,
		fontFace:    face,
		now:         time.Now,
	}, nil
}

func (ls *logoService) GenerateInitials(ctx context.Context, branch *types.Branch, setting *types.Setting) (string, error) {
	if branch == nil || branch.ID == uuid.Nil {
		return "", fmt.Errorf("branch required")
	}
	name, themeColor, oldKey := branch.Name, "", ""
	if setting != nil {
		if strings.TrimSpace(setting.DisplayName) != "" {
			name = setting.DisplayName
		}
		themeColor = setting.ThemeColor
		oldKey = setting.LogoKey
	}
	buf, err := ls.Render(name, themeColor)
	if err != nil {
		return "", err
	}
	return ls.store(ctx, branch.ID, oldKey, buf)
}

func (ls *logoService) UploadImage(ctx context.Context, branchID uuid.UUID, oldKey string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", apierr.BadRequest("empty_upload", fmt.Errorf("logo file is empty"))
	}
	if len(raw) > maxLogoUpload {
		return "", apierr.BadRequest("upload_too_large", fmt.Errorf("logo exceeds %d bytes", maxLogoUpload))
	}
	buf, err := processUploadedLogo(raw, logoSize)
	if err != nil {
		return "", apierr.BadRequest("invalid_image", err)
	}
	return ls.store(ctx, branchID, oldKey, buf)
}

// store uploads under a versioned key so CDNs never serve a stale logo, then
// points the branch settings at it and drops the previous object.
func (ls *logoService) store(ctx context.Context, branchID uuid.UUID, oldKey string, buf bytes.Buffer) (string, error) {
	newKey := fmt.Sprintf("branch_logo/%s/%d.png", branchID, ls.now().UnixNano())
	if err := ls.bucket.UploadFile(ctx, gcp.BucketCategoryLogo, newKey, bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload branch logo: %w", err)
	}
	url := ls.bucket.GetPublicURL(gcp.BucketCategoryLogo, newKey)
	if err := ls.settingRepo.UpdateLogo(dbctx.Context{Ctx: ctx}, branchID, newKey, url); err != nil {
		return "", fmt.Errorf("failed to save logo: %w", err)
	}
	oldKey = strings.TrimSpace(oldKey)
	if oldKey != "" && oldKey != newKey {
		if err := ls.bucket.DeleteFile(ctx, gcp.BucketCategoryLogo, oldKey); err != nil {
			ls.log.Warn("failed to delete old logo (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return url, nil
}

func (ls *logoService) Render(name, hexColor string) (bytes.Buffer, error) {
	dc := gg.NewContext(logoSize, logoSize)

	dc.DrawRoundedRectangle(0, 0, logoSize, logoSize, logoSize/8)
	dc.Clip()

	dc.SetColor(ls.pickColor(name, hexColor))
	dc.DrawRectangle(0, 0, logoSize, logoSize)
	dc.Fill()

	initials := computeInitials(name)
	dc.SetFontFace(ls.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(logoSize)/2, float64(logoSize)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2), cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// pickColor uses the theme colour when valid, otherwise a palette entry chosen by name.
func (ls *logoService) pickColor(name, hexColor string) color.NRGBA {
	if c, err := parseHexColor(hexColor); err == nil {
		return c
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return ls.colors[int(h.Sum32()%uint32(len(ls.colors)))]
}

func processUploadedLogo(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContextForRGBA(dst)
	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

// computeInitials takes the first letter of the first two words, e.g. "Central Bank" -> "CB".
func computeInitials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex: %w", err)
	}
	return color.NRGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xff}, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes := goregular.TTF
	if strings.TrimSpace(fontPath) != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = b
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

func fontLabel(path string) string {
	if strings.TrimSpace(path) == "" {
		return "goregular"
	}
	return path
}
