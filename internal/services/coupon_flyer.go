package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"cake_heaven_back_end/internal/models"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	FlyerSize     = 512
	FlyerLinkTTL  = 24 * time.Hour
	flyerMimeType = "image/png"
)

var ErrStorageNotConfigured = errors.New("object storage not configured")

// Flyer is a stored QR code for a coupon.
type Flyer struct {
	Code      string    `json:"code"`
	Object    string    `json:"object"`
	URL       string    `json:"url"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type FlyerService struct {
	store      ObjectStore
	bucket     string
	storefront string
	log        *zap.Logger
	now        func() time.Time
}

// NewFlyerService accepts a nil store; Generate then fails with ErrStorageNotConfigured.
func NewFlyerService(store ObjectStore, bucket, storefront string, log *zap.Logger) *FlyerService {
	return &FlyerService{store: store, bucket: bucket, storefront: storefront, log: log, now: time.Now}
}

// CouponLink is the storefront address that pre-fills the code in the cart.
func CouponLink(storefront, code string) string {
	return storefront + "/cart?coupon=" + url.QueryEscape(code)
}

func RenderQR(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, FlyerSize)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode: %w", err)
	}
	return png, nil
}

func flyerObject(code string) string {
	return "coupons/" + code + ".png"
}

// Generate renders and stores the flyer for c, overwriting any previous one.
func (f *FlyerService) Generate(ctx context.Context, c models.Coupon) (Flyer, error) {
	if f.store == nil {
		return Flyer{}, ErrStorageNotConfigured
	}

	link := CouponLink(f.storefront, c.Code)
	png, err := RenderQR(link)
	if err != nil {
		return Flyer{}, err
	}

	object := flyerObject(c.Code)
	if err := upload(ctx, f.store, f.bucket, object, flyerMimeType, png); err != nil {
		return Flyer{}, err
	}

	signed, err := SignedURL(ctx, f.store, f.bucket, object, FlyerLinkTTL)
	if err != nil {
		return Flyer{}, err
	}

	f.log.Info("🪣 coupon flyer stored", zap.String("code", c.Code), zap.String("object", object))
	return Flyer{
		Code:      c.Code,
		Object:    object,
		URL:       signed,
		Link:      link,
		ExpiresAt: f.now().Add(FlyerLinkTTL),
	}, nil
}
