package storage

import (
	"context"
	"errors"
	"fmt"

	"backend-pettopia/internal/db"
	"backend-pettopia/internal/logging"
	"backend-pettopia/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxImageBytes caps a single image upload.
const MaxImageBytes = 10 << 20

const KindImage = "image"

var (
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = fmt.Errorf("file exceeds %d bytes", MaxImageBytes)
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedImages = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Object struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

type Service struct {
	db    db.Querier
	store ObjectStore
	log   *logrus.Entry
}

func NewService(db db.Querier, store ObjectStore) *Service {
	return &Service{db: db, store: store, log: logging.NewDefault("storage")}
}

// UploadImage sniffs the content type, stores the bytes under
// images/{guardian}/{uuid}{ext} and records the object.
func (s *Service) UploadImage(ctx context.Context, guardianID string, data []byte) (Object, error) {
	if len(data) == 0 {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return Object{}, ErrEmpty
	}
	if len(data) > MaxImageBytes {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return Object{}, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImages...) {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return Object{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	id := uuid.NewString()
	key := fmt.Sprintf("images/%s/%s%s", guardianID, id, mt.Extension())
	url, err := s.store.Put(ctx, key, mt.String(), data)
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return Object{}, err
	}

	obj := Object{ID: id, URL: url, ContentType: mt.String(), Size: len(data)}
	if err := s.SaveObject(ctx, guardianID, KindImage, obj); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return Object{}, err
	}
	metrics.Uploads.WithLabelValues("ok").Inc()
	s.log.WithFields(logrus.Fields{"guardian_id": guardianID, "key": key, "size": len(data)}).Info("image uploaded")
	return obj, nil
}

func (s *Service) SaveObject(ctx context.Context, guardianID, kind string, obj Object) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, guardian_id, url, kind, content_type, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, obj.ID, guardianID, obj.URL, kind, obj.ContentType, int64(obj.Size))
	return err
}
