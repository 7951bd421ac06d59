package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikey/newsletter-funnels/internal/core"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"
)

const (
	itemsCollection   = "items"
	funnelsCollection = "funnels"
	recordExtension   = ".json"
)

// DiskStore keeps items and funnels as JSON files under a base directory
type DiskStore struct {
	d      *diskv.Diskv
	logger *zap.Logger
}

type itemRecord struct {
	ID          string    `json:"id"`
	SenderEmail string    `json:"sender_email"`
	SenderName  string    `json:"sender_name,omitempty"`
	Subject     string    `json:"subject"`
	Category    string    `json:"category,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	BodyRef     string    `json:"body_ref,omitempty"`
	Preview     string    `json:"preview,omitempty"`
}

type funnelRecord struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Color             string    `json:"color,omitempty"`
	SelectedIDs       []string  `json:"selected_ids"`
	SenderEmail       string    `json:"sender_email,omitempty"`
	SenderName        string    `json:"sender_name,omitempty"`
	TotalEmails       int       `json:"total_emails"`
	FirstEmailAt      time.Time `json:"first_email_at"`
	LastEmailAt       time.Time `json:"last_email_at"`
	AvgIntervalHours  *int      `json:"avg_interval_hours,omitempty"`
	TotalDurationDays *int      `json:"total_duration_days,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewDiskStore creates a file-backed store rooted at basePath
func NewDiskStore(basePath string, cacheSize uint64, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &DiskStore{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      cacheSize,
		}),
		logger: logger,
	}, nil
}

// keyToPath maps "collection/id" to collection/<base64 id>.json so any id is a safe file name
func keyToPath(key string) *diskv.PathKey {
	collection, id, _ := strings.Cut(key, "/")
	return &diskv.PathKey{
		Path:     []string{collection},
		FileName: base64.RawURLEncoding.EncodeToString([]byte(id)) + recordExtension,
	}
}

func pathToKey(pk *diskv.PathKey) string {
	encoded := strings.TrimSuffix(pk.FileName, recordExtension)
	id, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(pk.Path) == 0 {
		return ""
	}
	return pk.Path[0] + "/" + string(id)
}

func recordKey(collection, id string) string {
	return collection + "/" + id
}

// ListItems returns every captured item, newest first
func (s *DiskStore) ListItems(ctx context.Context) ([]core.Item, error) {
	items := make([]core.Item, 0)
	err := s.each(ctx, itemsCollection, func(data []byte) error {
		var rec itemRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode item: %w", err)
		}
		items = append(items, rec.toItem())
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(items)
	return items, nil
}

// GetItem retrieves a single item by id
func (s *DiskStore) GetItem(ctx context.Context, id string) (*core.Item, error) {
	data, err := s.read(itemsCollection, id)
	if err != nil {
		return nil, err
	}

	var rec itemRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", id, err)
	}
	item := rec.toItem()
	return &item, nil
}

// SaveItem stores a captured item
func (s *DiskStore) SaveItem(ctx context.Context, item *core.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	data, err := json.Marshal(itemRecord{
		ID:          item.ID,
		SenderEmail: item.SenderEmail,
		SenderName:  item.SenderName,
		Subject:     item.Subject,
		Category:    item.Category,
		Timestamp:   item.Timestamp.UTC(),
		BodyRef:     item.BodyRef,
		Preview:     item.Preview,
	})
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}

	if err := s.d.Write(recordKey(itemsCollection, item.ID), data); err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return nil
}

// SaveFunnel creates or updates a funnel by ID
func (s *DiskStore) SaveFunnel(ctx context.Context, funnel *core.Funnel) error {
	if err := validateFunnel(funnel); err != nil {
		return err
	}

	selected := funnel.SelectedIDs
	if selected == nil {
		selected = []string{}
	}

	data, err := json.Marshal(funnelRecord{
		ID:                funnel.ID,
		Name:              funnel.Name,
		Description:       funnel.Description,
		Color:             funnel.Color,
		SelectedIDs:       selected,
		SenderEmail:       funnel.SenderEmail,
		SenderName:        funnel.SenderName,
		TotalEmails:       funnel.TotalEmails,
		FirstEmailAt:      funnel.FirstEmailAt.UTC(),
		LastEmailAt:       funnel.LastEmailAt.UTC(),
		AvgIntervalHours:  funnel.AvgIntervalHours,
		TotalDurationDays: funnel.TotalDurationDays,
		CreatedAt:         funnel.CreatedAt.UTC(),
		UpdatedAt:         funnel.UpdatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode funnel: %w", err)
	}

	if err := s.d.Write(recordKey(funnelsCollection, funnel.ID), data); err != nil {
		return fmt.Errorf("failed to write funnel: %w", err)
	}
	return nil
}

// GetFunnel retrieves a funnel by ID
func (s *DiskStore) GetFunnel(ctx context.Context, id string) (*core.Funnel, error) {
	data, err := s.read(funnelsCollection, id)
	if err != nil {
		return nil, err
	}

	var rec funnelRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode funnel %s: %w", id, err)
	}
	funnel := rec.toFunnel()
	return &funnel, nil
}

// ListFunnels returns every funnel, most recently updated first
func (s *DiskStore) ListFunnels(ctx context.Context) ([]core.Funnel, error) {
	funnels := make([]core.Funnel, 0)
	err := s.each(ctx, funnelsCollection, func(data []byte) error {
		var rec funnelRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode funnel: %w", err)
		}
		funnels = append(funnels, rec.toFunnel())
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortRecentlyUpdated(funnels)
	return funnels, nil
}

// Stop is a no-op for the disk store
func (s *DiskStore) Stop() {}

func (s *DiskStore) read(collection, id string) ([]byte, error) {
	key := recordKey(collection, id)
	if id == "" || !s.d.Has(key) {
		return nil, core.ErrNotFound
	}

	data, err := s.d.Read(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// each calls fn with the content of every record in a collection
func (s *DiskStore) each(ctx context.Context, collection string, fn func([]byte) error) error {
	cancel := make(chan struct{})
	defer close(cancel)

	for key := range s.d.KeysPrefix(collection+"/", cancel) {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := s.d.Read(key)
		if err != nil {
			s.logger.Warn("Skipping unreadable record", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	return nil
}

func (r itemRecord) toItem() core.Item {
	return core.Item{
		ID:          r.ID,
		SenderEmail: r.SenderEmail,
		SenderName:  r.SenderName,
		Subject:     r.Subject,
		Category:    r.Category,
		Timestamp:   r.Timestamp,
		BodyRef:     r.BodyRef,
		Preview:     r.Preview,
	}
}

func (r funnelRecord) toFunnel() core.Funnel {
	selected := r.SelectedIDs
	if selected == nil {
		selected = []string{}
	}
	return core.Funnel{
		ID: r.ID,
		FunnelDraft: core.FunnelDraft{
			Name:              r.Name,
			Description:       r.Description,
			Color:             r.Color,
			SelectedIDs:       selected,
			SenderEmail:       r.SenderEmail,
			SenderName:        r.SenderName,
			TotalEmails:       r.TotalEmails,
			FirstEmailAt:      r.FirstEmailAt,
			LastEmailAt:       r.LastEmailAt,
			AvgIntervalHours:  r.AvgIntervalHours,
			TotalDurationDays: r.TotalDurationDays,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
