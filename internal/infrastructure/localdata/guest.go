package localdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopfront/client/internal/domain/shop"
)

// ErrLineNotFound indicates the guest cart has no line with the given ID.
var ErrLineNotFound = errors.New("localdata: cart line not found")

// GuestCartLine is an anonymous cart line, kept locally until the shopper
// signs in. One line per (product, size); quantities accumulate.
type GuestCartLine struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProductID int64  `gorm:"not null;uniqueIndex:idx_guest_line,priority:1"`
	Size      string `gorm:"type:varchar(20);not null;uniqueIndex:idx_guest_line,priority:2"`
	Quantity  int64  `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (GuestCartLine) TableName() string {
	return "guest_cart_lines"
}

// GuestWishlistEntry is an anonymous wishlist membership record.
type GuestWishlistEntry struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	ProductID int64 `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (GuestWishlistEntry) TableName() string {
	return "guest_wishlist_entries"
}

// GuestStore is the local-only fallback for cart and wishlist state while no
// session exists. On login its cart lines are replayed against the server
// cart and the local copy is discarded.
type GuestStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open opens (creating if needed) the guest database at the given path.
func Open(path string, log *zap.Logger) (*GuestStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("localdata: create storage dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("localdata: open guest database: %w", err)
	}
	if err := db.AutoMigrate(&GuestCartLine{}, &GuestWishlistEntry{}); err != nil {
		return nil, fmt.Errorf("localdata: migrate guest database: %w", err)
	}

	return &GuestStore{db: db, log: log}, nil
}

// AddLine adds quantity of (productID, size) to the guest cart, summing with
// any existing line for the same product and size.
func (g *GuestStore) AddLine(productID int64, size string, quantity int64) error {
	if quantity <= 0 {
		return shop.ErrInvalidQuantity
	}
	return g.db.Transaction(func(tx *gorm.DB) error {
		var line GuestCartLine
		err := tx.Where("product_id = ? AND size = ?", productID, size).First(&line).Error
		switch {
		case err == nil:
			line.Quantity += quantity
			return tx.Save(&line).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&GuestCartLine{
				ProductID: productID,
				Size:      size,
				Quantity:  quantity,
			}).Error
		default:
			return err
		}
	})
}

// UpdateLine replaces the quantity of the given line.
func (g *GuestStore) UpdateLine(lineID, quantity int64) error {
	if quantity <= 0 {
		return shop.ErrInvalidQuantity
	}
	res := g.db.Model(&GuestCartLine{}).Where("id = ?", lineID).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLineNotFound
	}
	return nil
}

// RemoveLine deletes the given line.
func (g *GuestStore) RemoveLine(lineID int64) error {
	res := g.db.Delete(&GuestCartLine{}, lineID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLineNotFound
	}
	return nil
}

// Lines returns all guest cart lines ordered by recency.
func (g *GuestStore) Lines() ([]GuestCartLine, error) {
	var lines []GuestCartLine
	if err := g.db.Order("updated_at DESC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// ClearCart removes every guest cart line.
func (g *GuestStore) ClearCart() error {
	return g.db.Where("1 = 1").Delete(&GuestCartLine{}).Error
}

// ToggleWishlist flips membership of productID and reports whether the entry
// is present afterwards.
func (g *GuestStore) ToggleWishlist(productID int64) (bool, error) {
	var added bool
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var entry GuestWishlistEntry
		err := tx.Where("product_id = ?", productID).First(&entry).Error
		switch {
		case err == nil:
			return tx.Delete(&entry).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			added = true
			return tx.Create(&GuestWishlistEntry{ProductID: productID}).Error
		default:
			return err
		}
	})
	return added, err
}

// WishlistEntries returns all guest wishlist entries.
func (g *GuestStore) WishlistEntries() ([]GuestWishlistEntry, error) {
	var entries []GuestWishlistEntry
	if err := g.db.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearWishlist removes every guest wishlist entry.
func (g *GuestStore) ClearWishlist() error {
	return g.db.Where("1 = 1").Delete(&GuestWishlistEntry{}).Error
}

// Close releases the underlying database handle.
func (g *GuestStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
