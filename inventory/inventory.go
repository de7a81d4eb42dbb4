package inventory

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jirkaslaboch2/cdkeystore/models"
)

// ErrNoKeyAvailable signals that the pool for a product holds no unused key.
// Callers must not touch the stock counter or the purchase ledger when they
// see it.
var ErrNoKeyAvailable = errors.New("no unused key available")

// Allocate claims one unused key for the product and returns it. The claim is
// a conditional update (used flips only when still false), never
// check-then-act: two concurrent allocations can not return the same key.
// Selection among available keys is arbitrary; lowest id wins here as an
// artifact of the candidate query.
//
// Pass a transaction handle to make the claim part of a larger unit of work.
func Allocate(db *gorm.DB, productID uint) (*models.Key, error) {
	for {
		var key models.Key
		q := db.Where("product_id = ? AND used = ?", productID, false).Order("id")
		// On MySQL the candidate read must be a locking current read:
		// a repeatable-read snapshot would keep returning a key another
		// transaction already claimed. SKIP LOCKED steers concurrent
		// claimers to different candidates. SQLite serializes writers,
		// so the plain read is already current there.
		if db.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		err := q.First(&key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoKeyAvailable
		}
		if err != nil {
			return nil, err
		}

		res := db.Model(&models.Key{}).
			Where("id = ? AND used = ?", key.ID, false).
			Update("used", true)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			key.Used = true
			return &key, nil
		}
		// Lost the race for this candidate; the pool shrank, pick again.
	}
}

// ImportKeys inserts the given codes as unused keys of the product and bumps
// the stock counter by the number of rows actually inserted. A code that
// already exists anywhere in the inventory is skipped silently; duplicates
// are no-ops, not errors.
func ImportKeys(db *gorm.DB, productID uint, codes []string) (int, error) {
	imported := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, code := range codes {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			key := models.Key{ProductID: productID, Code: code}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoNothing: true,
			}).Create(&key)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				imported++
			}
		}
		if imported > 0 {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", productID).
				Update("stock", gorm.Expr("stock + ?", imported)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// UnusedCount reports how many unused keys the product holds. The product's
// stock counter must always equal this number.
func UnusedCount(db *gorm.DB, productID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Key{}).
		Where("product_id = ? AND used = ?", productID, false).
		Count(&n).Error
	return n, err
}

// ParseKeyFile reads the bulk import format: one record per line, first CSV
// field is the key code, remaining fields are ignored, no header.
func ParseKeyFile(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var codes []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		code := strings.TrimSpace(record[0])
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}
