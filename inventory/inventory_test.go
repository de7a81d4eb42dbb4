package inventory

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jirkaslaboch2/cdkeystore/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes
	// concurrent test goroutines the way a real server pool would under
	// contention.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Key{}, &models.Purchase{}))
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: "test product", Price: 9.99}
	require.NoError(t, db.Create(p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func TestImportKeysUpdatesStock(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Widget")

	imported, err := ImportKeys(db, p.ID, []string{"AAA-111", "BBB-222", "CCC-333"})
	require.NoError(t, err)
	assert.Equal(t, 3, imported)
	assert.Equal(t, 3, stockOf(t, db, p.ID))

	unused, err := UnusedCount(db, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unused)
}

func TestImportKeysSkipsDuplicates(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Widget")
	other := createProduct(t, db, "Gadget")

	_, err := ImportKeys(db, p.ID, []string{"AAA-111", "BBB-222"})
	require.NoError(t, err)

	// Same code again for the same product, and for a different product:
	// code uniqueness is global, both are no-ops.
	imported, err := ImportKeys(db, p.ID, []string{"AAA-111", "NEW-999"})
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 3, stockOf(t, db, p.ID))

	imported, err = ImportKeys(db, other.ID, []string{"BBB-222"})
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 0, stockOf(t, db, other.ID))

	var total int64
	require.NoError(t, db.Model(&models.Key{}).Count(&total).Error)
	assert.EqualValues(t, 3, total)
}

func TestImportKeysIgnoresBlankCodes(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Widget")

	imported, err := ImportKeys(db, p.ID, []string{"  ", "", "REAL-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, stockOf(t, db, p.ID))
}

func TestAllocateClaimsKeyOnce(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Widget")
	_, err := ImportKeys(db, p.ID, []string{"ONLY-1"})
	require.NoError(t, err)

	key, err := Allocate(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ONLY-1", key.Code)
	assert.True(t, key.Used)

	var stored models.Key
	require.NoError(t, db.First(&stored, key.ID).Error)
	assert.True(t, stored.Used)

	_, err = Allocate(db, p.ID)
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
}

func TestAllocateEmptyPool(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Widget")

	_, err := Allocate(db, p.ID)
	assert.ErrorIs(t, err, ErrNoKeyAvailable)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
}

func TestAllocateIsolatedPerProduct(t *testing.T) {
	db := newTestDB(t)
	a := createProduct(t, db, "Widget")
	b := createProduct(t, db, "Gadget")
	_, err := ImportKeys(db, a.ID, []string{"A-1"})
	require.NoError(t, err)

	_, err = Allocate(db, b.ID)
	assert.ErrorIs(t, err, ErrNoKeyAvailable)

	key, err := Allocate(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A-1", key.Code)
}

func TestConcurrentAllocateNeverDoubleIssues(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Widget")

	const keys = 5
	const callers = 12
	codes := make([]string, keys)
	for i := range codes {
		codes[i] = fmt.Sprintf("K-%03d", i)
	}
	_, err := ImportKeys(db, p.ID, codes)
	require.NoError(t, err)

	results := make(chan error, callers)
	claimed := make(chan string, callers)
	for i := 0; i < callers; i++ {
		go func() {
			key, err := Allocate(db, p.ID)
			if err != nil {
				results <- err
				return
			}
			claimed <- key.Code
			results <- nil
		}()
	}

	var succeeded, exhausted int
	for i := 0; i < callers; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case err == ErrNoKeyAvailable:
			exhausted++
		default:
			t.Fatalf("unexpected allocate error: %v", err)
		}
	}
	assert.Equal(t, keys, succeeded)
	assert.Equal(t, callers-keys, exhausted)

	// Every claimed code is distinct.
	seen := map[string]bool{}
	close(claimed)
	for code := range claimed {
		assert.False(t, seen[code], "code %s issued twice", code)
		seen[code] = true
	}

	unused, err := UnusedCount(db, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unused)
}

func TestParseKeyFile(t *testing.T) {
	input := "ABC-123,batch1,extra\nDEF-456\n\n  GHI-789  \n"
	codes, err := ParseKeyFile(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC-123", "DEF-456", "GHI-789"}, codes)
}

func TestParseKeyFileEmpty(t *testing.T) {
	codes, err := ParseKeyFile(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, codes)
}
