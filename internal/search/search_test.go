package search_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/search"
)

var offererSpec = search.TextSpec{
	MinLength:        3,
	IDColumn:         "id",
	IdentifierColumn: "siren",
	IdentifierLength: models.SirenLength,
	SearchColumns:    []string{"search_name"},
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Offerer{}))
	return db
}

func seedOfferers(t *testing.T, db *gorm.DB) {
	t.Helper()
	offerers := []models.Offerer{
		{ID: 1, Name: "Librairie du Centre", Siren: "111222333", ValidationStatus: models.ValidationStatusNew},
		{ID: 2, Name: "Café des Arts", Siren: "123456789", ValidationStatus: models.ValidationStatusValidated},
		{ID: 3, Name: "Studio 12345678", Siren: "555666777", ValidationStatus: models.ValidationStatusPending},
		{ID: 4, Name: "Théâtre Municipal", Siren: "987654321", ValidationStatus: models.ValidationStatusNew},
	}
	for i := range offerers {
		require.NoError(t, db.Create(&offerers[i]).Error)
	}
}

func findIDs(t *testing.T, db *gorm.DB, builder *search.Builder) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, builder.Apply(db.Model(&models.Offerer{})).Order("id").Pluck("id", &ids).Error)
	return ids
}

func TestNormalizeFoldsAccentsAndCase(t *testing.T) {
	require.Equal(t, "elodie cafe oeuvre", search.Normalize("  Élodie   CAFÉ Œuvre "))
	require.Equal(t, "ane", search.Normalize("âne"))
	require.True(t, search.IsNumeric("0042"))
	require.False(t, search.IsNumeric("42a"))
	require.False(t, search.IsNumeric(""))
}

func TestTextShortNonNumericTermMatchesNothing(t *testing.T) {
	builder := search.NewBuilder().Text("ab", offererSpec)
	require.True(t, builder.Empty())

	builder = search.NewBuilder().Text("   ", offererSpec)
	require.False(t, builder.Empty())
}

func TestTextNumericMatchesIDOrIdentifierPrefix(t *testing.T) {
	db := setupTestDB(t)
	seedOfferers(t, db)

	builder := search.NewBuilder().Text("12345678", offererSpec)
	require.False(t, builder.Empty())
	require.Equal(t, []uint{2, 3}, findIDs(t, db, builder))

	builder = search.NewBuilder().Text("1", offererSpec)
	require.Equal(t, []uint{1}, findIDs(t, db, builder))
}

func TestTextIsAccentInsensitive(t *testing.T) {
	db := setupTestDB(t)
	seedOfferers(t, db)

	require.Equal(t, []uint{2}, findIDs(t, db, search.NewBuilder().Text("cafe", offererSpec)))
	require.Equal(t, []uint{4}, findIDs(t, db, search.NewBuilder().Text("THEATRE", offererSpec)))
	require.Empty(t, findIDs(t, db, search.NewBuilder().Text("100%", offererSpec)))
}

func TestFiltersAreCombined(t *testing.T) {
	db := setupTestDB(t)
	seedOfferers(t, db)

	builder := search.NewBuilder().
		Text("12345678", offererSpec).
		InStrings("validation_status", []string{string(models.ValidationStatusPending), string(models.ValidationStatusNew)})
	require.Equal(t, []uint{3}, findIDs(t, db, builder))

	builder = search.NewBuilder().InIDs("id", []uint{1, 4}).InIDs("id", nil)
	require.Equal(t, []uint{1, 4}, findIDs(t, db, builder))
}

func TestDateRangeIncludesEndDay(t *testing.T) {
	db := setupTestDB(t)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Offerer{ID: 1, Name: "Early", Siren: "100000001", ValidationStatus: models.ValidationStatusNew, CreatedAt: day.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.Offerer{ID: 2, Name: "Inside", Siren: "100000002", ValidationStatus: models.ValidationStatusNew, CreatedAt: day.Add(23 * time.Hour)}).Error)

	builder := search.NewBuilder().DateRange("created_at", &day, &day)
	require.Equal(t, []uint{2}, findIDs(t, db, builder))
}

func TestParseHelpersReportFieldErrors(t *testing.T) {
	ids, err := search.ParseIDList("venue", "1, 2", "3")
	require.NoError(t, err)
	require.Equal(t, []uint{1, 2, 3}, ids)

	_, err = search.ParseIDList("venue", "1,abc")
	var fieldErr *search.FieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "venue", fieldErr.Field)

	_, _, err = search.ParseDateRange("from", "2024-02-01", "to", "2024-01-01")
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "to", fieldErr.Field)

	_, err = search.ParseDate("from", "01/02/2024")
	require.Error(t, err)

	flag, err := search.ParseBool("collective", "true")
	require.NoError(t, err)
	require.True(t, *flag)
}
