package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/config"
	"foodgram/internal/db"
	applog "foodgram/internal/log"
	"foodgram/models"
)

var cleanWhitespace = regexp.MustCompile(`\s+`)

type ingredientRecord struct {
	Line int
	Name string
	Unit string
}

type importStats struct {
	Created  int
	Existing int
	Invalid  int
}

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}
	defer file.Close()

	records, err := readCSV(file)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.UseMock {
		return errors.New("DATABASE_URL must be set to import ingredients")
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stats, err := importIngredients(context.Background(), database, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients from %s (%d already present, %d invalid)\n",
		stats.Created, filepath.Base(csvPath), stats.Existing, stats.Invalid)
	return nil
}

// readCSV parses name,measurement_unit rows. A leading header row is skipped.
func readCSV(r io.Reader) ([]ingredientRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	records := make([]ingredientRecord, 0, len(rows))
	for idx, row := range rows {
		if idx == 0 && isHeader(row) {
			continue
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		record := ingredientRecord{Line: idx + 1, Name: normalizeName(row[0])}
		if len(row) > 1 {
			record.Unit = strings.TrimSpace(row[1])
		}
		records = append(records, record)
	}

	return records, nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name")
}

func normalizeName(value string) string {
	return strings.ToLower(cleanWhitespace.ReplaceAllString(strings.TrimSpace(value), " "))
}

// importIngredients inserts every valid record that is not yet present. Each
// record runs in its own transaction; rows with an empty name or unknown unit
// are counted and skipped.
func importIngredients(ctx context.Context, database *gorm.DB, records []ingredientRecord) (importStats, error) {
	var stats importStats
	for _, record := range records {
		unit, ok := models.ParseMeasurementUnit(record.Unit)
		if record.Name == "" || !ok {
			applog.Warn(ctx, "skipping invalid ingredient row", "line", record.Line, "name", record.Name, "unit", record.Unit)
			stats.Invalid++
			continue
		}

		created := false
		err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing models.Ingredient
			err := tx.Where("name = ? AND measurement_unit = ?", record.Name, unit).First(&existing).Error
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("find ingredient %q: %w", record.Name, err)
			}

			ingredient := models.Ingredient{Name: record.Name, MeasurementUnit: unit}
			if err := tx.Create(&ingredient).Error; err != nil {
				return fmt.Errorf("create ingredient %q: %w", record.Name, err)
			}
			created = true
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("record %d (%s): %w", record.Line, record.Name, err)
		}

		if created {
			stats.Created++
		} else {
			stats.Existing++
		}
	}

	applog.Info(ctx, "ingredient import finished", "created", stats.Created, "existing", stats.Existing, "invalid", stats.Invalid)
	return stats, nil
}
