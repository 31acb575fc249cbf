package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"foodgram/internal/models"
	"foodgram/internal/repositories"

	"github.com/rs/zerolog/log"
)

// IngredientService handles the ingredient catalog.
type IngredientService struct {
	ingredients repositories.IngredientRepository
}

// NewIngredientService creates a new IngredientService.
func NewIngredientService(ingredients repositories.IngredientRepository) *IngredientService {
	return &IngredientService{ingredients: ingredients}
}

// ImportResult counts the outcome of a CSV import.
type ImportResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Skipped  int `json:"skipped"`
}

// SearchIngredients returns ingredients whose name starts with prefix.
func (s *IngredientService) SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	return s.ingredients.Search(ctx, prefix)
}

// GetIngredientByID retrieves a single ingredient.
func (s *IngredientService) GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	return s.ingredients.GetByID(ctx, id)
}

// CreateIngredient stores a new ingredient. Only staff may do this.
func (s *IngredientService) CreateIngredient(ctx context.Context, viewer *Identity, ingredient *models.Ingredient) error {
	if !CanManageCatalog(viewer) {
		return ErrForbidden
	}
	if err := s.ingredients.Create(ctx, ingredient); err != nil {
		return fmt.Errorf("failed to create ingredient %q: %w", ingredient.Name, err)
	}
	return nil
}

// ImportFile runs ImportRows over the file at path. The permission check
// happens before the file is opened.
func (s *IngredientService) ImportFile(ctx context.Context, viewer *Identity, path string) (*ImportResult, error) {
	if !CanManageCatalog(viewer) {
		return nil, ErrForbidden
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ingredient file: %w", err)
	}
	defer f.Close()
	return s.ImportRows(ctx, viewer, f)
}

// ImportRows reads headerless "name,unit" rows and gets or creates each
// ingredient. Rows that fail for any reason are skipped.
func (s *IngredientService) ImportRows(ctx context.Context, viewer *Identity, r io.Reader) (*ImportResult, error) {
	if !CanManageCatalog(viewer) {
		return nil, ErrForbidden
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("failed to read ingredient rows: %w", err)
		}
		if len(row) < 2 {
			result.Skipped++
			continue
		}
		name, unit := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if name == "" || unit == "" {
			result.Skipped++
			continue
		}

		_, created, err := s.ingredients.FirstOrCreate(ctx, name, unit)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("name", name).Msg("skipping ingredient row")
			result.Skipped++
		case created:
			result.Created++
		default:
			result.Existing++
		}
	}

	log.Info().
		Int("created", result.Created).
		Int("existing", result.Existing).
		Int("skipped", result.Skipped).
		Msg("ingredient import finished")
	return result, nil
}

// BulkLoad reads a CSV with a "name,measurement_unit" header and inserts every
// ingredient whose name is not yet in the catalog.
func (s *IngredientService) BulkLoad(ctx context.Context, r io.Reader) (int64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	nameCol, unitCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "name":
			nameCol = i
		case "measurement_unit":
			unitCol = i
		}
	}
	if nameCol < 0 || unitCol < 0 {
		return 0, fmt.Errorf("header must contain name and measurement_unit, got %v", header)
	}

	seen := make(map[string]bool)
	var batch []models.Ingredient
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read ingredients: %w", err)
		}
		name := strings.TrimSpace(row[nameCol])
		unit := strings.TrimSpace(row[unitCol])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		batch = append(batch, models.Ingredient{Name: name, MeasurementUnit: unit})
	}

	n, err := s.ingredients.BulkCreate(ctx, batch)
	if err != nil {
		return 0, err
	}
	return n, nil
}
