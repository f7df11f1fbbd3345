package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"orma/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yml
var catalogYAML []byte

// CatalogFile is the shape of catalog.yml.
type CatalogFile struct {
	Categories []struct {
		Name  string  `yaml:"name"`
		Score float64 `yaml:"score"`
	} `yaml:"categories"`
	PricingTiers []struct {
		Name       string   `yaml:"name"`
		Cost       string   `yaml:"cost"`
		GuestCount int      `yaml:"guest_count"`
		Features   []string `yaml:"features"`
	} `yaml:"pricing_tiers"`
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*CatalogFile, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog parses a catalog document and rejects entries without a name.
func ParseCatalog(raw []byte) (*CatalogFile, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, c := range file.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
	}
	hasFree := false
	for i, t := range file.PricingTiers {
		if t.Name == "" || t.GuestCount <= 0 {
			return nil, fmt.Errorf("pricing tier %d needs a name and a positive guest_count", i)
		}
		hasFree = hasFree || t.Cost == models.FreeTierCost
	}
	if !hasFree {
		return nil, fmt.Errorf("catalog has no free pricing tier")
	}
	return &file, nil
}

// Catalog upserts categories by name and creates missing pricing tiers. It is
// safe to run on every start.
func Catalog(db *gorm.DB) error {
	file, err := LoadCatalog()
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, c := range file.Categories {
			category := models.Category{Name: c.Name, Score: c.Score}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"score"}),
			}).Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}

		for _, t := range file.PricingTiers {
			features, err := json.Marshal(t.Features)
			if err != nil {
				return err
			}
			tier := models.PricingTier{
				Name:       t.Name,
				Cost:       t.Cost,
				GuestCount: t.GuestCount,
				Features:   datatypes.JSON(features),
			}
			if err := tx.Where(models.PricingTier{Name: t.Name}).
				Assign(models.PricingTier{Cost: t.Cost, GuestCount: t.GuestCount, Features: tier.Features}).
				FirstOrCreate(&tier).Error; err != nil {
				return fmt.Errorf("seed pricing tier %s: %w", t.Name, err)
			}
		}
		return nil
	})
}
