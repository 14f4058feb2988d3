package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/collections/internal/database"
	"github.com/mrlokans/collections/internal/database/associations"
	"github.com/mrlokans/collections/internal/database/companies"
	"github.com/mrlokans/collections/internal/entities"
)

// generatedLikedCount is how many generated companies also land in the liked collection.
const generatedLikedCount = 10

// Fixture describes companies and the collections they belong to.
//
//	companies:
//	  - id: 1
//	    name: Acme
//	collections:
//	  My List: [1]
type Fixture struct {
	Companies   []FixtureCompany `yaml:"companies"`
	Collections map[string][]int `yaml:"collections"`
}

type FixtureCompany struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// SeedSummary reports what a seed run wrote.
type SeedSummary struct {
	Companies   int
	Memberships map[string]int
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// GenerateFixture builds n companies named "Company <id>", all members of
// listName. The first few are also members of likedName.
func GenerateFixture(n int, listName, likedName string) *Fixture {
	f := &Fixture{
		Companies:   make([]FixtureCompany, 0, n),
		Collections: map[string][]int{listName: make([]int, 0, n)},
	}
	for id := 1; id <= n; id++ {
		f.Companies = append(f.Companies, FixtureCompany{ID: id, Name: fmt.Sprintf("Company %d", id)})
		f.Collections[listName] = append(f.Collections[listName], id)
		if id <= generatedLikedCount && likedName != "" && likedName != listName {
			f.Collections[likedName] = append(f.Collections[likedName], id)
		}
	}
	return f
}

func (f *Fixture) validate() error {
	known := make(map[int]bool, len(f.Companies))
	for _, c := range f.Companies {
		if c.ID <= 0 {
			return fmt.Errorf("company id must be positive, got %d", c.ID)
		}
		if known[c.ID] {
			return fmt.Errorf("duplicate company id %d", c.ID)
		}
		known[c.ID] = true
	}
	for name, ids := range f.Collections {
		if name == "" {
			return errors.New("collection name must not be empty")
		}
		for _, id := range ids {
			if !known[id] {
				return fmt.Errorf("collection %q references unknown company %d", name, id)
			}
		}
	}
	return nil
}

// Seeder writes fixtures into the database.
type Seeder struct {
	db           *database.Database
	companies    *companies.Repository
	associations *associations.Repository
	logger       *log.Logger
}

func NewSeeder(db *database.Database, likedName string, logger *log.Logger) *Seeder {
	return &Seeder{
		db:           db,
		companies:    companies.NewRepository(db.DB, likedName),
		associations: associations.NewRepository(db.DB),
		logger:       logger,
	}
}

// Apply upserts the fixture's companies and adds the memberships, creating
// collections that do not exist yet. Existing memberships are left alone.
func (s *Seeder) Apply(f *Fixture) (SeedSummary, error) {
	summary := SeedSummary{Memberships: make(map[string]int, len(f.Collections))}

	rows := make([]entities.Company, 0, len(f.Companies))
	for _, c := range f.Companies {
		rows = append(rows, entities.Company{ID: c.ID, CompanyName: c.Name})
	}
	if err := s.companies.UpsertCompanies(rows); err != nil {
		return summary, fmt.Errorf("failed to write companies: %w", err)
	}
	summary.Companies = len(rows)

	names := make([]string, 0, len(f.Collections))
	for name := range f.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	collections, err := s.db.EnsureCollections(names...)
	if err != nil {
		return summary, err
	}
	for i, collection := range collections {
		ids := f.Collections[names[i]]
		if err := s.associations.AddCompanies(collection.ID, ids); err != nil {
			return summary, fmt.Errorf("failed to fill collection %q: %w", collection.CollectionName, err)
		}
		summary.Memberships[collection.CollectionName] = len(ids)
		s.logger.Info("seeded collection", "collection", collection.CollectionName, "companies", len(ids))
	}

	return summary, nil
}
