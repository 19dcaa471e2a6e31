// Package content loads the calculator catalog from a CSV data file,
// resolves each row's config, and serves cached views of the catalog:
// category trees, publish schedules, and search. Catalog problems (a missing
// slug, an unknown component type, an invalid config) are load errors, not
// per-row warnings: a broken data file should fail fast instead of shipping
// a partial site.
package content

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/rywalsh/sliderule/pkg/calcconfig"
)

// Record is one calculator page in the catalog.
type Record struct {
	Category      string
	Subcategory   string
	ComponentType calcconfig.ComponentType
	Config        *calcconfig.CalculatorConfig

	// Slug is the last path segment, e.g. "feet-to-meters-converter".
	Slug string
	// FullPath is the normalized absolute path starting with "/".
	FullPath string
	// Segments holds the nested path parts, e.g. ["conversions", "feet-to-meters-converter"].
	Segments []string

	Title           string
	TrafficEstimate int
	// PublishDate is an ISO date (yyyy-mm-dd), or "" when unscheduled.
	PublishDate string
	IsPublished bool
}

// Category groups published calculators under a top-level label.
type Category struct {
	Slug          string
	Label         string
	Calculators   []*Record
	Subcategories []*Subcategory
	TrafficTotal  int
}

// Subcategory is a second-level grouping inside a category.
type Subcategory struct {
	Slug         string
	Label        string
	Calculators  []*Record
	TrafficTotal int
}

// ScheduleItem is one dated entry of the publish schedule.
type ScheduleItem struct {
	Path        string
	Title       string
	PublishDate string
}

type snapshot struct {
	calculators []*Record
	byPath      map[string]*Record
	categories  []*Category
	schedule    []ScheduleItem
}

// Store loads and caches the calculator catalog. The cache fills lazily on
// first access and can be dropped with Invalidate, e.g. from a file watcher.
type Store struct {
	dataFile   string
	configsDir string

	// Now is the clock used for publish cutoffs. Overridable in tests.
	Now func() time.Time

	mu    sync.Mutex
	cache *snapshot
}

// NewStore creates a store over the given CSV data file. configsDir may be
// empty when all configs are inline in the CSV.
func NewStore(dataFile, configsDir string) *Store {
	return &Store{
		dataFile:   dataFile,
		configsDir: configsDir,
		Now:        time.Now,
	}
}

// Invalidate drops the cached catalog; the next access reloads from disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *Store) ensure() (*snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		return s.cache, nil
	}

	snap, err := s.load()
	if err != nil {
		return nil, err
	}

	s.cache = snap
	return snap, nil
}

func (s *Store) load() (*snapshot, error) {
	data, err := os.ReadFile(s.dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.dataFile, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("content file %s has no rows", s.dataFile)
	}

	header := rows[0]
	todayISO := s.Now().UTC().Format("2006-01-02")

	byPath := make(map[string]*Record)
	var order []string
	var schedule []ScheduleItem

	for index, columns := range rows[1:] {
		row := rowToRecord(header, columns)
		rowNum := index + 2

		if strings.TrimSpace(row["slug"]) == "" {
			return nil, fmt.Errorf("missing slug at row %d", rowNum)
		}

		fullPath, err := NormalizePath(row["slug"])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		segments := splitSegments(fullPath)

		category := strings.TrimSpace(row["category"])
		if category == "" {
			category = "uncategorized"
		}
		subcategory := strings.TrimSpace(row["subcategory"])
		title := strings.TrimSpace(row["title"])
		traffic := parseTraffic(row["traffic_estimate"])
		publishDate := normalizeDate(row["New_Publish_Date"])

		componentType, err := calcconfig.NormalizeComponentType(row["component_type"])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		config, err := s.resolveConfig(row["config_json"], fullPath)
		if err != nil {
			return nil, err
		}

		if componentType == "" {
			componentType = calcconfig.InferComponentType(config)
		}

		if publishDate != "" {
			schedule = append(schedule, ScheduleItem{
				Path:        fullPath,
				Title:       title,
				PublishDate: publishDate,
			})
		}

		existing, ok := byPath[fullPath]
		if !ok {
			byPath[fullPath] = &Record{
				Category:        category,
				Subcategory:     subcategory,
				ComponentType:   componentType,
				Config:          config,
				Slug:            segments[len(segments)-1],
				FullPath:        fullPath,
				Segments:        segments,
				Title:           title,
				TrafficEstimate: traffic,
				PublishDate:     publishDate,
				IsPublished:     publishDate == "" || publishDate <= todayISO,
			}
			order = append(order, fullPath)
			continue
		}

		// Duplicate rows for the same path merge: highest traffic, earliest
		// publish date, first non-empty type and config win.
		if traffic > existing.TrafficEstimate {
			existing.TrafficEstimate = traffic
		}
		if publishDate != "" && (existing.PublishDate == "" || publishDate < existing.PublishDate) {
			existing.PublishDate = publishDate
		}
		existing.IsPublished = existing.PublishDate == "" || existing.PublishDate <= todayISO
		if existing.ComponentType == "" && componentType != "" {
			existing.ComponentType = componentType
		}
		if existing.Config == nil && config != nil {
			existing.Config = config
		}
	}

	calculators := make([]*Record, 0, len(byPath))
	for _, path := range order {
		calculators = append(calculators, byPath[path])
	}
	sort.SliceStable(calculators, func(i, j int) bool {
		if calculators[i].Category == calculators[j].Category {
			return calculators[i].Title < calculators[j].Title
		}
		return calculators[i].Category < calculators[j].Category
	})

	return &snapshot{
		calculators: calculators,
		byPath:      byPath,
		categories:  buildCategories(calculators),
		schedule:    schedule,
	}, nil
}

// resolveConfig parses an inline config_json cell, or falls back to a
// standalone JSON file named after the path (nested first, then leaf).
func (s *Store) resolveConfig(raw, fullPath string) (*calcconfig.CalculatorConfig, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		config, err := calcconfig.Parse(trimmed, "config_json for "+fullPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config_json for %s: %w", fullPath, err)
		}
		return config, nil
	}

	if s.configsDir == "" {
		return nil, nil
	}

	relativePath := strings.Trim(fullPath, "/")
	if relativePath == "" {
		return nil, nil
	}

	nestedFile := filepath.Join(s.configsDir, relativePath+".json")
	leaf := relativePath
	if segments := splitSegments(fullPath); len(segments) > 0 {
		leaf = segments[len(segments)-1]
	}
	leafFile := filepath.Join(s.configsDir, leaf+".json")

	var filePath string
	switch {
	case fileExists(nestedFile):
		filePath = nestedFile
	case fileExists(leafFile):
		filePath = leafFile
	default:
		return nil, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file for %s: %w", fullPath, err)
	}

	config, err := calcconfig.Parse(string(data), "config file "+relativePath)
	if err != nil {
		return nil, fmt.Errorf("invalid config file for %s: %w", fullPath, err)
	}
	return config, nil
}

func buildCategories(calculators []*Record) []*Category {
	byLabel := make(map[string]*Category)
	var order []string

	for _, calculator := range calculators {
		if !calculator.IsPublished {
			continue
		}

		category, ok := byLabel[calculator.Category]
		if !ok {
			category = &Category{
				Slug:  ToSlug(calculator.Category),
				Label: calculator.Category,
			}
			byLabel[calculator.Category] = category
			order = append(order, calculator.Category)
		}

		category.Calculators = append(category.Calculators, calculator)
		category.TrafficTotal += calculator.TrafficEstimate

		if calculator.Subcategory != "" {
			var subcategory *Subcategory
			for _, item := range category.Subcategories {
				if item.Label == calculator.Subcategory {
					subcategory = item
					break
				}
			}
			if subcategory == nil {
				subcategory = &Subcategory{
					Slug:  ToSlug(calculator.Subcategory),
					Label: calculator.Subcategory,
				}
				category.Subcategories = append(category.Subcategories, subcategory)
			}
			subcategory.Calculators = append(subcategory.Calculators, calculator)
			subcategory.TrafficTotal += calculator.TrafficEstimate
		}
	}

	categories := make([]*Category, 0, len(order))
	for _, label := range order {
		category := byLabel[label]
		sort.SliceStable(category.Subcategories, func(i, j int) bool {
			return category.Subcategories[i].TrafficTotal > category.Subcategories[j].TrafficTotal
		})
		sort.SliceStable(category.Calculators, func(i, j int) bool {
			return category.Calculators[i].TrafficEstimate > category.Calculators[j].TrafficEstimate
		})
		categories = append(categories, category)
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].TrafficTotal > categories[j].TrafficTotal
	})

	return categories
}

// All returns every catalog record, published or not, sorted by category
// then title.
func (s *Store) All() ([]*Record, error) {
	snap, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return snap.calculators, nil
}

// Published returns only the records visible today.
func (s *Store) Published() ([]*Record, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}

	published := make([]*Record, 0, len(all))
	for _, record := range all {
		if record.IsPublished {
			published = append(published, record)
		}
	}
	return published, nil
}

// ByPath looks up a record by its normalized path. Returns nil when the
// path is unknown.
func (s *Store) ByPath(pathname string) (*Record, error) {
	normalized, err := NormalizePath(pathname)
	if err != nil {
		return nil, err
	}

	snap, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return snap.byPath[normalized], nil
}

// Paths returns the full paths of all published records.
func (s *Store) Paths() ([]string, error) {
	published, err := s.Published()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(published))
	for _, record := range published {
		paths = append(paths, record.FullPath)
	}
	return paths, nil
}

// Categories returns published categories sorted by total traffic.
func (s *Store) Categories() ([]*Category, error) {
	snap, err := s.ensure()
	if err != nil {
		return nil, err
	}
	return snap.categories, nil
}

// CategoryBySlug finds a category by its slug, or nil.
func (s *Store) CategoryBySlug(slug string) (*Category, error) {
	categories, err := s.Categories()
	if err != nil {
		return nil, err
	}

	for _, category := range categories {
		if category.Slug == slug {
			return category, nil
		}
	}
	return nil, nil
}

// SubcategoryBySlug finds a subcategory inside a category, or nil.
func (s *Store) SubcategoryBySlug(categorySlug, subcategorySlug string) (*Category, *Subcategory, error) {
	category, err := s.CategoryBySlug(categorySlug)
	if err != nil || category == nil {
		return nil, nil, err
	}

	for _, subcategory := range category.Subcategories {
		if subcategory.Slug == subcategorySlug {
			return category, subcategory, nil
		}
	}
	return nil, nil, nil
}

// Top returns the most-trafficked published records, up to limit.
func (s *Store) Top(limit int) ([]*Record, error) {
	published, err := s.Published()
	if err != nil {
		return nil, err
	}

	top := make([]*Record, len(published))
	copy(top, published)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].TrafficEstimate > top[j].TrafficEstimate
	})

	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// UpcomingSchedule lists scheduled publishes from today onward, one entry
// per path (the earliest date wins), sorted by date.
func (s *Store) UpcomingSchedule() ([]ScheduleItem, error) {
	snap, err := s.ensure()
	if err != nil {
		return nil, err
	}

	todayISO := s.Now().UTC().Format("2006-01-02")
	byPath := make(map[string]ScheduleItem)
	var order []string

	for _, entry := range snap.schedule {
		if entry.PublishDate < todayISO {
			continue
		}
		existing, ok := byPath[entry.Path]
		if !ok {
			byPath[entry.Path] = entry
			order = append(order, entry.Path)
			continue
		}
		if entry.PublishDate < existing.PublishDate {
			byPath[entry.Path] = entry
		}
	}

	upcoming := make([]ScheduleItem, 0, len(order))
	for _, path := range order {
		upcoming = append(upcoming, byPath[path])
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].PublishDate < upcoming[j].PublishDate
	})
	return upcoming, nil
}

// Filter returns published records whose title, path, category, or
// subcategory contains the query, case-insensitively.
func (s *Store) Filter(query string) ([]*Record, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil, nil
	}

	published, err := s.Published()
	if err != nil {
		return nil, err
	}

	var matches []*Record
	for _, record := range published {
		if strings.Contains(strings.ToLower(record.Title), normalized) ||
			strings.Contains(strings.ToLower(record.FullPath), normalized) ||
			strings.Contains(strings.ToLower(record.Category), normalized) ||
			strings.Contains(strings.ToLower(record.Subcategory), normalized) {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

var multiSlash = regexp.MustCompile(`/+`)

// NormalizePath collapses repeated slashes, forces a leading "/", and strips
// any trailing slash.
func NormalizePath(slug string) (string, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return "", fmt.Errorf("slug cannot be empty")
	}

	normalized := multiSlash.ReplaceAllString(trimmed, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if len(normalized) > 1 {
		normalized = strings.TrimRight(normalized, "/")
	}
	return normalized, nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// ToSlug lowercases a label and replaces non-alphanumeric runs with hyphens.
func ToSlug(input string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "-")
	return strings.Trim(slug, "-")
}

func rowToRecord(header []string, values []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, key := range header {
		if i < len(values) {
			row[key] = values[i]
		} else {
			row[key] = ""
		}
	}
	return row
}

func splitSegments(fullPath string) []string {
	var segments []string
	for _, part := range strings.Split(fullPath, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func parseTraffic(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}

// normalizeDate parses loosely-formatted dates (1/2/2025, 2025-01-02, ...)
// to an ISO date. Unparseable input yields "".
func normalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return ""
	}
	return parsed.UTC().Format("2006-01-02")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
