package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

// csvHeader is the persisted column order. Field values survive a
// round-trip exactly, including embedded commas and quotes, because
// encoding/csv quotes on write and unquotes on read.
var csvHeader = []string{
	"id", "name", "category", "dailyRate", "maxRate",
	"status", "requiredCert", "minInsurance", "location", "weightClass",
}

// CSVStore is a file-backed inventory. A single store-level mutex
// serializes every read-check-write sequence; the file is rewritten
// through a temp file and rename so readers never see a torn write.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// WriteCSV seeds a store file with the given items, creating parent
// directories as needed.
func WriteCSV(path string, items []contractx.Item) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create inventory dir: %w", err)
	}
	return writeItems(path, items)
}

func (s *CSVStore) ListAvailable(_ context.Context, query string) ([]contractx.Item, error) {
	s.mu.Lock()
	items, err := s.readItems()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return rankAvailable(items, query), nil
}

func (s *CSVStore) Get(_ context.Context, id string) (contractx.Item, error) {
	s.mu.Lock()
	items, err := s.readItems()
	s.mu.Unlock()
	if err != nil {
		return contractx.Item{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return contractx.Item{}, fmt.Errorf("%w: id=%s", contractx.ErrNotFound, id)
}

// TryReserve holds the store mutex for the whole read-check-write, so
// two concurrent reservations of the same file cannot both observe
// AVAILABLE.
func (s *CSVStore) TryReserve(_ context.Context, id string) (contractx.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readItems()
	if err != nil {
		return contractx.Reservation{}, err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return contractx.Reservation{}, fmt.Errorf("%w: id=%s", contractx.ErrNotFound, id)
	}
	if items[idx].Status != contractx.StatusAvailable {
		return contractx.Reservation{CurrentStatus: items[idx].Status}, nil
	}

	items[idx].Status = contractx.StatusRented
	if err := writeItems(s.path, items); err != nil {
		return contractx.Reservation{}, err
	}
	return contractx.Reservation{
		Committed: true,
		Ref:       newBookingRef(id),
	}, nil
}

func (s *CSVStore) readItems() ([]contractx.Item, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open inventory file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read inventory csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("inventory csv has no header row")
	}

	items := make([]contractx.Item, 0, len(records)-1)
	for i, rec := range records[1:] {
		item, err := recordToItem(rec)
		if err != nil {
			return nil, fmt.Errorf("inventory csv row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func writeItems(path string, items []contractx.Item) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".inventory-*.csv")
	if err != nil {
		return fmt.Errorf("create temp inventory file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write inventory header: %w", err)
	}
	for _, item := range items {
		if err := w.Write(itemToRecord(item)); err != nil {
			tmp.Close()
			return fmt.Errorf("write inventory row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush inventory csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp inventory file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace inventory file: %w", err)
	}
	return nil
}

func itemToRecord(item contractx.Item) []string {
	return []string{
		item.ID,
		item.Name,
		item.Category,
		strconv.FormatFloat(item.DailyRate, 'f', -1, 64),
		strconv.FormatFloat(item.MaxRate, 'f', -1, 64),
		string(item.Status),
		item.RequiredCert,
		strconv.FormatFloat(item.MinInsurance, 'f', -1, 64),
		item.Location,
		item.WeightClass,
	}
}

func recordToItem(rec []string) (contractx.Item, error) {
	if len(rec) != len(csvHeader) {
		return contractx.Item{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(rec))
	}

	dailyRate, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return contractx.Item{}, fmt.Errorf("parse dailyRate: %w", err)
	}
	maxRate, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return contractx.Item{}, fmt.Errorf("parse maxRate: %w", err)
	}
	minInsurance, err := strconv.ParseFloat(rec[7], 64)
	if err != nil {
		return contractx.Item{}, fmt.Errorf("parse minInsurance: %w", err)
	}

	return contractx.Item{
		ID:           rec[0],
		Name:         rec[1],
		Category:     rec[2],
		DailyRate:    dailyRate,
		MaxRate:      maxRate,
		Status:       contractx.ItemStatus(rec[5]),
		RequiredCert: rec[6],
		MinInsurance: minInsurance,
		Location:     rec[8],
		WeightClass:  rec[9],
	}, nil
}
