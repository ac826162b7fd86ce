package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
	"github.com/chrisdamba/tillmetrics/internal/repositories"
)

const (
	OrdersTopic   = "orders"
	ProductsTopic = "products"
	maxLineBytes  = 1 << 20
)

var _ repositories.OrderSource = (*Source)(nil)

// Source reads the JSON-lines tree written by the JSON sink:
// <root>/<topic>/year=YYYY/month=MM/day=DD/data.json, one record per line.
type Source struct {
	root   string
	logger *slog.Logger
}

func NewSource(root string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{root: root, logger: logger}
}

// Orders loads every order, or only those inside r when it is non-nil.
// Records that fail validation are logged and skipped.
func (s *Source) Orders(ctx context.Context, r *models.DateRange) ([]models.Order, error) {
	var orders []models.Order
	skipped := 0
	err := s.walk(ctx, OrdersTopic, r, func(path string, line []byte) error {
		var o models.Order
		if err := json.Unmarshal(line, &o); err != nil {
			return fmt.Errorf("decode order in %s: %w", path, err)
		}
		if err := o.Validate(); err != nil {
			skipped++
			s.logger.Warn("skipping order", "path", path, "error", err)
			return nil
		}
		if r != nil && !r.Contains(o.Timestamp) {
			return nil
		}
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.Before(orders[j].Timestamp)
	})
	s.logger.Debug("loaded orders", "root", s.root, "orders", len(orders), "skipped", skipped)
	return orders, nil
}

func (s *Source) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.walk(ctx, ProductsTopic, nil, func(path string, line []byte) error {
		var p models.Product
		if err := json.Unmarshal(line, &p); err != nil {
			return fmt.Errorf("decode product in %s: %w", path, err)
		}
		products = append(products, p)
		return nil
	})
	return products, err
}

func (s *Source) walk(ctx context.Context, topic string, r *models.DateRange, fn func(path string, line []byte) error) error {
	dir := filepath.Join(s.root, topic)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if r != nil && outsideRange(path, r) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		return readLines(path, fn)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no %s found under %s: %w", topic, s.root, err)
	}
	return err
}

func readLines(path string, fn func(path string, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(path, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// outsideRange reports whether a day=DD partition directory cannot hold
// any order of r. Partitions are cut in UTC.
func outsideRange(path string, r *models.DateRange) bool {
	day, ok := partitionDay(path)
	if !ok {
		return false
	}
	next := day.AddDate(0, 0, 1)
	return !next.After(r.Start) || day.After(r.End)
}

func partitionDay(path string) (time.Time, bool) {
	var year, month, day int
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, false
		}
		switch key {
		case "year":
			year = n
		case "month":
			month = n
		case "day":
			day = n
		}
	}
	if year == 0 || month == 0 || day == 0 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
