package trades

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/spreadscreener/internal/contracts"
)

// FileStore keeps one JSON document per trade in a folder
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir (created on first save)
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

var _ contracts.TradeStore = (*FileStore)(nil)

// FileName is TICKER_MM-DD-YYYY_<first 5 chars of id>.json
func FileName(trade contracts.CallCreditSpreadTrade) string {
	id := trade.ID
	if len(id) > 5 {
		id = id[:5]
	}
	return fmt.Sprintf("%s_%s_%s.json", trade.Ticker(), trade.DateOpened.Format("01-02-2006"), id)
}

// Save writes trade, replacing the previous version of the same file
func (s *FileStore) Save(ctx context.Context, trade *contracts.CallCreditSpreadTrade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create trades folder: %w", err)
	}

	data, err := json.MarshalIndent(trade, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trade %s: %w", trade.ID, err)
	}

	path := filepath.Join(s.dir, FileName(*trade))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write trade %s: %w", trade.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write trade %s: %w", trade.ID, err)
	}
	return nil
}

// Get finds a trade by full id
func (s *FileStore) Get(ctx context.Context, id string) (*contracts.CallCreditSpreadTrade, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("trade %s: %w", id, ErrTradeNotFound)
}

// List reads every trade file, oldest first. A missing folder is no trades.
func (s *FileStore) List(ctx context.Context) ([]contracts.CallCreditSpreadTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []contracts.CallCreditSpreadTrade{}, nil
		}
		return nil, fmt.Errorf("failed to read trades folder: %w", err)
	}

	trades := make([]contracts.CallCreditSpreadTrade, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		var trade contracts.CallCreditSpreadTrade
		if err := json.Unmarshal(data, &trade); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", entry.Name(), err)
		}
		trades = append(trades, trade)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].DateOpened.Before(trades[j].DateOpened)
	})
	return trades, nil
}
