package eventsource

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// eventRow is the gorm model backing SQLStore, mirroring the teacher pack's
// convention (hoanguyenkh-uniswap-v3-simulator's CorePool/gorm.Model rows)
// of persisting domain events as flat SQL rows with string-encoded big
// integers.
type eventRow struct {
	gorm.Model
	TxID      int64  `gorm:"uniqueIndex"`
	Signature string
	PoolID    string `gorm:"index"`
	BlockTime int64
	Kind      int
	TokenIn   int
	AmountIn  string
	AmountOut string
	Lower     int32
	Upper     int32
	Liquidity string
}

func (eventRow) TableName() string { return "pool_events" }

// SQLStore is a Source backed by gorm + the pure-Go glebarez/sqlite driver
// (no cgo). It demonstrates how a persistence-backed EventSource satisfies
// the abstract contract; spec.md §1 scopes the actual ingestion/repository
// layer out, so this implementation only reads rows already written by an
// external loader via Seed.
type SQLStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

// OpenSQLStore opens (or creates) a sqlite database at path and migrates the
// event table.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("eventsource: open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("eventsource: migrate: %w", err)
	}
	return &SQLStore{db: db, log: logrus.WithField("component", "eventsource.SQLStore")}, nil
}

// Seed bulk-inserts events, as an external ingestion job would. Not part of
// the Source interface; it exists purely so tests/examples can populate a
// SQLStore without a real chain-data collaborator.
func (s *SQLStore) Seed(ctx context.Context, events []Event) error {
	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, toRow(e))
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(rows, 500).Error
}

// FetchEvents implements Source.
func (s *SQLStore) FetchEvents(ctx context.Context, poolID string, cursor *Cursor, batchSize int64) ([]Event, error) {
	q := s.db.WithContext(ctx).Where("pool_id = ?", poolID)

	direction := Ascending
	if cursor != nil {
		direction = cursor.Direction
		// cursor.TxID is the next value to fetch, inclusive (spec.md §4.4).
		if direction == Ascending {
			q = q.Where("tx_id >= ?", cursor.TxID).Order("tx_id asc")
		} else {
			q = q.Where("tx_id <= ?", cursor.TxID).Order("tx_id desc")
		}
	} else {
		q = q.Order("tx_id asc")
	}

	var rows []eventRow
	if err := q.Limit(int(batchSize)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("eventsource: fetch events: %w", err)
	}

	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		ev, err := fromRow(r)
		if err != nil {
			s.log.WithError(err).Warn("skipping malformed event row")
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// LatestSwap implements Source.
func (s *SQLStore) LatestSwap(ctx context.Context, poolID string) (*Event, error) {
	var row eventRow
	err := s.db.WithContext(ctx).
		Where("pool_id = ? AND kind = ?", poolID, int(Swap)).
		Order("tx_id desc").
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("eventsource: latest swap: %w", err)
	}
	ev, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func toRow(e Event) eventRow {
	row := eventRow{
		TxID:      e.TxID,
		Signature: e.Signature,
		PoolID:    e.PoolID,
		BlockTime: e.BlockTime,
		Kind:      int(e.Kind),
		TokenIn:   int(e.TokenIn),
		Lower:     e.Lower,
		Upper:     e.Upper,
	}
	if e.AmountIn != nil {
		row.AmountIn = e.AmountIn.String()
	}
	if e.AmountOut != nil {
		row.AmountOut = e.AmountOut.String()
	}
	if e.Liquidity != nil {
		row.Liquidity = e.Liquidity.String()
	}
	return row
}

func fromRow(r eventRow) (Event, error) {
	e := Event{
		TxID:      r.TxID,
		Signature: r.Signature,
		PoolID:    r.PoolID,
		BlockTime: r.BlockTime,
		Kind:      EventKind(r.Kind),
		TokenIn:   TokenSide(r.TokenIn),
		Lower:     r.Lower,
		Upper:     r.Upper,
	}
	var err error
	if r.AmountIn != "" {
		if e.AmountIn, err = parseU256(r.AmountIn); err != nil {
			return Event{}, err
		}
	}
	if r.AmountOut != "" {
		if e.AmountOut, err = parseU256(r.AmountOut); err != nil {
			return Event{}, err
		}
	}
	if r.Liquidity != "" {
		if e.Liquidity, err = parseU256(r.Liquidity); err != nil {
			return Event{}, err
		}
	}
	return e, nil
}

func parseU256(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("eventsource: bad u256 %q: %w", s, err)
	}
	return v, nil
}
