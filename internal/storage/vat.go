package storage

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"bizdesk-service/internal/model"
)

func (s *GormStore) ListVatRates(ctx context.Context) ([]model.VatRate, error) {
	return list[model.VatRate](ctx, s, "list vat rates", nil)
}

func (s *GormStore) GetVatRate(ctx context.Context, id uint) (*model.VatRate, error) {
	return get[model.VatRate](ctx, s, "get vat rate", id)
}

func (s *GormStore) CreateVatRate(ctx context.Context, r *model.VatRate) error {
	return create(ctx, s, "create vat rate", r)
}

// UpdateVatRate rejects a patch that leaves validTo before validFrom.
func (s *GormStore) UpdateVatRate(ctx context.Context, id uint, patch model.Patch) (*model.VatRate, error) {
	const op = "update vat rate"
	var out *model.VatRate
	err := s.transaction(ctx, op, "update", func(tx *gorm.DB) error {
		r, err := applyPatch[model.VatRate](tx, id, patch)
		if err != nil {
			return err
		}
		if r.ValidTo != nil && r.ValidTo.Before(r.ValidFrom) {
			return conflict(op, "validTo must not be before validFrom")
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteVatRate fails with ErrConflict while products or transactions use
// the rate.
func (s *GormStore) DeleteVatRate(ctx context.Context, id uint) error {
	return remove[model.VatRate](ctx, s, "delete vat rate", id)
}

func (s *GormStore) ActiveVatRate(ctx context.Context, date time.Time) (*model.VatRate, error) {
	var r model.VatRate
	err := s.run(ctx, "active vat rate", "query", func(db *gorm.DB) error {
		return db.Where("valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)", date, date).
			Order("valid_from DESC").Order("id DESC").
			First(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) ListVatTransactions(ctx context.Context, filter VatTransactionFilter) ([]model.VatTransaction, error) {
	return list[model.VatTransaction](ctx, s, "list vat transactions", func(db *gorm.DB) *gorm.DB {
		if filter.Period != "" {
			db = db.Where("reporting_period = ?", filter.Period)
		}
		if filter.Reported != nil {
			db = db.Where("reported = ?", *filter.Reported)
		}
		return db
	})
}

func (s *GormStore) GetVatTransaction(ctx context.Context, id uint) (*model.VatTransaction, error) {
	return get[model.VatTransaction](ctx, s, "get vat transaction", id)
}

func (s *GormStore) CreateVatTransaction(ctx context.Context, tx *model.VatTransaction) error {
	return create(ctx, s, "create vat transaction", tx)
}

func (s *GormStore) UpdateVatTransaction(ctx context.Context, id uint, patch model.Patch) (*model.VatTransaction, error) {
	return update[model.VatTransaction](ctx, s, "update vat transaction", id, patch)
}

func (s *GormStore) DeleteVatTransaction(ctx context.Context, id uint) error {
	return remove[model.VatTransaction](ctx, s, "delete vat transaction", id)
}

// MarkVatTransactionsReported is a single UPDATE, so it is atomic on its own.
func (s *GormStore) MarkVatTransactionsReported(ctx context.Context, period string) (int64, error) {
	var n int64
	err := s.run(ctx, "mark vat transactions reported", "update", func(db *gorm.DB) error {
		res := db.Model(&model.VatTransaction{}).
			Where("reporting_period = ? AND reported = ?", period, false).
			Update("reported", true)
		n = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// VatReport sums the transactions of period per VAT rate. Amounts are added
// as decimals in Go so every dialect yields the same totals.
func (s *GormStore) VatReport(ctx context.Context, period string) (*model.VatReport, error) {
	report := &model.VatReport{Period: period, Lines: []model.VatReportLine{}}
	err := s.run(ctx, "vat report", "query", func(db *gorm.DB) error {
		var txs []model.VatTransaction
		err := db.Select("vat_rate_id", "net_amount", "vat_amount", "reported").
			Where("reporting_period = ?", period).
			Find(&txs).Error
		if err != nil {
			return err
		}

		lines := map[uint]*model.VatReportLine{}
		for _, t := range txs {
			line, ok := lines[t.VatRateID]
			if !ok {
				line = &model.VatReportLine{VatRateID: t.VatRateID}
				lines[t.VatRateID] = line
			}
			line.Transactions++
			line.NetAmount = line.NetAmount.Add(t.NetAmount)
			line.VatAmount = line.VatAmount.Add(t.VatAmount)
			if t.Reported {
				line.Reported++
			} else {
				report.Unreported++
			}
			report.NetTotal = report.NetTotal.Add(t.NetAmount)
			report.VatTotal = report.VatTotal.Add(t.VatAmount)
		}
		if len(lines) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(lines))
		for id := range lines {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		var rates []model.VatRate
		if err := db.Select("id", "name").Where("id IN ?", ids).Find(&rates).Error; err != nil {
			return err
		}
		for _, r := range rates {
			lines[r.ID].RateName = r.Name
		}
		for _, id := range ids {
			report.Lines = append(report.Lines, *lines[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
