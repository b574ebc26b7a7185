package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/policies"
	"staybook/internal/domain/rates"
	"staybook/internal/domain/shared/daterange"
)

// RateCache fronts PMS calendar fetches with a short-lived Redis cache. Rates
// change rarely within a minute but are read on every quote and every
// integrity-gate pass; a miss or a Redis outage falls through to the PMS.
type RateCache struct {
	RDB    *redis.Client
	PMS    policies.PMSPort
	TTL    time.Duration
	Logger *slog.Logger
}

func NewRateCache(rdb *redis.Client, pms policies.PMSPort, ttl time.Duration, logger *slog.Logger) *RateCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RateCache{RDB: rdb, PMS: pms, TTL: ttl, Logger: logger}
}

type cachedDay struct {
	Date      string `json:"date"`
	Price     *int64 `json:"price,omitempty"`
	MinStay   *int   `json:"min_stay,omitempty"`
	Available bool   `json:"available"`
}

func (c *RateCache) Rates(ctx context.Context, creds policies.PMSCredentials, pmsListingID string, dr daterange.DateRange) (rates.RateTable, error) {
	key := "rates:" + pmsListingID + ":" + daterange.DateKey(dr.CheckIn) + ":" + daterange.DateKey(dr.CheckOut)

	if c.RDB != nil {
		raw, err := c.RDB.Get(ctx, key).Bytes()
		if err == nil {
			if table, ok := decodeTable(raw); ok {
				return table, nil
			}
		} else if err != redis.Nil && c.Logger != nil {
			c.Logger.Warn("rate cache read failed", "key", key, "error", err)
		}
	}

	table, err := c.PMS.FetchRates(ctx, creds, pmsListingID, dr.CheckIn, dr.CheckOut)
	if err != nil {
		return nil, err
	}

	if c.RDB != nil {
		if raw, err := encodeTable(table); err == nil {
			if err := c.RDB.Set(ctx, key, raw, c.TTL).Err(); err != nil && c.Logger != nil {
				c.Logger.Warn("rate cache write failed", "key", key, "error", err)
			}
		}
	}
	return table, nil
}

func encodeTable(table rates.RateTable) ([]byte, error) {
	days := make([]cachedDay, 0, len(table))
	for key, day := range table {
		days = append(days, cachedDay{
			Date:      key,
			Price:     day.Price,
			MinStay:   day.MinLengthOfStay,
			Available: day.Available,
		})
	}
	return json.Marshal(days)
}

func decodeTable(raw []byte) (rates.RateTable, bool) {
	var days []cachedDay
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false
	}
	out := make([]rates.RateDay, 0, len(days))
	for _, d := range days {
		date, err := time.Parse(daterange.DateKeyLayout, d.Date)
		if err != nil {
			return nil, false
		}
		out = append(out, rates.RateDay{
			Date:            date,
			Price:           d.Price,
			MinLengthOfStay: d.MinStay,
			Available:       d.Available,
		})
	}
	return rates.NewRateTable(out), true
}
