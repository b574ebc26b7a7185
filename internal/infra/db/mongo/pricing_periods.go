package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainpricing "staybook/internal/domain/pricing"
)

type PricingPeriodRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewPricingPeriodRepository(db *mongo.Database) *PricingPeriodRepository {
	return &PricingPeriodRepository{db: db, col: db.Collection("pricing_periods")}
}

func (r *PricingPeriodRepository) ListByListing(ctx context.Context, listingID string) ([]domainpricing.Period, error) {
	cursor, err := r.col.Find(ctx, bson.M{"listing_id": listingID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var periods []domainpricing.Period
	for cursor.Next(ctx) {
		var doc periodDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		periods = append(periods, doc.toPeriod())
	}
	return periods, cursor.Err()
}

// ApplyPlan writes a reconciliation plan in a single transaction so readers
// never observe the override set mid-split.
func (r *PricingPeriodRepository) ApplyPlan(ctx context.Context, listingID string, plan domainpricing.Plan) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if len(plan.ToDelete) > 0 {
			filter := bson.M{"_id": bson.M{"$in": plan.ToDelete}, "listing_id": listingID}
			if _, err := r.col.DeleteMany(sc, filter); err != nil {
				return nil, err
			}
		}
		for _, p := range plan.ToUpdate {
			filter := bson.M{"_id": p.ID, "listing_id": listingID}
			if _, err := r.col.ReplaceOne(sc, filter, newPeriodDocument(p)); err != nil {
				return nil, err
			}
		}
		if len(plan.ToAdd) > 0 {
			docs := make([]any, 0, len(plan.ToAdd))
			for _, p := range plan.ToAdd {
				docs = append(docs, newPeriodDocument(p))
			}
			if _, err := r.col.InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

type periodDocument struct {
	ID                string `bson:"_id"`
	ListingID         string `bson:"listing_id"`
	StartDate         int64  `bson:"start_date"`
	EndDate           int64  `bson:"end_date"`
	PriceMinor        *int64 `bson:"price_minor,omitempty"`
	PercentAdjustment *int   `bson:"percent_adjustment,omitempty"`
	Label             string `bson:"label,omitempty"`
}

func newPeriodDocument(p domainpricing.Period) periodDocument {
	return periodDocument{
		ID:                p.ID,
		ListingID:         p.ListingID,
		StartDate:         p.StartDate.UnixMilli(),
		EndDate:           p.EndDate.UnixMilli(),
		PriceMinor:        p.PriceMinor,
		PercentAdjustment: p.PercentAdjustment,
		Label:             p.Label,
	}
}

func (d periodDocument) toPeriod() domainpricing.Period {
	return domainpricing.Period{
		ID:                d.ID,
		ListingID:         d.ListingID,
		StartDate:         time.UnixMilli(d.StartDate).UTC(),
		EndDate:           time.UnixMilli(d.EndDate).UTC(),
		PriceMinor:        d.PriceMinor,
		PercentAdjustment: d.PercentAdjustment,
		Label:             d.Label,
	}
}
