package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	_, err := r.col.InsertOne(ctx, newBookingDocument(b))
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *BookingRepository) BySessionID(ctx context.Context, sessionID string) (*domainbooking.Booking, error) {
	return r.findOne(ctx, bson.M{"payment_session_id": sessionID})
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// ConfirmPending is the settlement idempotency gate. The filter matches only
// a PENDING row for the session: out of any number of concurrent webhook
// deliveries exactly one observes the pending document, the rest see a
// confirmed row and get ErrAlreadyConfirmed.
func (r *BookingRepository) ConfirmPending(ctx context.Context, sessionID, paymentIntentID string, paidAt time.Time) (*domainbooking.Booking, error) {
	now := paidAt.UTC()
	filter := bson.M{
		"payment_session_id": sessionID,
		"status":             string(domainbooking.StatusPending),
	}
	update := bson.M{"$set": bson.M{
		"status":            string(domainbooking.StatusConfirmed),
		"payment_intent_id": paymentIntentID,
		"paid_at":           now.UnixMilli(),
		"updated_at":        now.UnixMilli(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// No pending row: either the session is unknown or the promotion
		// already happened. Distinguish with a plain read.
		existing, lookupErr := r.BySessionID(ctx, sessionID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing.Status == domainbooking.StatusPending {
			// The row appeared between the update and the read. A transient
			// error makes the processor ask for a redelivery.
			return nil, errors.New("mongo: pending booking raced the confirm, retry")
		}
		return nil, domainbooking.ErrAlreadyConfirmed
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) SetExternalReservation(ctx context.Context, id domainbooking.BookingID, externalReservationID string) error {
	update := bson.M{"$set": bson.M{
		"external_reservation_id": externalReservationID,
		"updated_at":              time.Now().UTC().UnixMilli(),
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": string(id)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) MarkCancelled(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	update := bson.M{"$set": bson.M{
		"status":     string(domainbooking.StatusCancelled),
		"updated_at": time.Now().UTC().UnixMilli(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bookingDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": string(id)}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domainbooking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

// EnsureIndexes creates the unique session-id index the webhook lookup and the
// conditional confirm both rely on.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "payment_session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "range.check_in", Value: 1}},
		},
	})
	return err
}

type bookingDocument struct {
	ID                    string        `bson:"_id"`
	ListingID             string        `bson:"listing_id"`
	GuestUserID           string        `bson:"guest_user_id"`
	Range                 rangeDocument `bson:"range"`
	Nights                int           `bson:"nights"`
	Guests                int           `bson:"guests"`
	TotalMinor            int64         `bson:"total_minor"`
	Currency              string        `bson:"currency"`
	GuestNote             string        `bson:"guest_note,omitempty"`
	GuestName             string        `bson:"guest_name"`
	GuestEmail            string        `bson:"guest_email"`
	GuestPhone            string        `bson:"guest_phone,omitempty"`
	Status                string        `bson:"status"`
	PaymentSessionID      string        `bson:"payment_session_id"`
	PaymentIntentID       string        `bson:"payment_intent_id,omitempty"`
	ExternalReservationID string        `bson:"external_reservation_id,omitempty"`
	CreatedAt             int64         `bson:"created_at"`
	PaidAt                *int64        `bson:"paid_at,omitempty"`
	UpdatedAt             int64         `bson:"updated_at"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                    string(b.ID),
		ListingID:             b.ListingID,
		GuestUserID:           b.GuestUserID,
		Range:                 rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Nights:                b.Nights,
		Guests:                b.Guests,
		TotalMinor:            b.TotalPrice.Amount,
		Currency:              b.TotalPrice.Currency,
		GuestNote:             b.GuestNote,
		GuestName:             b.Guest.Name,
		GuestEmail:            b.Guest.Email,
		GuestPhone:            b.Guest.Phone,
		Status:                string(b.Status),
		PaymentSessionID:      b.PaymentSessionID,
		PaymentIntentID:       b.PaymentIntentID,
		ExternalReservationID: b.ExternalReservationID,
		CreatedAt:             b.CreatedAt.UnixMilli(),
		UpdatedAt:             b.UpdatedAt.UnixMilli(),
	}
	if b.PaidAt != nil {
		ms := b.PaidAt.UnixMilli()
		doc.PaidAt = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		ListingID:   d.ListingID,
		GuestUserID: d.GuestUserID,
		Range: domainrange.DateRange{
			CheckIn:  timestampToTime(d.Range.CheckIn),
			CheckOut: timestampToTime(d.Range.CheckOut),
		},
		Nights:                d.Nights,
		Guests:                d.Guests,
		TotalPrice:            money.Money{Amount: d.TotalMinor, Currency: d.Currency},
		GuestNote:             d.GuestNote,
		Guest:                 domainbooking.GuestContact{Name: d.GuestName, Email: d.GuestEmail, Phone: d.GuestPhone},
		Status:                domainbooking.Status(d.Status),
		PaymentSessionID:      d.PaymentSessionID,
		PaymentIntentID:       d.PaymentIntentID,
		ExternalReservationID: d.ExternalReservationID,
		CreatedAt:             timestampToTime(d.CreatedAt),
		UpdatedAt:             timestampToTime(d.UpdatedAt),
	}
	if d.PaidAt != nil {
		paid := timestampToTime(*d.PaidAt)
		b.PaidAt = &paid
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
