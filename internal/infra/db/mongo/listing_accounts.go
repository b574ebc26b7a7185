package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/app/policies"
)

var ErrListingNotFound = errors.New("mongo: listing account not found")

// ListingAccountRepository resolves a portal listing to its owning account's
// PMS routing: external listing id, currency and API credentials.
type ListingAccountRepository struct {
	col *mongo.Collection
}

func NewListingAccountRepository(db *mongo.Database) *ListingAccountRepository {
	return &ListingAccountRepository{col: db.Collection("listing_accounts")}
}

type listingAccountDocument struct {
	ListingID    string `bson:"_id"`
	PMSListingID string `bson:"pms_listing_id"`
	OwnerUserID  string `bson:"owner_user_id"`
	Currency     string `bson:"currency"`
	AccountID    string `bson:"account_id"`
	APIKey       string `bson:"api_key"`
}

func (r *ListingAccountRepository) ResolveListing(ctx context.Context, listingID string) (policies.ListingAccess, error) {
	var doc listingAccountDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": listingID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return policies.ListingAccess{}, ErrListingNotFound
		}
		return policies.ListingAccess{}, err
	}
	return policies.ListingAccess{
		ListingID:    doc.ListingID,
		PMSListingID: doc.PMSListingID,
		OwnerUserID:  doc.OwnerUserID,
		Currency:     doc.Currency,
		Credentials:  policies.PMSCredentials{AccountID: doc.AccountID, APIKey: doc.APIKey},
	}, nil
}

var _ policies.CredentialsPort = (*ListingAccountRepository)(nil)
