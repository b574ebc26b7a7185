package policies

import "context"

// PMSCredentials authenticate against the channel manager on behalf of a
// listing's owner.
type PMSCredentials struct {
	AccountID string
	APIKey    string
}

// ListingAccess resolves the portal-side listing to everything the pipeline
// needs to talk to external services on its behalf.
type ListingAccess struct {
	ListingID    string
	PMSListingID string
	OwnerUserID  string
	Currency     string
	Credentials  PMSCredentials
}

// CredentialsPort is the credential store collaborator: listing → owning
// account → PMS credentials and currency routing. Passed explicitly into the
// verifier and issuer rather than looked up ambiently.
type CredentialsPort interface {
	ResolveListing(ctx context.Context, listingID string) (ListingAccess, error)
}
