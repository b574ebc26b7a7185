package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"staybook/internal/app/fault"
	"staybook/internal/app/policies"
	"staybook/internal/domain/rates"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// Client talks to the property-management system over HTTP. Only the mapping
// lives here; the contract is policies.PMSPort. Prices cross the wire as
// decimal major-unit strings and are converted once at this boundary.
type Client struct {
	Client  *http.Client
	BaseURL string
	Logger  *slog.Logger
}

var errNotConfigured = errors.New("pms: http client not configured")

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: baseURL,
		Logger:  logger,
	}
}

type availabilityResponse struct {
	Available bool    `json:"available"`
	Price     *string `json:"price"`
	Currency  string  `json:"currency"`
	Rejection *struct {
		Reason    string `json:"reason"`
		Threshold int    `json:"threshold"`
		Detail    string `json:"detail"`
	} `json:"rejection"`
}

func (c *Client) CheckAvailability(ctx context.Context, creds policies.PMSCredentials, q policies.AvailabilityQuery) (policies.AvailabilityResult, error) {
	var zero policies.AvailabilityResult

	query := url.Values{}
	query.Set("listingId", q.PMSListingID)
	query.Set("checkIn", daterange.DateKey(q.CheckIn))
	query.Set("checkOut", daterange.DateKey(q.CheckOut))
	query.Set("guests", fmt.Sprintf("%d", q.Guests))

	var resp availabilityResponse
	if err := c.do(ctx, creds, http.MethodGet, "/v1/availability?"+query.Encode(), nil, &resp); err != nil {
		return zero, err
	}

	result := policies.AvailabilityResult{
		AvailableListingIDs: map[string]struct{}{},
		PriceByListing:      map[string]money.Money{},
		RejectionByListing:  map[string]policies.RejectionInfo{},
	}
	if resp.Available {
		result.AvailableListingIDs[q.PMSListingID] = struct{}{}
	} else if resp.Rejection != nil {
		result.RejectionByListing[q.PMSListingID] = policies.RejectionInfo{
			Code:      normalizeReason(resp.Rejection.Reason),
			Threshold: resp.Rejection.Threshold,
			Detail:    resp.Rejection.Detail,
		}
	} else {
		result.RejectionByListing[q.PMSListingID] = policies.RejectionInfo{Code: policies.RejectionOther}
	}
	if resp.Price != nil && resp.Currency != "" {
		price, err := money.ParseMajor(*resp.Price, resp.Currency)
		if err == nil {
			result.PriceByListing[q.PMSListingID] = price
		} else if c.Logger != nil {
			c.Logger.Warn("pms returned unparsable price", "listing_id", q.PMSListingID, "price", *resp.Price)
		}
	}
	return result, nil
}

// normalizeReason maps PMS-specific rejection reasons onto the portal's
// uniform codes.
func normalizeReason(reason string) policies.RejectionCode {
	switch reason {
	case "MIN_STAY", "minimumStay":
		return policies.RejectionMinStay
	case "MAX_GUESTS", "guestCount":
		return policies.RejectionGuestCount
	case "LEAD_TIME", "advanceNotice":
		return policies.RejectionLeadTime
	case "CHECKIN_DAY", "arrivalDay":
		return policies.RejectionArrivalWeekday
	default:
		return policies.RejectionOther
	}
}

type calendarResponse struct {
	Days []struct {
		Date      string  `json:"date"`
		Price     *string `json:"price"`
		MinStay   *int    `json:"minStay"`
		Available bool    `json:"available"`
	} `json:"days"`
}

func (c *Client) FetchRates(ctx context.Context, creds policies.PMSCredentials, pmsListingID string, start, end time.Time) (rates.RateTable, error) {
	query := url.Values{}
	query.Set("listingId", pmsListingID)
	query.Set("startDate", daterange.DateKey(start))
	query.Set("endDate", daterange.DateKey(end))

	var resp calendarResponse
	if err := c.do(ctx, creds, http.MethodGet, "/v1/calendar?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	days := make([]rates.RateDay, 0, len(resp.Days))
	for _, d := range resp.Days {
		date, err := time.Parse(daterange.DateKeyLayout, d.Date)
		if err != nil {
			if c.Logger != nil {
				c.Logger.Warn("pms calendar day has invalid date", "date", d.Date)
			}
			continue
		}
		day := rates.RateDay{Date: date, MinLengthOfStay: d.MinStay, Available: d.Available}
		if d.Price != nil {
			if minor, err := money.ParseMinorUnits(*d.Price); err == nil {
				day.Price = &minor
			}
		}
		days = append(days, day)
	}
	return rates.NewRateTable(days), nil
}

type reservationRequest struct {
	ListingID  string `json:"listingId"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Guests     int    `json:"guests"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	GuestPhone string `json:"guestPhone,omitempty"`
	Price      string `json:"price"`
	Currency   string `json:"currency"`
	Note       string `json:"note,omitempty"`
}

type reservationResponse struct {
	ReservationID string `json:"reservationId"`
}

func (c *Client) CreateReservation(ctx context.Context, creds policies.PMSCredentials, req policies.ReservationRequest) (string, error) {
	payload := reservationRequest{
		ListingID:  req.PMSListingID,
		CheckIn:    daterange.DateKey(req.CheckIn),
		CheckOut:   daterange.DateKey(req.CheckOut),
		Guests:     req.Guests,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
		Price:      req.TotalPrice.Major(),
		Currency:   req.TotalPrice.Currency,
		Note:       req.Note,
	}
	var resp reservationResponse
	if err := c.do(ctx, creds, http.MethodPost, "/v1/reservations", payload, &resp); err != nil {
		return "", err
	}
	if resp.ReservationID == "" {
		return "", fault.New(fault.ServiceUnavailable, "pms_bad_response", "pms returned no reservation id")
	}
	return resp.ReservationID, nil
}

func (c *Client) CancelReservation(ctx context.Context, creds policies.PMSCredentials, externalReservationID string) error {
	return c.do(ctx, creds, http.MethodDelete, "/v1/reservations/"+url.PathEscape(externalReservationID), nil, nil)
}

func (c *Client) do(ctx context.Context, creds policies.PMSCredentials, method, path string, body, out any) error {
	if c == nil || c.Client == nil || c.BaseURL == "" {
		return errNotConfigured
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+creds.APIKey)
	if creds.AccountID != "" {
		request.Header.Set("X-Account-ID", creds.AccountID)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(request)
	if err != nil {
		// Timeouts land here too and are treated like any other failure.
		return fault.Wrap(fault.ServiceUnavailable, "pms_unreachable", "pms unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("pms returned status %d: %s", resp.StatusCode, string(snippet))
		if c.Logger != nil {
			c.Logger.Error("pms request failed", "method", method, "path", path, "status", resp.StatusCode)
		}
		return fault.Wrap(fault.ServiceUnavailable, "pms_error", "pms request failed", err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Wrap(fault.ServiceUnavailable, "pms_bad_response", "pms response malformed", err)
	}
	return nil
}

var _ policies.PMSPort = (*Client)(nil)
