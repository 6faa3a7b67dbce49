package client

import (
	"context"
	"net/url"
	"strconv"

	"tablebook/pkg/model"
)

type BookingsClient struct {
	httpClient *HttpClient
}

func NewBookingsClient(httpClient *HttpClient) *BookingsClient {
	return &BookingsClient{httpClient: httpClient}
}

// Availability fetches the time slots of one date for a party size.
func (c *BookingsClient) Availability(ctx context.Context, date string, guests int) (*model.Availability, error) {
	q := url.Values{}
	q.Set("guest_count", strconv.Itoa(guests))

	path := "/bookings/availability/" + url.PathEscape(date) + "?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}

	var availability model.Availability
	if err := decode(resp, &availability); err != nil {
		return nil, err
	}
	if availability.Date == "" {
		availability.Date = date
	}
	return &availability, nil
}

func (c *BookingsClient) Create(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error) {
	resp, err := c.httpClient.POST(ctx, "/bookings", req)
	if err != nil {
		return nil, err
	}
	var created model.BookingResponse
	if err := decode(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Webhook reports a payment result. It is the test path that stands in for
// the payment provider's callback.
func (c *BookingsClient) Webhook(ctx context.Context, bookingID int, status model.PaymentStatus) error {
	body := model.PaymentWebhook{
		BookingID:     bookingID,
		PaymentStatus: status,
	}
	resp, err := c.httpClient.POST(ctx, "/bookings/"+strconv.Itoa(bookingID)+"/webhook", body)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}
