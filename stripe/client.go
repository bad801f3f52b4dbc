package stripe

import (
	"context"
	"errors"
	"fmt"

	"ticketbari/apperr"

	gostripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Client struct {
	api *client.API
}

func NewClient(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &gostripe.CheckoutSessionParams{
		Mode:          gostripe.String(string(gostripe.CheckoutSessionModePayment)),
		SuccessURL:    gostripe.String(req.SuccessURL),
		CancelURL:     gostripe.String(req.CancelURL),
		CustomerEmail: gostripe.String(req.CustomerEmail),
		LineItems: []*gostripe.CheckoutSessionLineItemParams{
			{
				PriceData: &gostripe.CheckoutSessionLineItemPriceDataParams{
					Currency: gostripe.String(req.Currency),
					ProductData: &gostripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: gostripe.String(req.ProductName),
					},
					UnitAmount: gostripe.Int64(req.UnitAmount),
				},
				Quantity: gostripe.Int64(req.Quantity),
			},
		},
	}
	params.Context = ctx
	params.Metadata = req.Metadata

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, translate("create checkout session", err)
	}
	return fromStripe(s), nil
}

func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	params := &gostripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return Session{}, translate("get checkout session "+id, err)
	}
	return fromStripe(s), nil
}

func (c *Client) ListLineItems(ctx context.Context, id string) ([]LineItem, error) {
	params := &gostripe.CheckoutSessionListLineItemsParams{Session: gostripe.String(id)}
	params.Context = ctx

	var items []LineItem
	iter := c.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		items = append(items, LineItem{Description: li.Description, Quantity: li.Quantity})
	}
	if err := iter.Err(); err != nil {
		return nil, translate("list line items "+id, err)
	}
	return items, nil
}

func fromStripe(s *gostripe.CheckoutSession) Session {
	out := Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Status:        string(s.Status),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}

func translate(op string, err error) error {
	var se *gostripe.Error
	if errors.As(err, &se) && se.Code == gostripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, op, err)
}
