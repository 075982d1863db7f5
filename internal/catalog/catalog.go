package catalog

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/powerzone/gymclient/internal/api"
	"github.com/powerzone/gymclient/internal/domain"
)

// Client is a thin fetch layer over the catalog endpoints: products,
// equipment, bookable sessions and product ratings.
type Client struct {
	api    *api.Client
	logger *zap.Logger
}

func NewClient(apiClient *api.Client, logger *zap.Logger) *Client {
	return &Client{
		api:    apiClient,
		logger: logger,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.api.Get(ctx, "/products", &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (c *Client) ListEquipment(ctx context.Context) ([]domain.Equipment, error) {
	var equipment []domain.Equipment
	if err := c.api.Get(ctx, "/equipments", &equipment); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return equipment, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]domain.Session, error) {
	var sessions []domain.Session
	if err := c.api.Get(ctx, "/sessions", &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DaySchedule groups the sessions of one calendar date.
type DaySchedule struct {
	Date     string
	Sessions []domain.Session
}

// GroupSessionsByDate builds the booking page listing: one group per
// date, dates ascending, sessions within a day ordered by start time.
func GroupSessionsByDate(sessions []domain.Session) []DaySchedule {
	byDate := make(map[string][]domain.Session)
	for _, s := range sessions {
		byDate[s.Date] = append(byDate[s.Date], s)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates) // dates are ISO formatted, lexical order is chronological

	out := make([]DaySchedule, 0, len(dates))
	for _, date := range dates {
		day := byDate[date]
		sort.Slice(day, func(i, j int) bool {
			if day[i].StartTime != day[j].StartTime {
				return day[i].StartTime < day[j].StartTime
			}
			return day[i].ID < day[j].ID
		})
		out = append(out, DaySchedule{Date: date, Sessions: day})
	}
	return out
}

type ratingRequest struct {
	Stars int `json:"stars"`
}

// SubmitRating posts a star rating for a product and returns the product
// with an optimistically recomputed average. The next catalog fetch
// reconciles with the server's value.
func (c *Client) SubmitRating(ctx context.Context, product domain.Product, stars int) (domain.Product, error) {
	if stars < 1 {
		stars = 1
	}
	if stars > 5 {
		stars = 5
	}

	err := c.api.Post(ctx, fmt.Sprintf("/products/%d/ratings", product.ID), ratingRequest{Stars: stars}, nil)
	if err != nil {
		return product, fmt.Errorf("submit rating: %w", err)
	}

	updated := product
	updated.Rating = (product.Rating*float64(product.RatingCount) + float64(stars)) / float64(product.RatingCount+1)
	updated.RatingCount = product.RatingCount + 1
	return updated, nil
}
