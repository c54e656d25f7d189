// Package model defines the domain types shared across the pipeline.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueObservation is one row of the daily box-office input: revenue for one
// title on one date. Observations are immutable after parsing.
type RevenueObservation struct {
	ID      string          `json:"id"`
	Date    time.Time       `json:"date"`
	Title   string          `json:"title"`
	Revenue decimal.Decimal `json:"revenue"`

	// Theaters and Distributor are nullable in the source data. The Has*
	// flags record presence explicitly instead of using sentinel values.
	Theaters       int    `json:"theaters"`
	HasTheaters    bool   `json:"has_theaters"`
	Distributor    string `json:"distributor"`
	HasDistributor bool   `json:"has_distributor"`
}

// RankedMovie is one distinct title aggregated across all its observations.
type RankedMovie struct {
	Title        string          `json:"title"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	FirstDate    time.Time       `json:"first_date"`
	LastDate     time.Time       `json:"last_date"`
}
