package models

import "encoding/json"

// Client is a customer record of the coordinates screen. Only the id is
// interpreted; the rest is passed through untouched.
type Client struct {
	ID     FlexString                 `json:"id"`
	Fields map[string]json.RawMessage `json:"-"`
}

func (c *Client) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["id"]; ok {
		if err := c.ID.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	c.Fields = fields
	return nil
}

func (c Client) MarshalJSON() ([]byte, error) {
	if c.Fields == nil {
		return json.Marshal(map[string]string{"id": c.ID.String()})
	}
	return json.Marshal(c.Fields)
}

// Page is a slice of records plus the total announced by the upstream
// X-Total-Count header.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type Localisation struct {
	UPC          string     `json:"upc"`
	FullLocation string     `json:"full_location"`
	Level        string     `json:"level,omitempty"`
	Row          string     `json:"row,omitempty"`
	Side         string     `json:"side,omitempty"`
	Item         string     `json:"item,omitempty"`
	Description  string     `json:"description,omitempty"`
	Store        FlexString `json:"store,omitempty"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
}

type ArchiveSectionRequest struct {
	Level string `json:"level" validate:"required"`
	Row   string `json:"row" validate:"required"`
	Side  string `json:"side" validate:"required"`
}

type ArchiveLocationRequest struct {
	UPC          string `json:"upc" validate:"required"`
	FullLocation string `json:"full_location" validate:"required"`
}

type PickFormRequest struct {
	ItemName string `json:"item_name" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type ReturnItem struct {
	Item  string `json:"item" validate:"required"`
	Units int    `json:"units" validate:"required,gt=0"`
	Store string `json:"store,omitempty"`
}

type PslQuery struct {
	// Page is 0-based; the upstream counts from 1.
	Page        int
	Limit       int
	StartDate   string
	EndDate     string
	OrderNumber string
	Store       string
}

// RouteInfo is the per-route timing returned by get_route_info.
type RouteInfo struct {
	Arrival   string `json:"arrival"`
	Departure string `json:"departure,omitempty"`
}
