package client

import (
	"context"
	"fmt"
	"strconv"

	"tablebook/pkg/model"
)

type TablesClient struct {
	httpClient *HttpClient
}

func NewTablesClient(httpClient *HttpClient) *TablesClient {
	return &TablesClient{httpClient: httpClient}
}

func (c *TablesClient) List(ctx context.Context) ([]model.Table, error) {
	resp, err := c.httpClient.GET(ctx, "/tables")
	if err != nil {
		return nil, err
	}
	var tables []model.Table
	if err := decode(resp, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (c *TablesClient) Create(ctx context.Context, table model.TableCreate) (*model.Table, error) {
	resp, err := c.httpClient.POST(ctx, "/tables", table)
	if err != nil {
		return nil, err
	}
	var created model.Table
	if err := decode(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update persists the full table shape.
func (c *TablesClient) Update(ctx context.Context, table model.Table) (*model.Table, error) {
	if table.ID <= 0 {
		return nil, fmt.Errorf("table id is required for update")
	}
	resp, err := c.httpClient.PUT(ctx, "/tables/"+strconv.Itoa(table.ID), table)
	if err != nil {
		return nil, err
	}
	var updated model.Table
	if err := decode(resp, &updated); err != nil {
		return nil, err
	}
	if updated.ID == 0 {
		updated = table
	}
	return &updated, nil
}

func (c *TablesClient) Delete(ctx context.Context, id int) error {
	resp, err := c.httpClient.DELETE(ctx, "/tables/"+strconv.Itoa(id))
	if err != nil {
		return err
	}
	return decode(resp, nil)
}
