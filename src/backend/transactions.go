package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"folio-server/src/models"
)

func (c *Client) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return getList[models.Transaction](ctx, c, "/transactions/")
}

func (c *Client) TransactionSummary(ctx context.Context) (*models.TransactionSummary, error) {
	return getOne[models.TransactionSummary](ctx, c, "/transactions/summary")
}

func (c *Client) PatchTransaction(ctx context.Context, id int, in models.TransactionPatch) error {
	return c.send(ctx, http.MethodPatch, idPath("/transactions", id), in, nil)
}

func (c *Client) Accounts(ctx context.Context) ([]models.Account, error) {
	return getList[models.Account](ctx, c, "/accounts/")
}

// UploadTransactions posts a bank CSV export. accountID is optional.
func (c *Client) UploadTransactions(ctx context.Context, filename string, csv io.Reader, accountID *int) (*models.UploadResult, error) {
	path := "/transactions/upload"
	if accountID != nil {
		path += "?" + url.Values{"account_id": {strconv.Itoa(*accountID)}}.Encode()
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, csv); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out models.UploadResult
	if err := c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
