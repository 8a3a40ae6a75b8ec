package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"folio-server/src/models"
	"folio-server/src/query"
	"folio-server/src/views"
)

const maxUploadBytes = 10 << 20

// transactionFilter reads ?range=, ?from=, ?to=, ?account_id= and ?q=.
// The default range is the last 30 days.
func transactionFilter(r *http.Request, today models.Date) (views.TransactionFilter, error) {
	q := r.URL.Query()
	name := views.RangeName(q.Get("range"))
	if name == "" {
		name = views.RangeLast30
		if q.Get("from") != "" || q.Get("to") != "" {
			name = views.RangeCustom
		}
	}

	var from, to models.Date
	var err error
	if s := q.Get("from"); s != "" {
		if from, err = models.ParseDate(s); err != nil {
			return views.TransactionFilter{}, invalid(err)
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = models.ParseDate(s); err != nil {
			return views.TransactionFilter{}, invalid(err)
		}
	}
	rng, err := views.ResolveRange(name, today, from, to)
	if err != nil {
		return views.TransactionFilter{}, err
	}

	accountID, err := optionalID(r, "account_id")
	if err != nil {
		return views.TransactionFilter{}, err
	}
	return views.TransactionFilter{
		Range:     rng,
		AccountID: accountID,
		Query:     strings.TrimSpace(q.Get("q")),
	}, nil
}

type transactionsResponse struct {
	Range        views.DateRange      `json:"range"`
	Transactions []models.Transaction `json:"transactions"`
	Totals       views.Totals         `json:"totals"`
}

func GetTransactions(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := transactionFilter(r, models.DateOf(time.Now()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		res := c.Transactions.Get(r.Context())
		writeRead(w, r, derive(res, func(txns []models.Transaction) transactionsResponse {
			filtered := views.FilterTransactions(txns, f)
			return transactionsResponse{Range: f.Range, Transactions: filtered, Totals: views.RangeTotals(filtered)}
		}))
	}
}

// GetGroupedTransactions applies the same filters as GetTransactions and
// buckets the result by category.
func GetGroupedTransactions(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := transactionFilter(r, models.DateOf(time.Now()))
		if err != nil {
			writeError(w, r, err)
			return
		}
		cats := c.Categories.Get(r.Context())
		res := c.Transactions.Get(r.Context())
		writeRead(w, r, derive(res, func(txns []models.Transaction) []views.Group[models.Transaction] {
			return views.GroupTransactions(views.FilterTransactions(txns, f), cats.Data)
		}))
	}
}

func GetTransactionSummary(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.TransactionSummary.Get(r.Context()))
	}
}

func PatchTransaction(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r, "transaction_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in models.TransactionPatch
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		if err := c.PatchTransaction(r.Context(), id, in); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadTransactions forwards a CSV statement from the multipart field
// "file". The target account comes from ?account_id= when given.
func UploadTransactions(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := optionalID(r, "account_id")
		if err != nil {
			writeError(w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, r, invalid(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, invalid(errors.New("file is required")))
			return
		}
		defer file.Close()

		if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
			writeError(w, r, invalid(errors.New("only .csv files can be imported")))
			return
		}

		result, err := c.UploadTransactions(r.Context(), header.Filename, file, accountID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func GetAccounts(c *query.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, r, c.Accounts.Get(r.Context()))
	}
}
