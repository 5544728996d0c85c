package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"
	"scrapyard-api/internal/ws"
	"scrapyard-api/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// listLimit caps the history listing (the UI shows recent purchases only).
const listLimit = 15

type TransactionService interface {
	// Create posts a multi-line purchase: header, detail lines, per-line
	// stock increments and IN ledger rows commit as one atomic unit.
	Create(req *CreateTransactionRequest, userID uuid.UUID, userName string) (*model.Transaction, error)
	List(search string) ([]model.Transaction, error)
	Get(id uuid.UUID) (*model.Transaction, error)
	Latest() (*model.Transaction, error)
}

type TransactionLine struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type CreateTransactionRequest struct {
	ClientID uuid.UUID         `json:"client_id"`
	Notes    string            `json:"notes"`
	Lines    []TransactionLine `json:"lines"`
}

type transactionService struct {
	store repository.Store
	hub   *ws.Hub
}

func NewTransactionService(store repository.Store, hub *ws.Hub) TransactionService {
	return &transactionService{store: store, hub: hub}
}

func (s *transactionService) Create(req *CreateTransactionRequest, userID uuid.UUID, userName string) (*model.Transaction, error) {
	if req.ClientID == uuid.Nil {
		return nil, apperr.NewValidation("a client must be selected")
	}
	if len(req.Lines) == 0 {
		return nil, apperr.NewValidation("at least one material line is required")
	}
	for i, line := range req.Lines {
		if line.MaterialID == uuid.Nil {
			return nil, apperr.NewValidation(fmt.Sprintf("line %d: a material must be selected", i+1))
		}
		if !line.Quantity.IsPositive() {
			return nil, apperr.NewValidation(fmt.Sprintf("line %d: quantity must be greater than 0", i+1))
		}
		if !line.UnitPrice.IsPositive() {
			return nil, apperr.NewValidation(fmt.Sprintf("line %d: unit price must be greater than 0", i+1))
		}
	}

	transaction, err := s.post(req, userID)
	if err != nil && apperr.ConstraintViolated(err, "folio") {
		// A concurrent posting committed the same folio between this one's
		// lookup and insert. The whole unit rolled back, so posting again
		// picks up the next sequence.
		transaction, err = s.post(req, userID)
	}
	if err != nil {
		return nil, err
	}

	// Hydrate for receipt rendering
	created, err := s.store.Transactions().FindByID(transaction.ID)
	if err != nil {
		return nil, apperr.FromDB(err, "transaction")
	}

	s.hub.Publish(ws.StockEvent{
		Action:  "transaction_created",
		Actor:   userName,
		Message: fmt.Sprintf("%s registered purchase %s (%s kg)", userName, created.Folio, created.TotalWeight.String()),
		Payload: map[string]interface{}{
			"id":           created.ID,
			"folio":        created.Folio,
			"total_weight": created.TotalWeight,
			"total_amount": created.TotalAmount,
		},
	})

	return created, nil
}

// post runs one posting attempt: folio derivation, header, detail lines,
// per-line stock increments and IN ledger rows, all in one atomic unit.
func (s *transactionService) post(req *CreateTransactionRequest, userID uuid.UUID) (*model.Transaction, error) {
	transaction := &model.Transaction{
		Type:     model.TxPurchase,
		Status:   model.TxCompleted,
		Source:   model.SourceKeyboard,
		Notes:    req.Notes,
		ClientID: req.ClientID,
		UserID:   userID,
	}
	transaction.CreatedBy = userID.String()
	transaction.UpdatedBy = userID.String()

	totalWeight := decimal.Zero
	totalAmount := decimal.Zero
	for i, line := range req.Lines {
		subtotal := line.Quantity.Mul(line.UnitPrice)
		totalWeight = totalWeight.Add(line.Quantity)
		totalAmount = totalAmount.Add(subtotal)
		transaction.Details = append(transaction.Details, model.TransactionDetail{
			MaterialID: line.MaterialID,
			Position:   i + 1,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			Subtotal:   subtotal,
		})
	}
	transaction.TotalWeight = totalWeight
	transaction.TotalAmount = totalAmount

	err := s.store.Atomically(func(tx repository.Store) error {
		client, err := tx.Clients().FindByID(req.ClientID)
		if err != nil {
			return apperr.FromDB(err, "client")
		}
		if !client.IsActive {
			return apperr.NewValidation("client is not active")
		}

		// Derived inside the unit so the lookup sees every committed posting
		transaction.Folio = nextFolio(tx)

		// Header and detail lines in one insert
		if err := tx.Transactions().Create(transaction); err != nil {
			return apperr.FromDB(err, "transaction")
		}

		// N lines produce exactly N stock increments and N IN ledger rows
		for _, line := range req.Lines {
			if _, err := postPurchaseIn(tx, line.MaterialID, line.Quantity, transaction.Folio, userID.String()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *transactionService) List(search string) ([]model.Transaction, error) {
	transactions, err := s.store.Transactions().FindAll(search, listLimit)
	if err != nil {
		return nil, apperr.FromDB(err, "transaction")
	}
	return transactions, nil
}

func (s *transactionService) Get(id uuid.UUID) (*model.Transaction, error) {
	transaction, err := s.store.Transactions().FindByID(id)
	if err != nil {
		return nil, apperr.FromDB(err, "transaction")
	}
	return transaction, nil
}

func (s *transactionService) Latest() (*model.Transaction, error) {
	transaction, err := s.store.Transactions().FindLatest()
	if err != nil {
		return nil, apperr.FromDB(err, "transaction")
	}
	return s.Get(transaction.ID)
}

// nextFolio derives the next sequential folio for the current year
// (F-<year>-<6-digit-seq>). When the lookup fails the posting degrades to a
// timestamp-derived folio, which is not guaranteed collision-free; the unique
// index on folio is the backstop.
func nextFolio(store repository.Store) string {
	year := time.Now().Year()
	prefix := fmt.Sprintf("F-%d-", year)

	last, err := store.Transactions().LastFolio(prefix)
	if err != nil {
		log.Printf("folio lookup failed, degrading to timestamp folio: %v", err)
		ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
		return prefix + ts[len(ts)-6:]
	}

	sequence := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, perr := strconv.Atoi(parts[len(parts)-1]); perr == nil {
			sequence = n + 1
		}
	}
	return fmt.Sprintf("%s%06d", prefix, sequence)
}
