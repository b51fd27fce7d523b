package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kraimines/ticketocr/dto"
)

const (
	ticketBucketName = "tickets"
	entryBucketName  = "entries"
	budgetBucketName = "budgets"
)

// DB defines the interface for database operations
type DB interface {
	// SaveTicket saves an analyzed ticket to the history
	SaveTicket(ticket *dto.TicketRecord) error

	// GetTicket retrieves a ticket by ID
	GetTicket(id string) (*dto.TicketRecord, error)

	// ListTickets returns all tickets, most recent first
	ListTickets() ([]*dto.TicketRecord, error)

	// SaveEntry saves an accounting entry to the ledger
	SaveEntry(entry *dto.AccountingEntry) error

	// ListEntries returns all ledger entries ordered by entry date
	ListEntries() ([]*dto.AccountingEntry, error)

	// UpsertBudget creates or replaces the budget for its period
	UpsertBudget(budget *dto.Budget) error

	// GetBudget retrieves the budget for a period
	GetBudget(budgetType dto.BudgetType, year, month int) (*dto.Budget, error)

	// BudgetStatus computes spend against the budget for a period
	BudgetStatus(budgetType dto.BudgetType, year, month int) (*dto.BudgetStatus, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{ticketBucketName, entryBucketName, budgetBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveTicket saves an analyzed ticket to the history
func (b *BoltDB) SaveTicket(ticket *dto.TicketRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ticketBucketName))
		data, err := json.Marshal(ticket)
		if err != nil {
			return fmt.Errorf("marshaling ticket: %w", err)
		}
		return bucket.Put([]byte(ticket.ID), data)
	})
}

// GetTicket retrieves a ticket by ID
func (b *BoltDB) GetTicket(id string) (*dto.TicketRecord, error) {
	var ticket *dto.TicketRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ticketBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return dto.ErrTicketNotFound
		}
		return json.Unmarshal(data, &ticket)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns all tickets, most recent first
func (b *BoltDB) ListTickets() ([]*dto.TicketRecord, error) {
	tickets := make([]*dto.TicketRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ticketBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var ticket dto.TicketRecord
			if err := json.Unmarshal(v, &ticket); err != nil {
				return fmt.Errorf("unmarshaling ticket: %w", err)
			}
			tickets = append(tickets, &ticket)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

// SaveEntry saves an accounting entry to the ledger
func (b *BoltDB) SaveEntry(entry *dto.AccountingEntry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucketName))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put([]byte(entry.ID), data)
	})
}

// ListEntries returns all ledger entries ordered by entry date
func (b *BoltDB) ListEntries() ([]*dto.AccountingEntry, error) {
	entries := make([]*dto.AccountingEntry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var entry dto.AccountingEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryDate.Before(entries[j].EntryDate)
	})
	return entries, nil
}

func budgetKey(budgetType dto.BudgetType, year, month int) []byte {
	if budgetType == dto.BudgetYearly {
		return []byte(fmt.Sprintf("yearly/%04d", year))
	}
	return []byte(fmt.Sprintf("monthly/%04d-%02d", year, month))
}

// UpsertBudget creates or replaces the budget for its period
func (b *BoltDB) UpsertBudget(budget *dto.Budget) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(budgetBucketName))
		data, err := json.Marshal(budget)
		if err != nil {
			return fmt.Errorf("marshaling budget: %w", err)
		}
		return bucket.Put(budgetKey(budget.Type, budget.Year, budget.Month), data)
	})
}

// GetBudget retrieves the budget for a period
func (b *BoltDB) GetBudget(budgetType dto.BudgetType, year, month int) (*dto.Budget, error) {
	var budget *dto.Budget
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(budgetBucketName))
		data := bucket.Get(budgetKey(budgetType, year, month))
		if data == nil {
			return dto.ErrBudgetNotFound
		}
		return json.Unmarshal(data, &budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// BudgetStatus computes spend against the budget for a period by summing the
// stored tickets whose date falls in that period
func (b *BoltDB) BudgetStatus(budgetType dto.BudgetType, year, month int) (*dto.BudgetStatus, error) {
	budget, err := b.GetBudget(budgetType, year, month)
	if err != nil {
		return nil, err
	}

	tickets, err := b.ListTickets()
	if err != nil {
		return nil, err
	}

	var spent float64
	for _, t := range tickets {
		if t.TicketDate.Year() != year {
			continue
		}
		if budgetType == dto.BudgetMonthly && int(t.TicketDate.Month()) != month {
			continue
		}
		spent += t.Total
	}

	return &dto.BudgetStatus{
		Budget:    *budget,
		Spent:     spent,
		Remaining: budget.Amount - spent,
		Exceeded:  spent > budget.Amount,
	}, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
