package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraimines/ticketocr/dto"
)

func newTestDB(t *testing.T) *BoltDB {
	t.Helper()
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetTicket(t *testing.T) {
	db := newTestDB(t)

	ticket := &dto.TicketRecord{
		ID:         "t-1",
		TicketDate: time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC),
		Magasin:    "MONOPRIX",
		Total:      4.090,
		Articles: []dto.Article{
			{Nom: "LAIT", Prix: "1.200 DT"},
			{Nom: "YAOURT", Prix: "2.890 DT"},
		},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.SaveTicket(ticket))

	got, err := db.GetTicket("t-1")
	require.NoError(t, err)
	assert.Equal(t, "MONOPRIX", got.Magasin)
	assert.Equal(t, 4.090, got.Total)
	assert.Len(t, got.Articles, 2)
}

func TestGetTicketNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetTicket("missing")
	assert.ErrorIs(t, err, dto.ErrTicketNotFound)
}

func TestListTicketsMostRecentFirst(t *testing.T) {
	db := newTestDB(t)

	older := &dto.TicketRecord{ID: "t-1", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &dto.TicketRecord{ID: "t-2", CreatedAt: time.Now()}
	require.NoError(t, db.SaveTicket(older))
	require.NoError(t, db.SaveTicket(newer))

	tickets, err := db.ListTickets()
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "t-2", tickets[0].ID)
	assert.Equal(t, "t-1", tickets[1].ID)
}

func TestSaveAndListEntries(t *testing.T) {
	db := newTestDB(t)

	later := &dto.AccountingEntry{
		ID:        "e-2",
		TicketID:  "t-1",
		EntryDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Account:   "606100",
		Debit:     12.500,
	}
	earlier := &dto.AccountingEntry{
		ID:        "e-1",
		TicketID:  "t-1",
		EntryDate: time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC),
		Account:   "606100",
		Debit:     4.090,
	}
	require.NoError(t, db.SaveEntry(later))
	require.NoError(t, db.SaveEntry(earlier))

	entries, err := db.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e-1", entries[0].ID)
	assert.Equal(t, "e-2", entries[1].ID)
}

func TestBudgetUpsertAndStatus(t *testing.T) {
	db := newTestDB(t)

	budget := &dto.Budget{
		Type:   dto.BudgetMonthly,
		Amount: 100,
		Year:   2025,
		Month:  1,
	}
	require.NoError(t, db.UpsertBudget(budget))

	// Two tickets in January, one in February.
	require.NoError(t, db.SaveTicket(&dto.TicketRecord{
		ID: "t-1", TicketDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Total: 40,
	}))
	require.NoError(t, db.SaveTicket(&dto.TicketRecord{
		ID: "t-2", TicketDate: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), Total: 70,
	}))
	require.NoError(t, db.SaveTicket(&dto.TicketRecord{
		ID: "t-3", TicketDate: time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), Total: 30,
	}))

	status, err := db.BudgetStatus(dto.BudgetMonthly, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 110.0, status.Spent)
	assert.Equal(t, -10.0, status.Remaining)
	assert.True(t, status.Exceeded)
}

func TestBudgetYearlyStatus(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertBudget(&dto.Budget{
		Type:   dto.BudgetYearly,
		Amount: 500,
		Year:   2025,
	}))
	require.NoError(t, db.SaveTicket(&dto.TicketRecord{
		ID: "t-1", TicketDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Total: 120,
	}))
	require.NoError(t, db.SaveTicket(&dto.TicketRecord{
		ID: "t-2", TicketDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Total: 999,
	}))

	status, err := db.BudgetStatus(dto.BudgetYearly, 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, 120.0, status.Spent)
	assert.False(t, status.Exceeded)
}

func TestBudgetNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetBudget(dto.BudgetMonthly, 2025, 6)
	assert.ErrorIs(t, err, dto.ErrBudgetNotFound)
}

func TestUpsertBudgetReplaces(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertBudget(&dto.Budget{Type: dto.BudgetMonthly, Amount: 100, Year: 2025, Month: 1}))
	require.NoError(t, db.UpsertBudget(&dto.Budget{Type: dto.BudgetMonthly, Amount: 250, Year: 2025, Month: 1}))

	got, err := db.GetBudget(dto.BudgetMonthly, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.Amount)
}
