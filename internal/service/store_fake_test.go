package service

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"scrapyard-api/internal/model"
	"scrapyard-api/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is an in-memory repository.Store for service tests. Atomically
// snapshots the whole state up front and restores it when fn fails, so the
// all-or-nothing behavior of multi-write operations is assertable.
// FindByIDForUpdate takes a per-material mutex that is held until the unit
// ends, mirroring the row lock the real store takes, so concurrent postings
// against one material serialize here the same way they do on Postgres.
type memStore struct {
	mu           sync.Mutex
	rowLocks     map[uuid.UUID]*sync.Mutex
	materials    map[uuid.UUID]*model.Material
	movements    []*model.InventoryMovement
	clients      map[uuid.UUID]*model.Client
	transactions []*model.Transaction
	users        map[uuid.UUID]*model.User

	// failFolioLookup forces LastFolio to error so the degraded folio path
	// can be exercised.
	failFolioLookup bool
	// folioTakenOnce makes the next transaction insert fail with the folio
	// unique violation, simulating a concurrent posting that committed the
	// same folio between the lookup and the insert.
	folioTakenOnce bool
}

func newMemStore() *memStore {
	return &memStore{
		rowLocks:  make(map[uuid.UUID]*sync.Mutex),
		materials: make(map[uuid.UUID]*model.Material),
		clients:   make(map[uuid.UUID]*model.Client),
		users:     make(map[uuid.UUID]*model.User),
	}
}

func (s *memStore) Materials() repository.MaterialRepository       { return &memMaterials{s: s} }
func (s *memStore) Movements() repository.MovementRepository       { return &memMovements{s} }
func (s *memStore) Clients() repository.ClientRepository           { return &memClients{s} }
func (s *memStore) Transactions() repository.TransactionRepository { return &memTransactions{s} }
func (s *memStore) Users() repository.UserRepository               { return &memUsers{s} }

func (s *memStore) Atomically(fn func(tx repository.Store) error) error {
	tx := &memTx{s: s, heldRows: make(map[uuid.UUID]bool)}
	defer tx.release()

	snap := s.snapshot()
	if err := fn(tx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	materials    map[uuid.UUID]*model.Material
	movements    []*model.InventoryMovement
	clients      map[uuid.UUID]*model.Client
	transactions []*model.Transaction
	users        map[uuid.UUID]*model.User
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		materials: make(map[uuid.UUID]*model.Material, len(s.materials)),
		clients:   make(map[uuid.UUID]*model.Client, len(s.clients)),
		users:     make(map[uuid.UUID]*model.User, len(s.users)),
	}
	for id, m := range s.materials {
		cp := *m
		snap.materials[id] = &cp
	}
	snap.movements = append([]*model.InventoryMovement(nil), s.movements...)
	for id, c := range s.clients {
		cp := *c
		snap.clients[id] = &cp
	}
	snap.transactions = append([]*model.Transaction(nil), s.transactions...)
	for id, u := range s.users {
		cp := *u
		snap.users[id] = &cp
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = snap.materials
	s.movements = snap.movements
	s.clients = snap.clients
	s.transactions = snap.transactions
	s.users = snap.users
}

// memTx is the Store handed to an Atomically fn. It tracks the row locks the
// unit acquired so they release only when the unit finishes.
type memTx struct {
	s        *memStore
	held     []*sync.Mutex
	heldRows map[uuid.UUID]bool
}

func (t *memTx) Materials() repository.MaterialRepository       { return &memMaterials{s: t.s, tx: t} }
func (t *memTx) Movements() repository.MovementRepository       { return &memMovements{t.s} }
func (t *memTx) Clients() repository.ClientRepository           { return &memClients{t.s} }
func (t *memTx) Transactions() repository.TransactionRepository { return &memTransactions{t.s} }
func (t *memTx) Users() repository.UserRepository               { return &memUsers{t.s} }

func (t *memTx) Atomically(fn func(tx repository.Store) error) error {
	return fn(t)
}

// lockRow blocks until the unit owns the material's row lock. Re-locking a
// row the unit already holds is a no-op, as on Postgres.
func (t *memTx) lockRow(id uuid.UUID) {
	if t.heldRows[id] {
		return
	}
	t.s.mu.Lock()
	lock, ok := t.s.rowLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		t.s.rowLocks[id] = lock
	}
	t.s.mu.Unlock()

	lock.Lock()
	t.held = append(t.held, lock)
	t.heldRows[id] = true
}

func (t *memTx) release() {
	for _, lock := range t.held {
		lock.Unlock()
	}
	t.held = nil
}

// --- helpers ---

func (s *memStore) addMaterial(code, name, category, price, stock string) *model.Material {
	m := &model.Material{
		Code:     code,
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    decimal.RequireFromString(stock),
		IsActive: true,
	}
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	s.materials[m.ID] = m
	return m
}

func (s *memStore) addClient(name string) *model.Client {
	c := &model.Client{Name: name, IsActive: true}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	s.clients[c.ID] = c
	return c
}

// callers hold s.mu
func (s *memStore) movementsFor(materialID uuid.UUID) []*model.InventoryMovement {
	var out []*model.InventoryMovement
	for _, mv := range s.movements {
		if mv.MaterialID == materialID {
			out = append(out, mv)
		}
	}
	return out
}

// callers hold s.mu
func (s *memStore) activeMaterials(search string) []model.Material {
	var out []model.Material
	for _, m := range s.materials {
		if !m.IsActive {
			continue
		}
		if search != "" && !materialMatches(m, search) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- materials ---

type memMaterials struct {
	s  *memStore
	tx *memTx
}

func (r *memMaterials) Create(material *model.Material) error {
	if material.ID == uuid.Nil {
		material.ID = uuid.New()
	}
	material.CreatedAt = time.Now()
	cp := *material
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.materials[material.ID] = &cp
	return nil
}

func (r *memMaterials) FindAll(search string) ([]model.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.activeMaterials(search), nil
}

func (r *memMaterials) FindAllWithMovements(search string, movementLimit int) ([]model.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	materials := r.s.activeMaterials(search)
	for i := range materials {
		history := r.s.movementsFor(materials[i].ID)
		sort.Slice(history, func(a, b int) bool {
			return history[a].CreatedAt.After(history[b].CreatedAt)
		})
		if movementLimit > 0 && len(history) > movementLimit {
			history = history[:movementLimit]
		}
		for _, mv := range history {
			materials[i].Movements = append(materials[i].Movements, *mv)
		}
	}
	return materials, nil
}

func materialMatches(m *model.Material, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(m.Code), search) ||
		strings.Contains(strings.ToLower(m.Name), search) ||
		strings.Contains(strings.ToLower(m.Category), search)
}

func (r *memMaterials) FindByID(id uuid.UUID) (*model.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materials[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMaterials) FindByIDForUpdate(id uuid.UUID) (*model.Material, error) {
	if r.tx != nil {
		r.tx.lockRow(id)
	}
	return r.FindByID(id)
}

func (r *memMaterials) FindByCode(code string) (*model.Material, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.materials {
		if m.Code == code {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memMaterials) ExistsByCodeOrName(code, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.materials {
		if m.Code == code || m.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMaterials) Update(material *model.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.materials[material.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *material
	r.s.materials[material.ID] = &cp
	return nil
}

func (r *memMaterials) UpdateStock(id uuid.UUID, newStock decimal.Decimal, updatedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materials[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Stock = newStock
	m.UpdatedBy = updatedBy
	return nil
}

func (r *memMaterials) Stats() (*repository.CatalogStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := &repository.CatalogStats{TotalValuation: decimal.Zero}
	threshold := decimal.NewFromInt(10)
	for _, m := range r.s.materials {
		if !m.IsActive {
			continue
		}
		stats.TotalMaterials++
		if m.Stock.LessThan(threshold) {
			stats.LowStockCount++
		}
		stats.TotalValuation = stats.TotalValuation.Add(m.Stock.Mul(m.Price))
	}
	return stats, nil
}

// --- movements ---

type memMovements struct{ s *memStore }

func (r *memMovements) Create(movement *model.InventoryMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	cp := *movement
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovements) FindByMaterial(materialID uuid.UUID, limit int) ([]model.InventoryMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	history := r.s.movementsFor(materialID)
	// Insertion order stands in for created_at ordering; newest first.
	var out []model.InventoryMovement
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, *history[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memMovements) DailyFlows(startDate, endDate time.Time) ([]repository.DailyFlow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byDay := make(map[string]*repository.DailyFlow)
	for _, mv := range r.s.movements {
		if mv.CreatedAt.Before(startDate) || mv.CreatedAt.After(endDate) {
			continue
		}
		day := mv.CreatedAt.Format("2006-01-02")
		flow, ok := byDay[day]
		if !ok {
			flow = &repository.DailyFlow{Date: day, Inbound: decimal.Zero, Outbound: decimal.Zero}
			byDay[day] = flow
		}
		switch mv.Type {
		case model.MovementIn:
			flow.Inbound = flow.Inbound.Add(mv.Quantity)
		case model.MovementOut:
			flow.Outbound = flow.Outbound.Add(mv.Quantity.Abs())
		}
	}
	var out []repository.DailyFlow
	for _, flow := range byDay {
		out = append(out, *flow)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// --- clients ---

type memClients struct{ s *memStore }

func (r *memClients) Create(client *model.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.CreatedAt = time.Now()
	cp := *client
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[client.ID] = &cp
	return nil
}

func (r *memClients) FindAll(search string) ([]model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Client
	for _, c := range r.s.clients {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memClients) FindActive() ([]model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Client
	for _, c := range r.s.clients {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memClients) FindByID(id uuid.UUID) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memClients) Update(client *model.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[client.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *client
	r.s.clients[client.ID] = &cp
	return nil
}

// --- transactions ---

type memTransactions struct{ s *memStore }

func (r *memTransactions) Create(transaction *model.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.folioTakenOnce {
		r.s.folioTakenOnce = false
		return &pgconn.PgError{Code: "23505", ConstraintName: "idx_transactions_folio"}
	}
	for _, existing := range r.s.transactions {
		if existing.Folio == transaction.Folio {
			return &pgconn.PgError{Code: "23505", ConstraintName: "idx_transactions_folio"}
		}
	}

	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	transaction.CreatedAt = time.Now()
	for i := range transaction.Details {
		if transaction.Details[i].ID == uuid.Nil {
			transaction.Details[i].ID = uuid.New()
		}
		transaction.Details[i].TransactionID = transaction.ID
	}
	cp := *transaction
	cp.Details = append([]model.TransactionDetail(nil), transaction.Details...)
	r.s.transactions = append(r.s.transactions, &cp)
	return nil
}

func (r *memTransactions) FindAll(search string, limit int) ([]model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []model.Transaction
	for i := len(r.s.transactions) - 1; i >= 0; i-- {
		cp := *r.s.transactions[i]
		if c, ok := r.s.clients[cp.ClientID]; ok {
			cc := *c
			cp.Client = &cc
		}
		out = append(out, cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memTransactions) FindByID(id uuid.UUID) (*model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, t := range r.s.transactions {
		if t.ID == id {
			cp := *t
			cp.Details = append([]model.TransactionDetail(nil), t.Details...)
			sort.Slice(cp.Details, func(i, j int) bool {
				return cp.Details[i].Position < cp.Details[j].Position
			})
			if c, ok := r.s.clients[t.ClientID]; ok {
				cc := *c
				cp.Client = &cc
			}
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memTransactions) FindLatest() (*model.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.transactions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	last := r.s.transactions[len(r.s.transactions)-1]
	cp := *last
	return &cp, nil
}

func (r *memTransactions) LastFolio(prefix string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failFolioLookup {
		return "", errors.New("connection refused")
	}
	last := ""
	for _, t := range r.s.transactions {
		if strings.HasPrefix(t.Folio, prefix) && t.Folio > last {
			last = t.Folio
		}
	}
	return last, nil
}

func (r *memTransactions) TotalsSince(since time.Time) (*repository.PurchaseTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	totals := &repository.PurchaseTotals{Amount: decimal.Zero}
	for _, t := range r.s.transactions {
		if t.CreatedAt.Before(since) {
			continue
		}
		totals.Count++
		totals.Amount = totals.Amount.Add(t.TotalAmount)
	}
	return totals, nil
}

// --- users ---

type memUsers struct{ s *memStore }

func (r *memUsers) FindByEmail(email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUsers) FindByID(id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) Create(user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	cp := *user
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUsers) Update(user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *memUsers) FindAll() ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memUsers) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashedPassword
	return nil
}

func (r *memUsers) UpdateTokenVersion(userID uuid.UUID, version string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.TokenVersion = version
	return nil
}

func (r *memUsers) UpdateLastSeen(userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	u.LastSeenAt = &now
	return nil
}
