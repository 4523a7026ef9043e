package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"logistica_backend/internal/events"
	orderdomain "logistica_backend/internal/serviceorders/domain"
	"logistica_backend/internal/tasks/domain"
	"logistica_backend/internal/tasks/repository"
	"logistica_backend/internal/tasks/transport"
	"logistica_backend/platform/apperr"
	"logistica_backend/platform/logger"
)

// fakeOrder carries its own mutex standing in for the database row lock the
// real repository takes with FOR UPDATE.
type fakeOrder struct {
	id        uuid.UUID
	code      string
	creatorID uuid.UUID
	status    string
	mu        sync.Mutex
}

type fakeRepo struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*fakeOrder
	tasks       map[uuid.UUID]*repository.Task
	logs        map[uuid.UUID][]string
	templates   map[uuid.UUID][]repository.CreateParams
	failCloneAt int

	overdueCount int64
	overdueCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:    make(map[uuid.UUID]*fakeOrder),
		tasks:     make(map[uuid.UUID]*repository.Task),
		logs:      make(map[uuid.UUID][]string),
		templates: make(map[uuid.UUID][]repository.CreateParams),
	}
}

func (f *fakeRepo) addOrder() *fakeOrder {
	order := &fakeOrder{
		id:        uuid.New(),
		code:      fmt.Sprintf("OS-2026-%04d", len(f.orders)+1),
		creatorID: uuid.New(),
		status:    orderdomain.StatusPendente,
	}
	f.orders[order.id] = order
	return order
}

func (f *fakeRepo) addTask(orderID uuid.UUID, sector string) *repository.Task {
	task := &repository.Task{
		ID:             uuid.New(),
		Title:          "task " + sector,
		Sector:         sector,
		ServiceOrderID: &orderID,
		CreatedAt:      time.Now(),
	}
	f.tasks[task.ID] = task
	return task
}

func (f *fakeRepo) lockedOrder(taskID uuid.UUID) (*fakeOrder, *repository.Task, error) {
	f.mu.Lock()
	task, ok := f.tasks[taskID]
	if !ok {
		f.mu.Unlock()
		return nil, nil, apperr.NotFound("task not found")
	}
	if task.ServiceOrderID == nil {
		f.mu.Unlock()
		return nil, nil, apperr.Conflict("template tasks have no lifecycle")
	}
	order := f.orders[*task.ServiceOrderID]
	f.mu.Unlock()

	order.mu.Lock()
	return order, task, nil
}

func (f *fakeRepo) sectorLogged(orderID uuid.UUID, sector string) bool {
	for _, logged := range f.logs[orderID] {
		if logged == sector {
			return true
		}
	}
	return false
}

func (f *fakeRepo) orderStates(orderID uuid.UUID) []domain.TaskState {
	states := []domain.TaskState{}
	for _, task := range f.tasks {
		if task.ServiceOrderID != nil && *task.ServiceOrderID == orderID {
			states = append(states, domain.TaskState{
				ID:        task.ID,
				Sector:    task.Sector,
				Completed: task.CompletedAt != nil,
			})
		}
	}
	return states
}

func (f *fakeRepo) CompleteCascade(_ context.Context, taskID uuid.UUID) (repository.CascadeResult, error) {
	order, task, err := f.lockedOrder(taskID)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	defer order.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	result := repository.CascadeResult{
		OrderID:        order.id,
		OrderCode:      order.code,
		OrderCreatorID: order.creatorID,
		Sector:         task.Sector,
	}

	if task.CompletedAt != nil {
		result.AlreadyDone = true
	} else {
		now := time.Now()
		task.CompletedAt = &now
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
	}

	eval := domain.EvaluateSector(f.orderStates(order.id), task.Sector)
	if eval.SectorComplete && !f.sectorLogged(order.id, task.Sector) {
		f.logs[order.id] = append(f.logs[order.id], task.Sector)
		result.SectorLogged = true
	}
	if eval.OrderComplete && order.status != orderdomain.StatusFinalizado {
		order.status = orderdomain.StatusFinalizado
		result.OrderFinalized = true
	}

	result.Task = *task
	return result, nil
}

func (f *fakeRepo) Uncomplete(_ context.Context, taskID uuid.UUID) (repository.Task, error) {
	order, task, err := f.lockedOrder(taskID)
	if err != nil {
		return repository.Task{}, err
	}
	defer order.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if order.status == orderdomain.StatusFinalizado {
		return repository.Task{}, apperr.Conflict("service order is already finalized")
	}
	if f.sectorLogged(order.id, task.Sector) {
		return repository.Task{}, apperr.Conflict("sector already logged as complete")
	}
	task.CompletedAt = nil
	return *task, nil
}

func (f *fakeRepo) InstantiateFromTemplate(_ context.Context, orderID, templateID uuid.UUID) ([]repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[orderID]
	if !ok {
		return nil, apperr.NotFound("service order not found")
	}
	if order.status == orderdomain.StatusFinalizado {
		return nil, apperr.Conflict("service order is already finalized")
	}
	stamps, ok := f.templates[templateID]
	if !ok {
		return nil, apperr.NotFound("process template not found")
	}

	cloned := []repository.Task{}
	for i, stamp := range stamps {
		if f.failCloneAt > 0 && i+1 == f.failCloneAt {
			return nil, fmt.Errorf("clone template task: connection reset")
		}
		cloned = append(cloned, repository.Task{
			ID:             uuid.New(),
			Title:          stamp.Title,
			Sector:         stamp.Sector,
			Stage:          stamp.Stage,
			ServiceOrderID: &orderID,
			TaskCostCents:  stamp.TaskCostCents,
			Address:        stamp.Address,
			CreatedAt:      time.Now(),
		})
	}
	for i := range cloned {
		task := cloned[i]
		f.tasks[task.ID] = &task
	}
	return cloned, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	return *task, nil
}

func (f *fakeRepo) ListByServiceOrder(_ context.Context, orderID uuid.UUID) ([]repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []repository.Task{}
	for _, task := range f.tasks {
		if task.ServiceOrderID != nil && *task.ServiceOrderID == orderID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountOverdue(_ context.Context, _ repository.OverdueFilters) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overdueCalls++
	return f.overdueCount, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[params.ServiceOrderID]
	if !ok {
		return repository.Task{}, apperr.NotFound("service order not found")
	}
	if order.status == orderdomain.StatusFinalizado {
		return repository.Task{}, apperr.Conflict("service order is already finalized")
	}
	orderID := params.ServiceOrderID
	task := &repository.Task{
		ID:             uuid.New(),
		Title:          params.Title,
		Sector:         params.Sector,
		Stage:          params.Stage,
		ServiceOrderID: &orderID,
		AssignedUserID: params.AssignedUserID,
		DueDate:        params.DueDate,
		TaskCostCents:  params.TaskCostCents,
		Address:        params.Address,
		CreatedAt:      time.Now(),
	}
	f.tasks[task.ID] = task
	return *task, nil
}

func (f *fakeRepo) Assign(_ context.Context, taskID, userID uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	task.AssignedUserID = &userID
	return *task, nil
}

func (f *fakeRepo) Unassign(_ context.Context, taskID uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	task.AssignedUserID = nil
	return *task, nil
}

func (f *fakeRepo) Start(_ context.Context, taskID uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	if task.StartedAt == nil {
		now := time.Now()
		task.StartedAt = &now
	}
	return *task, nil
}

func (f *fakeRepo) UpdateDueDate(_ context.Context, taskID uuid.UUID, dueDate *time.Time) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	task.DueDate = dueDate
	return *task, nil
}

func (f *fakeRepo) AddCost(_ context.Context, taskID uuid.UUID, costCents int64) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	task.TaskCostCents = &costCents
	return *task, nil
}

func (f *fakeRepo) Remove(_ context.Context, taskID uuid.UUID) (repository.RemoveResult, error) {
	order, task, err := f.lockedOrder(taskID)
	if err != nil {
		return repository.RemoveResult{}, err
	}
	defer order.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if task.CompletedAt != nil && f.sectorLogged(order.id, task.Sector) {
		return repository.RemoveResult{}, apperr.Conflict("completed task in a logged sector cannot be removed")
	}
	delete(f.tasks, taskID)

	result := repository.RemoveResult{
		OrderID:        order.id,
		OrderCode:      order.code,
		OrderCreatorID: order.creatorID,
		Sector:         task.Sector,
	}
	eval := domain.EvaluateSector(f.orderStates(order.id), task.Sector)
	if eval.SectorComplete && !f.sectorLogged(order.id, task.Sector) {
		f.logs[order.id] = append(f.logs[order.id], task.Sector)
		result.SectorLogged = true
	}
	if eval.OrderComplete && order.status != orderdomain.StatusFinalizado {
		order.status = orderdomain.StatusFinalizado
		result.OrderFinalized = true
	}
	return result, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) count(eventName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, event := range b.published {
		if event.EventName() == eventName {
			n++
		}
	}
	return n
}

func newService(repo *fakeRepo, bus events.Bus, cache *redis.Client) *Service {
	return New(repo, bus, cache, logger.New("development"))
}

func TestCompleteClosesSectorsAndFinalizesOrder(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus, nil)

	order := repo.addOrder()
	a1 := repo.addTask(order.id, "A")
	a2 := repo.addTask(order.id, "A")
	b1 := repo.addTask(order.id, "B")

	ctx := context.Background()

	first, err := svc.Complete(ctx, a1.ID)
	if err != nil {
		t.Fatalf("complete a1: %v", err)
	}
	if first.SectorComplete || first.OrderComplete {
		t.Fatalf("one of two sector-A tasks done, got %+v", first)
	}

	second, err := svc.Complete(ctx, a2.ID)
	if err != nil {
		t.Fatalf("complete a2: %v", err)
	}
	if !second.SectorComplete {
		t.Fatal("sector A should be complete after both tasks")
	}
	if second.OrderComplete {
		t.Fatal("order must stay open while sector B has an open task")
	}
	if order.status != orderdomain.StatusPendente {
		t.Fatalf("status should still be PENDENTE, got %s", order.status)
	}

	third, err := svc.Complete(ctx, b1.ID)
	if err != nil {
		t.Fatalf("complete b1: %v", err)
	}
	if !third.SectorComplete || !third.OrderComplete {
		t.Fatalf("last task must close sector and order, got %+v", third)
	}
	if order.status != orderdomain.StatusFinalizado {
		t.Fatalf("status should be FINALIZADO, got %s", order.status)
	}

	if got := repo.logs[order.id]; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("expected logs [A B], got %v", got)
	}
	if n := bus.count(events.SectorCompleted{}.EventName()); n != 2 {
		t.Fatalf("expected 2 sector events, got %d", n)
	}
	if n := bus.count(events.ServiceOrderFinalized{}.EventName()); n != 1 {
		t.Fatalf("expected 1 finalized event, got %d", n)
	}
}

func TestCompleteTwiceIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus, nil)

	order := repo.addOrder()
	task := repo.addTask(order.id, "A")

	ctx := context.Background()
	if _, err := svc.Complete(ctx, task.ID); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, err := svc.Complete(ctx, task.ID); err != nil {
		t.Fatalf("second complete: %v", err)
	}

	if got := len(repo.logs[order.id]); got != 1 {
		t.Fatalf("expected exactly one log entry, got %d", got)
	}
	if n := bus.count(events.TaskCompleted{}.EventName()); n != 1 {
		t.Fatalf("re-complete must not publish again, got %d events", n)
	}
	if n := bus.count(events.SectorCompleted{}.EventName()); n != 1 {
		t.Fatalf("expected one sector event, got %d", n)
	}
}

// Complete N sibling tasks of one sector concurrently: the order lock plus
// the log uniqueness check must yield exactly one log entry and one sector
// event no matter the interleaving.
func TestConcurrentSiblingCompletionsWriteOneLog(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus, nil)

	order := repo.addOrder()
	const siblings = 8
	ids := make([]uuid.UUID, siblings)
	for i := range ids {
		ids[i] = repo.addTask(order.id, "OPERACOES").ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(taskID uuid.UUID) {
			defer wg.Done()
			if _, err := svc.Complete(context.Background(), taskID); err != nil {
				t.Errorf("complete %s: %v", taskID, err)
			}
		}(id)
	}
	wg.Wait()

	if got := len(repo.logs[order.id]); got != 1 {
		t.Fatalf("expected exactly one log entry, got %d", got)
	}
	if n := bus.count(events.SectorCompleted{}.EventName()); n != 1 {
		t.Fatalf("expected exactly one sector event, got %d", n)
	}
	if n := bus.count(events.ServiceOrderFinalized{}.EventName()); n != 1 {
		t.Fatalf("expected exactly one finalized event, got %d", n)
	}
	if order.status != orderdomain.StatusFinalizado {
		t.Fatalf("order should be FINALIZADO, got %s", order.status)
	}
}

func TestUncompleteAfterSectorLoggedConflicts(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus, nil)

	order := repo.addOrder()
	task := repo.addTask(order.id, "A")
	repo.addTask(order.id, "B") // keeps the order open

	ctx := context.Background()
	if _, err := svc.Complete(ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := svc.Uncomplete(ctx, task.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if repo.tasks[task.ID].CompletedAt == nil {
		t.Fatal("conflicting uncomplete must leave the task completed")
	}
	if got := len(repo.logs[order.id]); got != 1 {
		t.Fatalf("log must be unchanged, got %d entries", got)
	}
	if order.status != orderdomain.StatusPendente {
		t.Fatalf("status must be unchanged, got %s", order.status)
	}
}

func TestUncompleteBeforeSectorLoggedSucceeds(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &recordingBus{}, nil)

	order := repo.addOrder()
	done := repo.addTask(order.id, "A")
	repo.addTask(order.id, "A") // sector stays open

	ctx := context.Background()
	if _, err := svc.Complete(ctx, done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reopened, err := svc.Uncomplete(ctx, done.ID)
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatal("uncomplete must clear completion")
	}
}

// A finalized order is terminal: new tasks would strand it with work that can
// never reopen the status.
func TestCreateOnFinalizedOrderConflicts(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &recordingBus{}, nil)

	order := repo.addOrder()
	task := repo.addTask(order.id, "A")

	ctx := context.Background()
	if _, err := svc.Complete(ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if order.status != orderdomain.StatusFinalizado {
		t.Fatalf("order should be FINALIZADO, got %s", order.status)
	}

	_, err := svc.Create(ctx, transport.CreateTaskRequest{
		ServiceOrderID: order.id,
		Title:          "entrega extra",
		Sector:         "A",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	remaining, _ := repo.ListByServiceOrder(ctx, order.id)
	if len(remaining) != 1 {
		t.Fatalf("finalized order must keep exactly its completed task, got %d", len(remaining))
	}
}

// Removing the last open task of a sector must close the sector and the order
// exactly like a completion would; otherwise a later uncomplete could reopen
// work on a finalized order.
func TestRemoveLastOpenTaskClosesSectorAndFinalizes(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newService(repo, bus, nil)

	order := repo.addOrder()
	a1 := repo.addTask(order.id, "A")
	a2 := repo.addTask(order.id, "A")
	b1 := repo.addTask(order.id, "B")

	ctx := context.Background()
	if _, err := svc.Complete(ctx, a1.ID); err != nil {
		t.Fatalf("complete a1: %v", err)
	}
	if _, err := svc.Complete(ctx, b1.ID); err != nil {
		t.Fatalf("complete b1: %v", err)
	}

	if err := svc.Remove(ctx, a2.ID); err != nil {
		t.Fatalf("remove a2: %v", err)
	}

	if got := repo.logs[order.id]; len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Fatalf("removal must log the closed sector, got %v", got)
	}
	if order.status != orderdomain.StatusFinalizado {
		t.Fatalf("order should be FINALIZADO after removal, got %s", order.status)
	}
	if n := bus.count(events.SectorCompleted{}.EventName()); n != 2 {
		t.Fatalf("expected 2 sector events, got %d", n)
	}
	if n := bus.count(events.ServiceOrderFinalized{}.EventName()); n != 1 {
		t.Fatalf("expected 1 finalized event, got %d", n)
	}

	// The finalized order is sealed against reopening.
	_, err := svc.Uncomplete(ctx, a1.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("uncomplete on finalized order should conflict, got %v", err)
	}
	if repo.tasks[a1.ID].CompletedAt == nil {
		t.Fatal("conflicting uncomplete must leave the task completed")
	}
}

func TestInstantiateFromTemplateIsAtomic(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &recordingBus{}, nil)

	order := repo.addOrder()
	templateID := uuid.New()
	repo.templates[templateID] = []repository.CreateParams{
		{Title: "coleta", Sector: "OPERACOES"},
		{Title: "conferencia", Sector: "OPERACOES"},
		{Title: "faturamento", Sector: "FINANCEIRO"},
	}
	repo.failCloneAt = 2

	_, err := svc.Instantiate(context.Background(), transport.InstantiateRequest{
		ServiceOrderID: order.id,
		TemplateID:     templateID,
	})
	if err == nil {
		t.Fatal("expected mid-expansion failure")
	}

	leftover, _ := repo.ListByServiceOrder(context.Background(), order.id)
	if len(leftover) != 0 {
		t.Fatalf("partial expansion must not be observable, found %d tasks", len(leftover))
	}
}

func TestInstantiateFromTemplateClonesAllTasks(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &recordingBus{}, nil)

	order := repo.addOrder()
	templateID := uuid.New()
	repo.templates[templateID] = []repository.CreateParams{
		{Title: "coleta", Sector: "A"},
		{Title: "entrega", Sector: "A"},
		{Title: "faturamento", Sector: "B"},
	}

	result, err := svc.Instantiate(context.Background(), transport.InstantiateRequest{
		ServiceOrderID: order.id,
		TemplateID:     templateID,
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected 3 cloned tasks, got %d", result.Total)
	}
	if result.Items[0].Title != "coleta" || result.Items[2].Title != "faturamento" {
		t.Fatalf("template order must be preserved, got %v", result.Items)
	}
	for _, item := range result.Items {
		if item.CompletedAt != nil || item.StartedAt != nil || item.AssignedUserID != nil {
			t.Fatalf("cloned tasks must start unassigned and unstarted, got %+v", item)
		}
	}
}

func TestCountOverdueReadsThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newFakeRepo()
	repo.overdueCount = 7
	svc := newService(repo, &recordingBus{}, cache)

	ctx := context.Background()
	sector := "OPERACOES"
	query := transport.OverdueQuery{Sector: &sector}

	first, err := svc.CountOverdue(ctx, query)
	if err != nil {
		t.Fatalf("first count: %v", err)
	}
	second, err := svc.CountOverdue(ctx, query)
	if err != nil {
		t.Fatalf("second count: %v", err)
	}

	if first.Count != 7 || second.Count != 7 {
		t.Fatalf("expected count 7, got %d then %d", first.Count, second.Count)
	}
	if repo.overdueCalls != 1 {
		t.Fatalf("second call should hit the cache, repository saw %d calls", repo.overdueCalls)
	}

	// Expired entries fall back to the database.
	mr.FastForward(overdueCacheTTL + time.Second)
	if _, err := svc.CountOverdue(ctx, query); err != nil {
		t.Fatalf("third count: %v", err)
	}
	if repo.overdueCalls != 2 {
		t.Fatalf("expired cache should hit the repository again, saw %d calls", repo.overdueCalls)
	}
}
